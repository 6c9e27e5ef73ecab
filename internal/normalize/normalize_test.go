package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/vetcore/internal/types"
)

func dose(v float64) *float64 { return &v }

func TestAliasExpansion(t *testing.T) {
	n := New(nil)
	for alias, canonical := range builtinAliases {
		got := n.Normalize(types.DrugMention{RawName: alias})
		assert.Equal(t, canonical, got.CanonicalName, "alias %q", alias)
	}
}

func TestAliasExpansionUnknownPassesThroughLowercased(t *testing.T) {
	n := New(nil)
	got := n.Normalize(types.DrugMention{RawName: "Amoxicillin"})
	assert.Equal(t, "amoxicillin", got.CanonicalName)
}

func TestUnitConversionTable(t *testing.T) {
	n := New(nil)
	cases := []struct {
		unit string
		in   float64
		mg   float64
	}{
		{"mg", 100, 100},
		{"cc", 5, 5},
		{"mL", 5, 5},
		{"mcg", 2000, 2},
		{"ug", 2000, 2},
		{"μg", 2000, 2},
		{"g", 1, 1000},
	}
	for _, c := range cases {
		got := n.Normalize(types.DrugMention{RawName: "rimadyl", Dose: dose(c.in), Unit: c.unit})
		require.NotNil(t, got.DoseMg, "unit %q", c.unit)
		assert.InDelta(t, c.mg, *got.DoseMg, 1e-9, "unit %q", c.unit)
	}
}

func TestUnitMLTagging(t *testing.T) {
	n := New(nil)
	gotCC := n.Normalize(types.DrugMention{RawName: "ace", Dose: dose(0.5), Unit: "cc"})
	assert.Equal(t, types.UnitML, gotCC.Unit)
	gotMg := n.Normalize(types.DrugMention{RawName: "rimadyl", Dose: dose(100), Unit: "mg"})
	assert.Equal(t, types.UnitMg, gotMg.Unit)
}

func TestUnknownUnitPropagatesNullCanonical(t *testing.T) {
	n := New(nil)
	got := n.Normalize(types.DrugMention{RawName: "rimadyl", Dose: dose(1), Unit: "drops"})
	require.NotNil(t, got.DoseMg)
	assert.Equal(t, "", got.Unit)
}

func TestRouteCanonicalization(t *testing.T) {
	n := New(nil)
	cases := map[string]string{
		"PO": types.RoutePO, "orally": types.RoutePO, "by mouth": types.RoutePO, "oral": types.RoutePO,
		"SQ": types.RouteSQ, "subq": types.RouteSQ, "subcutaneous": types.RouteSQ, "subcutaneously": types.RouteSQ,
		"IM": types.RouteIM, "intramuscular": types.RouteIM, "intramuscularly": types.RouteIM,
		"IV": types.RouteIV, "intravenous": types.RouteIV, "intravenously": types.RouteIV,
		"topical": types.RouteTOP, "topically": types.RouteTOP,
		"sniffed": "",
	}
	for raw, want := range cases {
		got := n.Normalize(types.DrugMention{RawName: "rimadyl", Route: raw})
		assert.Equal(t, want, got.Route, "route %q", raw)
	}
}

func TestSpeciesPassthroughLowercased(t *testing.T) {
	n := New(nil)
	got := n.Normalize(types.DrugMention{RawName: "rimadyl", Species: "Canine"})
	assert.Equal(t, "canine", got.Species)
}

func TestDeterminism(t *testing.T) {
	n := New(nil)
	m := types.DrugMention{RawName: "Rimadyl!!", Dose: dose(100), Unit: "mg", Route: "PO", Species: "Canine"}
	first := n.Normalize(m)
	second := n.Normalize(m)
	assert.Equal(t, first, second)
}

func TestOverridesConsultedBeforeBuiltin(t *testing.T) {
	n := New(WithOverrides(map[string]string{"rimadyl": "clinic-brand-x"}))
	got := n.Normalize(types.DrugMention{RawName: "rimadyl"})
	assert.Equal(t, "clinic-brand-x", got.CanonicalName)
}

func TestScenario1Rimadyl(t *testing.T) {
	n := New(nil)
	got := n.Normalize(types.DrugMention{RawName: "rimadyl", Dose: dose(100), Unit: "mg", Route: "PO", Species: "canine"})
	assert.Equal(t, "carprofen", got.CanonicalName)
	require.NotNil(t, got.DoseMg)
	assert.Equal(t, 100.0, *got.DoseMg)
	assert.Equal(t, types.UnitMg, got.Unit)
	assert.Equal(t, types.RoutePO, got.Route)
}

func TestScenario2Ace(t *testing.T) {
	n := New(nil)
	got := n.Normalize(types.DrugMention{RawName: "ace", Dose: dose(0.5), Unit: "cc", Route: "IM", Species: "canine"})
	assert.Equal(t, "acepromazine", got.CanonicalName)
	assert.Equal(t, types.UnitML, got.Unit)
	assert.Equal(t, types.RouteIM, got.Route)
}

func TestScenario3Metacam(t *testing.T) {
	n := New(nil)
	got := n.Normalize(types.DrugMention{RawName: "metacam", Dose: dose(0.5), Unit: "mL", Species: "feline"})
	assert.Equal(t, "meloxicam", got.CanonicalName)
	assert.Equal(t, "", got.Route)
}
