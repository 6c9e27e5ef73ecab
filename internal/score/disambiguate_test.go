package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/vetcore/internal/types"
)

type fakeLookup struct {
	items []types.CatalogItem
}

func (f fakeLookup) FTSCandidates(tokens []string) ([]types.CatalogItem, error) {
	return f.items, nil
}

func mgPtr(v float64) *float64 { return &v }

func carprofenCatalog() fakeLookup {
	return fakeLookup{items: []types.CatalogItem{
		{
			SKU:            "CARP-75",
			CanonicalName:  "carprofen",
			Aliases:        []string{"rimadyl", "novox"},
			Species:        []string{"dog"},
			Routes:         []string{types.RoutePO},
			DoseMinMgPerKg: mgPtr(2.0),
			DoseMaxMgPerKg: mgPtr(4.4),
		},
		{
			SKU:           "ACE-10",
			CanonicalName: "acepromazine",
			Aliases:       []string{"ace", "promace"},
			Species:       []string{"dog", "cat"},
			Routes:        []string{types.RouteIM, types.RouteSQ},
		},
	}}
}

// "rimadyl" for a 20kg dog at 50mg should resolve to carprofen CARP-75
// with confidence >= 0.90.
func TestResolveRimadylHighConfidence(t *testing.T) {
	d, err := New(carprofenCatalog(), types.DefaultScoringWeights())
	require.NoError(t, err)

	mention := types.NormalizedMention{
		CanonicalName: "rimadyl",
		DoseMg:        mgPtr(50),
		Unit:          types.UnitMg,
		Route:         types.RoutePO,
		Species:       "dog",
	}
	patient := types.Patient{Species: "dog", WeightKg: mgPtr(20)}

	got, err := d.Resolve(mention, patient)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "CARP-75", got[0].Item.SKU)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.90)
}

// "ace" for a cat, no dose, should resolve to acepromazine with
// confidence >= 0.80.
func TestResolveAceModerateConfidence(t *testing.T) {
	d, err := New(carprofenCatalog(), types.DefaultScoringWeights())
	require.NoError(t, err)

	mention := types.NormalizedMention{
		CanonicalName: "ace",
		Route:         types.RouteIM,
		Species:       "cat",
	}
	patient := types.Patient{Species: "cat"}

	got, err := d.Resolve(mention, patient)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "ACE-10", got[0].Item.SKU)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.80)
}

func TestResolveTruncatesToFive(t *testing.T) {
	items := make([]types.CatalogItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, types.CatalogItem{SKU: string(rune('a' + i)), CanonicalName: "metacam"})
	}
	d, err := New(fakeLookup{items: items}, types.DefaultScoringWeights())
	require.NoError(t, err)

	got, err := d.Resolve(types.NormalizedMention{CanonicalName: "metacam"}, types.Patient{})
	require.NoError(t, err)
	assert.Len(t, got, MaxCandidates)
}

func TestResolveSortedByConfidenceThenSKU(t *testing.T) {
	d, err := New(carprofenCatalog(), types.DefaultScoringWeights())
	require.NoError(t, err)

	got, err := d.Resolve(types.NormalizedMention{CanonicalName: "carprofen"}, types.Patient{Species: "dog"})
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		if got[i-1].Confidence == got[i].Confidence {
			assert.LessOrEqual(t, got[i-1].Item.SKU, got[i].Item.SKU)
		} else {
			assert.Greater(t, got[i-1].Confidence, got[i].Confidence)
		}
	}
}

func TestNewRejectsNegativeWeights(t *testing.T) {
	_, err := New(carprofenCatalog(), types.ScoringWeights{Name: -1})
	assert.Error(t, err)
}

func TestDoseScoreInRangeIsNeutral(t *testing.T) {
	item := types.CatalogItem{DoseMinMgPerKg: mgPtr(2.0), DoseMaxMgPerKg: mgPtr(4.4)}
	mention := types.NormalizedMention{DoseMg: mgPtr(60), Unit: types.UnitMg}
	assert.Equal(t, 1.0, doseScore(mention, mgPtr(20), item))
}

func TestDoseScoreMissingInputsIsNeutral(t *testing.T) {
	item := types.CatalogItem{}
	mention := types.NormalizedMention{}
	assert.Equal(t, 1.0, doseScore(mention, nil, item))
}

func TestDoseScoreFarBeyondRangeIsLow(t *testing.T) {
	item := types.CatalogItem{DoseMinMgPerKg: mgPtr(2.0), DoseMaxMgPerKg: mgPtr(4.4)}
	mention := types.NormalizedMention{DoseMg: mgPtr(500), Unit: types.UnitMg}
	assert.Equal(t, 0.1, doseScore(mention, mgPtr(20), item))
}
