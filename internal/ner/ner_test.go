package ner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSingleMention(t *testing.T) {
	e := New(nil)
	got := e.Extract("Gave 100mg rimadyl PO to the canine patient.")
	require.Len(t, got, 1)
	assert.Equal(t, "rimadyl", got[0].RawName)
	require.NotNil(t, got[0].Dose)
	assert.Equal(t, 100.0, *got[0].Dose)
	assert.Equal(t, "mg", got[0].Unit)
	assert.Equal(t, "po", got[0].Route)
	assert.Equal(t, "canine", got[0].Species)
}

func TestExtractMultipleMentionsAcrossClauses(t *testing.T) {
	e := New(nil)
	got := e.Extract("Administered 0.5cc ace IM and 50mg cerenia SQ for the feline.")
	require.Len(t, got, 2)
	names := []string{got[0].RawName, got[1].RawName}
	assert.Contains(t, names, "ace")
	assert.Contains(t, names, "cerenia")
}

func TestExtractNoKnownDrugReturnsEmpty(t *testing.T) {
	e := New(nil)
	got := e.Extract("The patient seems happy today.")
	assert.Empty(t, got)
}

func TestExtractHonorsExtraTokens(t *testing.T) {
	e := New([]string{"kitty-asa"})
	got := e.Extract("Dispensed kitty-asa 5mg PO.")
	require.Len(t, got, 1)
	assert.Equal(t, "kitty-asa", got[0].RawName)
}

func TestExtractDoesNotMatchRouteInsideDrugName(t *testing.T) {
	e := New(nil)
	got := e.Extract("Gave rimadyl for the dog.")
	require.Len(t, got, 1)
	assert.Equal(t, "rimadyl", got[0].RawName)
	assert.Empty(t, got[0].Route, "route must not false-match the \"im\" inside \"rimadyl\"")

	got = e.Extract("Gave promace for the dog.")
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Route, "route must not false-match the \"po\" inside \"promace\"")
}

func TestExtractDoseUnitVariants(t *testing.T) {
	e := New(nil)
	cases := map[string]string{
		"gave dex 2mg IV":    "mg",
		"gave dex 2mL IV":    "ml",
		"gave dex 2cc IV":    "cc",
		"gave dex 2000mcg IV": "mcg",
	}
	for text, unit := range cases {
		got := e.Extract(text)
		require.Len(t, got, 1, text)
		assert.Equal(t, unit, got[0].Unit, text)
	}
}
