package catalog

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
	// The real Store does the FTS OR-match; for unit tests we just hand
	// back the whole fixture catalog and let Search's classify() filter it.
	return f.items, nil
}

func fixture() fakeLookup {
	return fakeLookup{items: []types.CatalogItem{
		{SKU: "CARP-75", CanonicalName: "carprofen", Aliases: []string{"rimadyl", "novox"}},
		{SKU: "CARP-25", CanonicalName: "carprofen", Aliases: []string{"rimadyl"}},
		{SKU: "MELOX-15", CanonicalName: "meloxicam", Aliases: []string{"metacam"}},
		{SKU: "ACE-10", CanonicalName: "acepromazine", Aliases: []string{"ace", "promace"}},
	}}
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	got, err := Search(fixture(), "", 20)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchExactAliasHit(t *testing.T) {
	got, err := Search(fixture(), "rimadyl", 20)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "CARP-25", got[0].Item.SKU, "ties broken by SKU lexicographic order")
	assert.Equal(t, "CARP-75", got[1].Item.SKU)
}

func TestSearchSingleCharQueryAtMostOneExactHit(t *testing.T) {
	got, err := Search(fakeLookup{items: []types.CatalogItem{
		{SKU: "A", CanonicalName: "a"},
		{SKU: "B", CanonicalName: "a"},
	}}, "a", 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	items := make([]types.CatalogItem, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, types.CatalogItem{SKU: string(rune('a' + i)), CanonicalName: "carprofen"})
	}
	got, err := Search(fakeLookup{items: items}, "carprofen", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestSearchLongQueryTruncatedTo64Chars(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	toks := Tokenize(long)
	require.Len(t, toks, 1)
	assert.Len(t, toks[0], MaxQueryLen)
}

func TestSearchEditDistanceWithinTwo(t *testing.T) {
	got, err := Search(fakeLookup{items: []types.CatalogItem{
		{SKU: "MELOX-15", CanonicalName: "meloxicam"},
	}}, "meloxicm", 20) // one deletion away
	require.NoError(t, err)
	require.Len(t, got, 1)
}
