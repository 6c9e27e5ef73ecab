package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/clinistack/vetcore/internal/types"
)

// hitClass orders the four ranking tiers: exact hit ranks above prefix,
// prefix above substring, substring above edit-distance-within-2.
type hitClass int

const (
	classNone hitClass = iota
	classEditDistance
	classSubstring
	classPrefix
	classExact
)

// retrievalScore maps a hit class to a [0,1] score, highest class first.
func (c hitClass) retrievalScore() float64 {
	switch c {
	case classExact:
		return 1.0
	case classPrefix:
		return 0.8
	case classSubstring:
		return 0.6
	case classEditDistance:
		return 0.4
	default:
		return 0
	}
}

// classify returns the best hit class for token against any of item's
// canonical name or aliases.
func classify(token string, item types.CatalogItem) hitClass {
	best := classNone
	check := func(name string) {
		name = strings.ToLower(name)
		switch {
		case name == token:
			best = classExact
		case strings.HasPrefix(name, token) && best < classPrefix:
			best = classPrefix
		case strings.Contains(name, token) && best < classSubstring:
			best = classSubstring
		case best < classEditDistance && levenshtein.ComputeDistance(name, token) <= 2:
			best = classEditDistance
		}
	}
	check(item.CanonicalName)
	for _, a := range item.Aliases {
		check(a)
	}
	return best
}

// Candidate is a catalog item paired with its retrieval score from the
// full-text shortlist pass (before the Disambiguator's multi-factor
// scoring).
type Candidate struct {
	Item  types.CatalogItem
	Score float64
}

// Lookup is satisfied by the Store: it returns every catalog item whose
// canonical name or alias full-text-matches at least one of tokens
// (OR across tokens).
type Lookup interface {
	FTSCandidates(tokens []string) ([]types.CatalogItem, error)
}

// Search implements the catalog index: tokenize, OR-match, rank by hit
// class, truncate to limit. Edge cases: empty query -> empty result;
// length-1 query -> at most one exact alias/name hit.
func Search(lookup Lookup, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	items, err := lookup.FTSCandidates(tokens)
	if err != nil {
		return nil, err
	}

	scored := make([]Candidate, 0, len(items))
	for _, item := range items {
		best := classNone
		for _, tok := range tokens {
			if c := classify(tok, item); c > best {
				best = c
			}
		}
		if best == classNone {
			continue
		}
		scored = append(scored, Candidate{Item: item, Score: best.retrievalScore()})
	}

	sortByScoreThenSKU(scored)

	if len(tokens) == 1 && len(query) == 1 {
		// Single-character queries return at most one exact hit.
		for _, c := range scored {
			if c.Score == classExact.retrievalScore() {
				return []Candidate{c}, nil
			}
		}
		return nil, nil
	}

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func sortByScoreThenSKU(c []Candidate) {
	// Stable insertion sort: candidate lists are small (bounded by catalog
	// size of one clinic's formulary), and stability keeps SKU tie-break
	// deterministic without a second comparator pass.
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && less(c[j], c[j-1]) {
			c[j], c[j-1] = c[j-1], c[j]
			j--
		}
	}
}

func less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Item.SKU < b.Item.SKU
}
