// Package score implements the Disambiguator: the third resolver stage
// that turns a shortlist of catalog candidates into ranked, confidence-
// scored matches for one normalized drug mention.
package score

import (
	"strings"

	"github.com/clinistack/vetcore/internal/catalog"
	"github.com/clinistack/vetcore/internal/types"
)

// MaxCandidates bounds how many scored candidates Disambiguate returns.
const MaxCandidates = 5

// Disambiguator scores and ranks catalog candidates for a normalized
// mention against a patient.
type Disambiguator struct {
	lookup  catalog.Lookup
	weights types.ScoringWeights
}

// New builds a Disambiguator. weights is normalized on construction; a
// zero-value ScoringWeights falls back to the default split.
func New(lookup catalog.Lookup, weights types.ScoringWeights) (*Disambiguator, error) {
	normalized, err := weights.Normalize()
	if err != nil {
		return nil, err
	}
	return &Disambiguator{lookup: lookup, weights: normalized}, nil
}

// Resolve runs catalog retrieval followed by multi-factor scoring for
// mention, against the mention's species (the patient's species when the
// mention names none) and patient's weight. Candidates are sorted
// by descending confidence with SKU as the tie-break, and truncated to
// MaxCandidates.
func (d *Disambiguator) Resolve(mention types.NormalizedMention, patient types.Patient) ([]types.ScoredCandidate, error) {
	hits, err := catalog.Search(d.lookup, mention.CanonicalName, catalog.DefaultLimit)
	if err != nil {
		return nil, err
	}

	species := strings.ToLower(mention.Species)
	if species == "" {
		species = strings.ToLower(patient.Species)
	}
	scored := make([]types.ScoredCandidate, 0, len(hits))
	for _, hit := range hits {
		sub := types.SubScores{
			Name:    nameScore(mention.CanonicalName, hit.Item),
			Species: speciesScore(species, hit.Item),
			Route:   routeScore(mention.Route, hit.Item),
			Dose:    doseScore(mention, patient.WeightKg, hit.Item),
		}
		scored = append(scored, types.ScoredCandidate{
			Item:       hit.Item,
			Sub:        sub,
			Confidence: sub.Confidence(d.weights),
		})
	}

	sortByConfidenceThenSKU(scored)

	if len(scored) > MaxCandidates {
		scored = scored[:MaxCandidates]
	}
	return scored, nil
}

// speciesScore is 1.0 if the mention species is empty (never observed)
// or is in item's compatible set; 0.1 otherwise — a mismatch here is
// evidence against the candidate, not proof, since catalogs are often
// incomplete about off-label use.
func speciesScore(species string, item types.CatalogItem) float64 {
	if species == "" || item.HasSpecies(species) {
		return 1.0
	}
	return 0.1
}

// routeScore mirrors speciesScore for the route dimension, at a softer
// 0.2 mismatch penalty (routes are more often interchangeable than
// species compatibility).
func routeScore(route string, item types.CatalogItem) float64 {
	if route == "" || item.HasRoute(route) {
		return 1.0
	}
	return 0.2
}

func sortByConfidenceThenSKU(c []types.ScoredCandidate) {
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && lessCandidate(c[j], c[j-1]) {
			c[j], c[j-1] = c[j-1], c[j]
			j--
		}
	}
}

func lessCandidate(a, b types.ScoredCandidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Item.SKU < b.Item.SKU
}
