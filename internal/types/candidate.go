package types

import "github.com/clinistack/vetcore/internal/verr"

var errNegativeWeight = verr.New("ScoringWeights.Normalize", verr.InvalidInput)

// ScoringWeights is the 40/25/20/15 default policy split, exposed as
// configuration. Weights are normalized to sum to 1 before use.
type ScoringWeights struct {
	Name    float64
	Species float64
	Route   float64
	Dose    float64
}

// DefaultScoringWeights returns the built-in default split.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{Name: 0.40, Species: 0.25, Route: 0.20, Dose: 0.15}
}

// Normalize rejects negative weights and rescales the remainder to sum to 1.
// A zero-sum input normalizes to the default split rather than dividing by
// zero.
func (w ScoringWeights) Normalize() (ScoringWeights, error) {
	if w.Name < 0 || w.Species < 0 || w.Route < 0 || w.Dose < 0 {
		return ScoringWeights{}, errNegativeWeight
	}
	sum := w.Name + w.Species + w.Route + w.Dose
	if sum == 0 {
		return DefaultScoringWeights(), nil
	}
	return ScoringWeights{
		Name:    w.Name / sum,
		Species: w.Species / sum,
		Route:   w.Route / sum,
		Dose:    w.Dose / sum,
	}, nil
}

// SubScores holds the four [0,1] sub-scores computed for one candidate.
type SubScores struct {
	Name    float64
	Species float64
	Route   float64
	Dose    float64
}

// Confidence applies w to s: 0.40*name + 0.25*species + 0.20*route + 0.15*dose
// under the (already-normalized) weights w.
func (s SubScores) Confidence(w ScoringWeights) float64 {
	return w.Name*s.Name + w.Species*s.Species + w.Route*s.Route + w.Dose*s.Dose
}

// ScoredCandidate pairs a CatalogItem with its confidence and sub-scores.
type ScoredCandidate struct {
	Item       CatalogItem
	Sub        SubScores
	Confidence float64
}

// ReviewStatus is the lifecycle state of a ResolvedItem within a draft.
type ReviewStatus string

const (
	StatusPending             ReviewStatus = "pending"
	StatusApproved            ReviewStatus = "approved"
	StatusAlternativeSelected ReviewStatus = "alternative_selected"
	StatusRejected            ReviewStatus = "rejected"
)

// ResolvedItem is one resolved line within an EncounterDraft.
type ResolvedItem struct {
	OriginalText string
	Normalized   NormalizedMention
	TopSKU       string
	Candidates   []ScoredCandidate
	Status       ReviewStatus
	ChosenSKU    string // set once reviewed; "" while pending
}
