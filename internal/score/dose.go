package score

import "github.com/clinistack/vetcore/internal/types"

// doseScore checks whether mention's dose-per-kg falls within item's
// labeled range. Missing any of the four inputs is scored neutral (1.0)
// rather than penalized: dose mismatch is only evidence when there's
// enough data to compute it.
func doseScore(mention types.NormalizedMention, weightKg *float64, item types.CatalogItem) float64 {
	if mention.DoseMg == nil || mention.Unit != types.UnitMg || weightKg == nil ||
		item.DoseMinMgPerKg == nil || item.DoseMaxMgPerKg == nil {
		return 1.0
	}

	mgPerKg := *mention.DoseMg / *weightKg
	min, max := *item.DoseMinMgPerKg, *item.DoseMaxMgPerKg

	if mgPerKg >= min && mgPerKg <= max {
		return 1.0
	}

	var distance, bound float64
	if mgPerKg < min {
		distance = min - mgPerKg
		bound = min
	} else {
		distance = mgPerKg - max
		bound = max
	}
	if bound == 0 {
		return 0.1
	}

	ratio := distance / bound
	if ratio > 0.5 {
		return 0.1
	}
	// Linear decay from 1.0 at ratio=0 to 0.3 at ratio=0.5.
	return 1.0 - (0.7)*(ratio/0.5)
}
