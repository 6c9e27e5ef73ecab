package score

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/clinistack/vetcore/internal/types"
)

// nameScore blends Jaro-Winkler and Levenshtein-based similarity 50/50,
// taking the max of (canonical name, each alias) on each metric before
// blending.
func nameScore(mentionName string, item types.CatalogItem) float64 {
	mentionName = strings.ToLower(mentionName)

	bestJW := jaroWinkler(mentionName, strings.ToLower(item.CanonicalName))
	bestLev := levenshteinSimilarity(mentionName, strings.ToLower(item.CanonicalName))
	for _, alias := range item.Aliases {
		alias = strings.ToLower(alias)
		if jw := jaroWinkler(mentionName, alias); jw > bestJW {
			bestJW = jw
		}
		if lv := levenshteinSimilarity(mentionName, alias); lv > bestLev {
			bestLev = lv
		}
	}

	blended := 0.5*bestJW + 0.5*bestLev
	return clip01(blended)
}

// levenshteinSimilarity converts an edit distance into a [0,1] similarity:
// 1 - edit_distance/max_len.
func levenshteinSimilarity(a, b string) float64 {
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	sim := 1 - float64(dist)/float64(maxLen)
	return clip01(sim)
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
