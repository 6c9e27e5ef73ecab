package normalize

import (
	"regexp"
	"strings"

	"github.com/clinistack/vetcore/internal/types"
)

// punctuationRegex strips anything that isn't a letter, digit, or
// whitespace before alias lookup.
var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// whitespaceRegex collapses runs of whitespace to a single space.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalizer canonicalizes drug name, unit, and route from a raw mention.
// It never fails: unknown inputs produce nulls and lower confidence
// downstream, never errors (§7 propagation policy). It is deterministic —
// no randomness, no clock access.
type Normalizer struct {
	aliasLookup AliasLookup
}

// New builds a Normalizer. lookup may be nil, in which case only the
// built-in alias map is consulted.
func New(lookup AliasLookup) *Normalizer {
	if lookup == nil {
		lookup = BuiltinOnly
	}
	return &Normalizer{aliasLookup: lookup}
}

// Normalize applies alias expansion, unit conversion, route
// canonicalization, and species passthrough, in that order.
func (n *Normalizer) Normalize(m types.DrugMention) types.NormalizedMention {
	out := types.NormalizedMention{
		CanonicalName: n.canonicalName(m.RawName),
		Species:       strings.ToLower(strings.TrimSpace(m.Species)),
		Route:         canonicalRoute(m.Route),
	}

	if m.Dose != nil {
		converted, canonicalUnit, recognized := convertUnit(*m.Dose, m.Unit)
		if recognized {
			dose := converted
			out.DoseMg = &dose
			out.Unit = canonicalUnit
		} else {
			// Unknown unit: dose and value still propagate, but the
			// normalized unit is null per §4.3 rule 2.
			dose := *m.Dose
			out.DoseMg = &dose
			out.Unit = ""
		}
	}

	return out
}

// canonicalName lower-cases, strips punctuation, collapses whitespace, then
// expands through the alias map. If nothing matches, the cleaned input
// itself is the canonical name.
func (n *Normalizer) canonicalName(raw string) string {
	cleaned := strings.ToLower(raw)
	cleaned = punctuationRegex.ReplaceAllString(cleaned, " ")
	cleaned = whitespaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if canonical, ok := n.aliasLookup(cleaned); ok {
		return canonical
	}
	return cleaned
}
