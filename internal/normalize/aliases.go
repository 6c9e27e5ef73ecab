package normalize

// builtinAliases is the bundled, immutable alias map (Design Notes §9:
// "ship it embedded and immutable"). Per-clinic extensions live in the
// AliasOverride table and are consulted first by the Normalizer's
// AliasLookup (see WithOverrides).
var builtinAliases = map[string]string{
	"rimadyl":     "carprofen",
	"novox":       "carprofen",
	"metacam":     "meloxicam",
	"ace":         "acepromazine",
	"promace":     "acepromazine",
	"cerenia":     "maropitant",
	"convenia":    "cefovecin",
	"baytril":     "enrofloxacin",
	"dex":         "dexamethasone",
	"torb":        "butorphanol",
	"keppra":      "levetiracetam",
	"vetmedin":    "pimobendan",
	"lasix":       "furosemide",
	"dexdomitor":  "dexmedetomidine",
	"clavamox":    "amoxicillin-clavulanate",
}

// AliasLookup resolves a cleaned (lower-cased, punctuation-stripped)
// drug name to its canonical form, consulting overrides before the
// built-in map. It returns ok=false if neither source has an entry, in
// which case the caller's input is already the canonical name.
type AliasLookup func(cleaned string) (canonical string, ok bool)

// BuiltinOnly is an AliasLookup backed only by the bundled map — used when
// no per-clinic overrides are configured (e.g. in tests).
func BuiltinOnly(cleaned string) (string, bool) {
	canonical, ok := builtinAliases[cleaned]
	return canonical, ok
}

// WithOverrides builds an AliasLookup that checks overrides first, falling
// back to the bundled map. overrides maps alias -> canonical, matching
// types.AliasOverride rows already lower-cased by the caller.
func WithOverrides(overrides map[string]string) AliasLookup {
	return func(cleaned string) (string, bool) {
		if canonical, ok := overrides[cleaned]; ok {
			return canonical, true
		}
		return BuiltinOnly(cleaned)
	}
}

// KnownAliasTokens returns every bundled alias spelling, for callers (the
// rule-based NER fallback, §6) that need to recognize a drug mention in
// free text without duplicating the map.
func KnownAliasTokens() []string {
	tokens := make([]string, 0, len(builtinAliases))
	for alias := range builtinAliases {
		tokens = append(tokens, alias)
	}
	return tokens
}
