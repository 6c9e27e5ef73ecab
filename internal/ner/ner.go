// Package ner implements the rule-based named-entity extractor the spec
// (§6) calls out as a fallback implementation for testing: a real
// deployment supplies its own `extract(transcript_bytes) -> []DrugMention`
// callback (typically an LLM), but vetcore ships this regex/keyword
// scanner so the core is exercisable end to end without one.
package ner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clinistack/vetcore/internal/normalize"
	"github.com/clinistack/vetcore/internal/types"
)

// doseRegex matches the dose patterns named in §6:
// \d+(\.\d+)?\s*(mg|cc|mL|mcg|ug|g).
var doseRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|cc|ml|mcg|ug|μg|g)\b`)

// clauseSplit breaks a transcript into drug-mention-sized segments: one
// sentence boundary, or a coordinating "and"/"with", each of which the
// extractor treats as carrying at most one mention.
var clauseSplit = regexp.MustCompile(`(?i)[.;\n]+|\s+and\s+|\s+with\s+`)

// routeKeywords mirrors normalize's route vocabulary — kept as a
// separate literal here since extraction works over raw clause text,
// not an already-split route field.
var routeKeywords = []string{
	"by mouth", "orally", "oral", "po",
	"subcutaneously", "subcutaneous", "subq", "sq",
	"intramuscularly", "intramuscular", "im",
	"intravenously", "intravenous", "iv",
	"topically", "topical",
}

// speciesKeywords is the small vocabulary the fallback extractor
// recognizes directly in prose; the Normalizer lower-cases whatever
// comes through without further canonicalization.
var speciesKeywords = []string{
	"canine", "feline", "equine", "dog", "cat", "horse", "cow", "bovine", "avian",
}

var wordSplit = regexp.MustCompile(`[^\p{L}\p{N}-]+`)

// Extractor scans free text for alias-map drug mentions, dose/unit
// patterns, route keywords, and species keywords.
type Extractor struct {
	aliasTokens map[string]bool
}

// New builds an Extractor recognizing the bundled alias map plus any
// extraTokens (e.g. per-clinic AliasOverride spellings the host wants
// the fallback extractor to also catch).
func New(extraTokens []string) *Extractor {
	tokens := map[string]bool{}
	for _, t := range normalize.KnownAliasTokens() {
		tokens[t] = true
	}
	for _, t := range extraTokens {
		tokens[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Extractor{aliasTokens: tokens}
}

// Extract implements the host-supplied NER callback's fallback: it
// splits transcript into clauses and, for each clause containing a
// known alias token, builds one DrugMention carrying whatever dose,
// route, and species evidence also appears in that clause.
func (e *Extractor) Extract(transcript string) []types.DrugMention {
	var mentions []types.DrugMention

	for _, clause := range clauseSplit.Split(transcript, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}

		drugName, ok := e.findAliasToken(clause)
		if !ok {
			continue
		}

		m := types.DrugMention{RawName: drugName}
		if dose, unit, found := findDose(clause); found {
			d := dose
			m.Dose = &d
			m.Unit = unit
		}
		if route, found := findKeyword(clause, routeKeywords); found {
			m.Route = route
		}
		if species, found := findKeyword(clause, speciesKeywords); found {
			m.Species = species
		}
		mentions = append(mentions, m)
	}

	return mentions
}

// findAliasToken returns the first word in clause that matches a known
// alias spelling. A hyphenated word is tried whole first (so hyphenated
// extra tokens match), then part by part.
func (e *Extractor) findAliasToken(clause string) (string, bool) {
	for _, word := range wordSplit.Split(strings.ToLower(clause), -1) {
		word = strings.Trim(word, "-")
		if word == "" {
			continue
		}
		if e.aliasTokens[word] {
			return word, true
		}
		for _, part := range strings.Split(word, "-") {
			if part != "" && e.aliasTokens[part] {
				return part, true
			}
		}
	}
	return "", false
}

func findDose(clause string) (dose float64, unit string, found bool) {
	m := doseRegex.FindStringSubmatch(clause)
	if m == nil {
		return 0, "", false
	}
	parsed, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return parsed, strings.ToLower(m[2]), true
}

// findKeyword looks for the first keyword present in clause as a whole
// word (or whole phrase, for multi-word keywords like "by mouth") rather
// than a bare substring — plain strings.Contains would match "im" inside
// "rimadyl" or "po" inside "promace" and misclassify the route.
func findKeyword(clause string, keywords []string) (string, bool) {
	lower := strings.ToLower(clause)
	for _, kw := range keywords {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		if re.MatchString(lower) {
			return kw, true
		}
	}
	return "", false
}
