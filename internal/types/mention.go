package types

// DrugMention is the resolver's input: one drug reference lifted from a
// transcript by the (external) NER step. It is never persisted directly —
// only as part of an EncounterDraft's ResolvedItems.
type DrugMention struct {
	RawName string
	Dose    *float64 // positive real, nil if not mentioned
	Unit    string    // as extracted, pre-conversion; may be ""
	Route   string    // as extracted, pre-canonicalization; may be ""
	Species string    // as extracted; may be ""
}

// Canonical route values produced by the Normalizer.
const (
	RoutePO  = "PO"
	RouteIM  = "IM"
	RouteIV  = "IV"
	RouteSQ  = "SQ"
	RouteTOP = "TOP"
)

// Canonical unit values produced by the Normalizer.
const (
	UnitMg = "mg"
	UnitML = "mL"
)

// NormalizedMention is the Normalizer's deterministic output.
type NormalizedMention struct {
	CanonicalName string
	DoseMg        *float64 // in the unit named by Unit (mg or mL); unconverted when Unit is ""; nil if no dose
	Unit          string   // UnitMg, UnitML, or "" if unrecognized/absent
	Route         string   // one of the Route* constants, or ""
	Species       string   // lower-cased passthrough, or ""
}
