package normalize

import (
	"strings"

	"github.com/clinistack/vetcore/internal/types"
)

// routeKeywords maps every recognized case-insensitive phrase to its
// canonical route tag. Keys are matched after lower-casing and trimming.
var routeKeywords = map[string]string{
	"po":             types.RoutePO,
	"orally":         types.RoutePO,
	"by mouth":       types.RoutePO,
	"oral":           types.RoutePO,
	"sq":             types.RouteSQ,
	"subq":           types.RouteSQ,
	"subcutaneous":   types.RouteSQ,
	"subcutaneously": types.RouteSQ,
	"im":             types.RouteIM,
	"intramuscular":  types.RouteIM,
	"intramuscularly": types.RouteIM,
	"iv":             types.RouteIV,
	"intravenous":    types.RouteIV,
	"intravenously":  types.RouteIV,
	"topical":        types.RouteTOP,
	"topically":      types.RouteTOP,
}

// canonicalRoute maps a raw route string to one of the Route* constants,
// or "" if nothing matches.
func canonicalRoute(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if canon, ok := routeKeywords[key]; ok {
		return canon
	}
	return ""
}
