package normalize

import "strings"

// convertUnit converts a dose expressed in unit to milligrams, or to
// millilitres for volume units. The second
// return value is the canonical unit ("mg" or "mL"); an empty canonical
// unit means the input unit was unrecognized and dose passes through
// unconverted (still returned so callers can decide what to do with it).
func convertUnit(dose float64, unit string) (converted float64, canonical string, recognized bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mg":
		return dose, "mg", true
	case "ml", "cc":
		return dose, "mL", true
	case "mcg", "ug", "μg":
		return dose / 1000, "mg", true
	case "g":
		return dose * 1000, "mg", true
	default:
		return dose, "", false
	}
}
