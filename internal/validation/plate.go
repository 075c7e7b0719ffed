package validation

import (
	"regexp"
	"strings"
)

const (
	PlateFormatLegacy  = "legacy"  // AA1234
	PlateFormatCurrent = "current" // BBBB12
)

var (
	legacyPlate  = regexp.MustCompile(`^[A-Z]{2}[0-9]{4}$`)
	currentPlate = regexp.MustCompile(`^[A-Z]{4}[0-9]{2}$`)
)

// NormalizePlate trims, upper-cases and removes hyphens and spaces.
func NormalizePlate(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, " ", "")
}

// PlateFormat returns which accepted format the normalized plate matches, or "".
func PlateFormat(raw string) string {
	p := NormalizePlate(raw)

	switch {
	case legacyPlate.MatchString(p):
		return PlateFormatLegacy
	case currentPlate.MatchString(p):
		return PlateFormatCurrent
	default:
		return ""
	}
}

func IsValidPlate(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	return PlateFormat(raw) != ""
}
