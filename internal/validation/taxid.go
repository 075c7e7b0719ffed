package validation

import "strings"

// NormalizeTaxID trims, drops '.' and '-' separators and upper-cases the check character.
func NormalizeTaxID(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(s)
}

// IsValidTaxID reports whether raw carries a numeric body followed by the
// correct mod-11 check character ('0'-'9' or 'K').
func IsValidTaxID(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}

	clean := NormalizeTaxID(raw)
	if len(clean) < 2 {
		return false
	}

	body, given := clean[:len(clean)-1], clean[len(clean)-1]

	want, ok := TaxIDCheckDigit(body)
	if !ok {
		return false
	}

	return want == given
}

// TaxIDCheckDigit computes the check character for a numeric body. Weights run
// 2..7 from the least significant digit and wrap back to 2. The body is walked
// digit by digit so its length is not bounded by any integer type.
func TaxIDCheckDigit(body string) (byte, bool) {
	if body == "" {
		return 0, false
	}

	sum := 0
	weight := 2

	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, false
		}

		sum += int(c-'0') * weight

		if weight == 7 {
			weight = 2
		} else {
			weight++
		}
	}

	check := 11 - sum%11

	switch check {
	case 11:
		return '0', true
	case 10:
		return 'K', true
	default:
		return byte('0' + check), true
	}
}
