package derive

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DedupKey reduces an address line to its case-folded letters and digits.
// It is only ever compared for equality, never displayed.
func DedupKey(line string) string {
	folded := cases.Fold().String(line)
	b := strings.Builder{}
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostalCode zero-pads Spanish postcodes to five digits after dropping
// everything that is not a digit. Postcodes of other countries, and Spanish
// values without any digit, are returned unchanged.
func PostalCode(postcode, country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "ES", "ESP":
	default:
		return postcode
	}

	digits := onlyDigits(postcode)
	if digits == "" {
		return postcode
	}
	for len(digits) < 5 {
		digits = "0" + digits
	}
	return digits
}

// StripProvincePrefix turns an ISO 3166-2 style "ES-M" into "M". Values
// without a hyphen are only trimmed.
func StripProvincePrefix(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.LastIndex(code, "-"); i >= 0 {
		return strings.TrimSpace(code[i+1:])
	}
	return code
}

func onlyDigits(s string) string {
	b := strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
