package derive

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// trunkZero lists countries whose national numbers carry a leading 0 that is
// dropped in international format. Italy, San Marino and the Vatican keep it.
var trunkZero = map[string]bool{
	"AL": true, "AT": true, "BA": true, "BE": true, "BG": true, "CH": true,
	"DE": true, "FI": true, "FR": true, "GB": true, "GG": true, "HR": true,
	"IE": true, "IM": true, "JE": true, "ME": true, "MK": true, "NL": true,
	"PL": true, "RO": true, "RS": true, "SE": true, "SI": true, "SK": true,
	"TR": true, "UA": true,
}

// Phone normalizes a phone number to E.164 for the given country (alpha-2
// or alpha-3). ok is false when the number cannot be normalized, in which
// case the original input is returned unchanged.
func Phone(phone, country string) (string, bool) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return phone, false
	}
	if strings.HasPrefix(trimmed, "+") {
		return trimmed, true
	}

	digits := onlyDigits(trimmed)
	if digits == "" {
		return phone, false
	}
	if strings.HasPrefix(digits, "00") && len(digits) > 4 {
		return "+" + digits[2:], true
	}

	cc := CountryCode(country)
	n := phonenumbers.GetCountryCodeForRegion(cc)
	if n == 0 {
		return phone, false
	}
	code := strconv.Itoa(n)
	if strings.HasPrefix(digits, code) && len(digits) > len(code)+6 {
		return "+" + digits, true
	}

	switch {
	case cc == "ES":
		if len(digits) != 9 || !strings.ContainsRune("6789", rune(digits[0])) {
			return phone, false
		}
	case code == "1":
		if len(digits) == 11 && digits[0] == '1' {
			digits = digits[1:]
		}
		if len(digits) != 10 {
			return phone, false
		}
	case trunkZero[cc]:
		digits = strings.TrimPrefix(digits, "0")
	}

	return "+" + code + digits, true
}
