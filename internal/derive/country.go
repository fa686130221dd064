package derive

import "strings"

// alpha3 maps the ISO 3166-1 alpha-3 codes seen in the Brightpearl data
// (Europe, the US and its territories) to alpha-2.
var alpha3 = map[string]string{
	"ALA": "AX", "ALB": "AL", "AND": "AD", "ARM": "AM", "AUT": "AT", "AZE": "AZ",
	"BEL": "BE", "BGR": "BG", "BIH": "BA", "BLR": "BY", "CHE": "CH", "CYP": "CY",
	"CZE": "CZ", "DEU": "DE", "DNK": "DK", "ESP": "ES", "EST": "EE", "FIN": "FI",
	"FRA": "FR", "FRO": "FO", "GBR": "GB", "GEO": "GE", "GGY": "GG", "GIB": "GI",
	"GRC": "GR", "HRV": "HR", "HUN": "HU", "IMN": "IM", "IRL": "IE", "ISL": "IS",
	"ITA": "IT", "JEY": "JE", "KAZ": "KZ", "LIE": "LI", "LTU": "LT", "LUX": "LU",
	"LVA": "LV", "MCO": "MC", "MDA": "MD", "MKD": "MK", "MLT": "MT", "MNE": "ME",
	"NLD": "NL", "NOR": "NO", "POL": "PL", "PRT": "PT", "ROU": "RO", "RUS": "RU",
	"SMR": "SM", "SRB": "RS", "SVK": "SK", "SVN": "SI", "SWE": "SE", "TUR": "TR",
	"UKR": "UA", "VAT": "VA", "XKX": "XK",
	"USA": "US", "ASM": "AS", "GUM": "GU", "MNP": "MP", "PRI": "PR", "UMI": "UM",
	"VIR": "VI",
}

// usStates maps upper-cased US state and territory names to their postal code.
var usStates = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
	"DISTRICT OF COLUMBIA": "DC", "FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI",
	"IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA",
	"KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME",
	"MARYLAND": "MD", "MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN",
	"MISSISSIPPI": "MS", "MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE",
	"NEVADA": "NV", "NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM",
	"NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH",
	"OKLAHOMA": "OK", "OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI",
	"SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX",
	"UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA",
	"WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
	"AMERICAN SAMOA": "AS", "GUAM": "GU", "NORTHERN MARIANA ISLANDS": "MP",
	"PUERTO RICO": "PR", "U.S. VIRGIN ISLANDS": "VI", "US VIRGIN ISLANDS": "VI",
}

// CountryCode converts a raw country field to ISO alpha-2.
//
// Two-letter input is returned upper-cased, known alpha-3 codes are mapped,
// and anything else is tried as a US state name (some US records carry the
// state in the country field). Unrecognised input yields "". The function is
// idempotent: CountryCode(CountryCode(x)) == CountryCode(x).
func CountryCode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) == 2 && isASCIILetters(s) {
		return s
	}
	if len(s) == 3 {
		if code, ok := alpha3[s]; ok {
			return code
		}
	}
	if code, ok := usStates[s]; ok {
		return code
	}
	return ""
}

// StateCode maps a US state name, or an existing two-letter code, to the
// two-letter postal code. ok is false when nothing matches.
func StateCode(name string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if code, ok := usStates[s]; ok {
		return code, true
	}
	if len(s) == 2 && isASCIILetters(s) {
		for _, code := range usStates {
			if code == s {
				return s, true
			}
		}
	}
	return "", false
}

// IsUS reports whether a converted country code belongs to the US or one of
// the territories that use state-style codes.
func IsUS(code string) bool {
	switch code {
	case "US", "PR", "GU", "VI", "AS", "MP", "UM":
		return true
	}
	return false
}

func isASCIILetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
