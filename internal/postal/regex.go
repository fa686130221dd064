//go:build !libpostal

package postal

import (
	"regexp"
	"strings"

	"github.com/bpmigrate/internal/derive"
)

var (
	ukPostcodePattern  = regexp.MustCompile(`(?i)\b([A-Z]{1,2}\d{1,2}[A-Z]?\s*\d[A-Z]{2})\b`)
	numPostcodePattern = regexp.MustCompile(`\b(\d{4,5}(?:-\d{4})?)\b`)
	leadingNumPattern  = regexp.MustCompile(`(?i)^\s*(\d+[A-Z]?)\b[\s,]*`)
	trailingNumPattern = regexp.MustCompile(`(?i)[\s,]+(\d+[A-Z]?)\s*$`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// Parse splits a comma separated address heuristically. The first part is
// the road, the last recognisable country and state names are peeled off
// the end and the part before them is taken as the city.
func Parse(address string) Components {
	c := Components{Method: "regex"}
	address = spacePattern.ReplaceAllString(strings.TrimSpace(address), " ")
	if address == "" {
		return c
	}

	var parts []string
	for _, p := range strings.Split(address, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	// Postcode: UK shape first, then numeric European/US shape.
	for i := len(parts) - 1; i >= 1; i-- {
		if m := ukPostcodePattern.FindString(parts[i]); m != "" {
			c.Postcode = strings.ToUpper(m)
			parts[i] = strings.TrimSpace(strings.Replace(parts[i], m, "", 1))
			break
		}
		if m := numPostcodePattern.FindString(parts[i]); m != "" {
			c.Postcode = m
			parts[i] = strings.TrimSpace(strings.Replace(parts[i], m, "", 1))
			break
		}
	}
	parts = compact(parts)

	if len(parts) > 1 {
		if code := derive.CountryCode(parts[len(parts)-1]); code != "" && !isUSStateName(parts[len(parts)-1]) {
			c.Country = code
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) > 2 {
		if code, ok := derive.StateCode(parts[len(parts)-1]); ok {
			c.State = code
			parts = parts[:len(parts)-1]
		}
	}

	road := parts[0]
	if m := leadingNumPattern.FindStringSubmatch(road); len(m) > 1 {
		c.HouseNumber = m[1]
		road = strings.TrimSpace(road[len(m[0]):])
	} else if m := trailingNumPattern.FindStringSubmatch(road); len(m) > 1 {
		c.HouseNumber = m[1]
		road = strings.TrimSpace(strings.TrimSuffix(road, m[0]))
	}
	c.Road = road

	if len(parts) > 1 {
		c.City = parts[len(parts)-1]
	}
	return c
}

func isUSStateName(s string) bool {
	_, ok := derive.StateCode(s)
	return ok && len(strings.TrimSpace(s)) != 2
}

func compact(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
