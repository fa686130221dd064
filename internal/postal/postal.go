// Package postal splits a free-text address into labelled components. With
// the libpostal build tag it uses gopostal; otherwise a regex parser.
package postal

import (
	"strings"

	"github.com/bpmigrate/internal/model"
)

// Components are the parts of an address the normalizer cares about.
type Components struct {
	HouseNumber string
	Road        string
	City        string
	State       string
	Postcode    string
	Country     string
	// Method is "libpostal" or "regex".
	Method string
}

// Empty reports whether nothing was extracted.
func (c Components) Empty() bool {
	return c.HouseNumber == "" && c.Road == "" && c.City == "" && c.State == "" && c.Postcode == "" && c.Country == ""
}

// Hint renders the components as a compact "label=value" list for a prompt.
func (c Components) Hint() string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+"="+value)
		}
	}
	add("road", c.Road)
	add("house_number", c.HouseNumber)
	add("city", c.City)
	add("state", c.State)
	add("postcode", c.Postcode)
	add("country", c.Country)
	return strings.Join(parts, "; ")
}

// Join flattens an address record into one line in the order a postal
// parser expects.
func Join(a model.Address) string {
	var parts []string
	for _, p := range []string{a.Line1, a.Line2, a.Line3, a.Line4, a.City, a.Postcode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseRecord parses an address record.
func ParseRecord(a model.Address) Components {
	return Parse(Join(a))
}
