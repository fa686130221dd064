//go:build libpostal

package postal

import (
	"strings"

	postal "github.com/openvenues/gopostal/parser"
)

// Parse runs libpostal over address.
func Parse(address string) Components {
	c := Components{Method: "libpostal"}
	if strings.TrimSpace(address) == "" {
		return c
	}
	for _, comp := range postal.ParseAddress(address) {
		switch comp.Label {
		case "house_number":
			c.HouseNumber = comp.Value
		case "road":
			c.Road = comp.Value
		case "city", "suburb":
			if c.City == "" || comp.Label == "city" {
				c.City = comp.Value
			}
		case "state", "state_district":
			if c.State == "" || comp.Label == "state" {
				c.State = comp.Value
			}
		case "postcode":
			c.Postcode = comp.Value
		case "country":
			c.Country = comp.Value
		}
	}
	return c
}
