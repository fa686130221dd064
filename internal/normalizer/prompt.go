package normalizer

import (
	"fmt"
	"strings"

	"github.com/bpmigrate/internal/model"
	"github.com/bpmigrate/internal/postal"
)

const systemPrompt = "You correct postal address data for a bulk customer import. " +
	"You answer with strict JSON only, without explanations or code fences."

const rules = `Rules:
- "city": the correctly spelled city or town name, without postcode or district.
- "province_code": the ISO 3166-2 subdivision code WITHOUT the country prefix (for example "M", not "ES-M"). For addresses in the United States use the standard two-letter state code (for example "CA"). Use "" when the country has no provinces or it cannot be determined.
- Every object has exactly the two keys "city" and "province_code", both strings.`

func batchPrompt(addrs []model.Address, hints bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Normalize the city and province of the following %d addresses.\n\n%s\n", len(addrs), rules)
	fmt.Fprintf(&b, "- Return a JSON array with exactly %d objects in the same order as the addresses.\n\nAddresses:\n", len(addrs))
	for i, a := range addrs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, describe(a, hints))
	}
	return b.String()
}

func singlePrompt(a model.Address, hints bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Normalize the city and province of this address.\n\n%s\n", rules)
	b.WriteString("- Return one JSON object.\n\nAddress:\n")
	b.WriteString(describe(a, hints))
	b.WriteString("\n")
	return b.String()
}

func describe(a model.Address, hints bool) string {
	s := fmt.Sprintf("Line 1: %s | Line 2: %s | City: %s | Province/State: %s | Postcode: %s | Country: %s",
		a.Line1, a.Line2, a.City, a.ProvinceRaw(), a.Postcode, a.Country)
	if hints {
		if c := postal.ParseRecord(a); !c.Empty() {
			s += " | Parsed: " + c.Hint()
		}
	}
	return s
}
