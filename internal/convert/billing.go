package convert

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bpmigrate/internal/model"
)

// BillingPolicy picks the billing address of a contact.
type BillingPolicy int

const (
	// BillingFirst takes the first billing address in file order.
	BillingFirst BillingPolicy = iota
	// BillingPreferDefault takes the first billing address flagged as
	// default, falling back to BillingFirst.
	BillingPreferDefault
)

func (p BillingPolicy) String() string {
	if p == BillingPreferDefault {
		return "prefer-default"
	}
	return "first"
}

func ParseBillingPolicy(s string) (BillingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return BillingFirst, nil
	case "prefer-default":
		return BillingPreferDefault, nil
	}
	return BillingFirst, eris.Errorf("convert: unknown billing policy %q", s)
}

// pick returns the billing address among addrs, or false if there is none.
func (p BillingPolicy) pick(addrs []model.Address) (model.Address, bool) {
	first, found := model.Address{}, false
	for _, a := range addrs {
		if !a.IsBilling {
			continue
		}
		if p == BillingPreferDefault && a.IsDefault {
			return a, true
		}
		if !found {
			first, found = a, true
			if p == BillingFirst {
				break
			}
		}
	}
	return first, found
}
