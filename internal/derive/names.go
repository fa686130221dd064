// Package derive holds the pure field rules applied while building import
// rows: name splitting, address dedup keys, country, province, postcode and
// phone normalization.
package derive

import (
	"strings"

	"github.com/rotisserie/eris"
)

// NamePolicy selects how a contact's single name field is split into the
// first/last name columns of the import.
type NamePolicy int

const (
	// NameFullAsLast keeps the whole name as the last name and leaves the
	// first name empty.
	NameFullAsLast NamePolicy = iota
	// NameFirstToken takes the first whitespace-separated token as the first
	// name and the rest as the last name.
	NameFirstToken
)

func (p NamePolicy) String() string {
	switch p {
	case NameFirstToken:
		return "first-token"
	default:
		return "full-as-last"
	}
}

// ParseNamePolicy reads the policy names accepted in configuration.
func ParseNamePolicy(s string) (NamePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full-as-last":
		return NameFullAsLast, nil
	case "first-token":
		return NameFirstToken, nil
	}
	return NameFullAsLast, eris.Errorf("derive: unknown name policy %q", s)
}

// SplitName returns (first, last) for name under policy. A blank name
// yields two empty strings under every policy.
func SplitName(policy NamePolicy, name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if policy == NameFirstToken {
		return parts[0], strings.Join(parts[1:], " ")
	}
	return "", strings.TrimSpace(name)
}
