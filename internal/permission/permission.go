package permission

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCapability = errors.New("unknown capability")

// Capability is a named grant controlling which dashboard affordances are offered.
type Capability string

const (
	Create Capability = "CREATE"
	Read   Capability = "READ"
	Update Capability = "UPDATE"
	Delete Capability = "DELETE"
)

// All lists every capability in display order.
func All() []Capability {
	return []Capability{Create, Read, Update, Delete}
}

func (c Capability) Valid() bool {
	switch c {
	case Create, Read, Update, Delete:
		return true
	}
	return false
}

// Has reports whether set grants required. It is the only membership check the
// dashboard uses.
func Has(set []Capability, required Capability) bool {
	for _, c := range set {
		if c == required {
			return true
		}
	}
	return false
}

// Parse reads a comma separated list such as "CREATE,READ".
func Parse(list string) ([]Capability, error) {
	return Normalize(strings.Split(list, ","))
}

// Normalize turns raw tokens into capabilities. Tokens are case-insensitive,
// blanks are skipped and duplicates collapse.
func Normalize(tokens []string) ([]Capability, error) {
	caps := []Capability{}
	for _, token := range tokens {
		token = strings.ToUpper(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		c := Capability(token)
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, token)
		}
		if !Has(caps, c) {
			caps = append(caps, c)
		}
	}
	return caps, nil
}
