package command

import "strings"

// CommaDelimited renders its items joined by ",": plain tokens, Secret
// atoms, or EqualDelimited pairs.
type CommaDelimited struct {
	Items []Atom
}

// NewCommaDelimited builds a CommaDelimited fragment.
func NewCommaDelimited(items []Atom) CommaDelimited {
	return CommaDelimited{Items: items}
}

// Display joins each item's Display form with ",".
func (c CommaDelimited) Display() string {
	parts := make([]string, len(c.Items))
	for i, item := range c.Items {
		parts[i] = item.Display()
	}
	return strings.Join(parts, ",")
}

// Reveal joins each item's Reveal form with "," into a single string.
func (c CommaDelimited) Reveal() string {
	parts := make([]string, len(c.Items))
	for i, item := range c.Items {
		parts[i] = item.Reveal()
	}
	return strings.Join(parts, ",")
}
