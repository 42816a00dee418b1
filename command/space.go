package command

import "strings"

// SpaceDelimited renders its items space-joined for Display, and as an
// argument vector for RevealArgs — the form the OS hand-off uses to exec a
// subprocess without ever constructing a single shell string that a secret
// could leak through.
type SpaceDelimited struct {
	Items []Atom
}

// NewSpaceDelimited builds a SpaceDelimited fragment.
func NewSpaceDelimited(items []Atom) SpaceDelimited {
	return SpaceDelimited{Items: items}
}

// Display joins each item's Display form with a single space.
func (s SpaceDelimited) Display() string {
	parts := make([]string, len(s.Items))
	for i, item := range s.Items {
		parts[i] = item.Display()
	}
	return strings.Join(parts, " ")
}

// RevealArgs returns the argument vector: one cleartext string per item,
// each either a plain token or the cleartext reveal of a structured
// fragment (CommaDelimited, EqualDelimited).
func (s SpaceDelimited) RevealArgs() []string {
	args := make([]string, len(s.Items))
	for i, item := range s.Items {
		args[i] = item.Reveal()
	}
	return args
}
