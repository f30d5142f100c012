package model

import "strings"

// refDelimiter joins purchase ids inside a provider reference string. The
// string is opaque to the provider and must round-trip byte for byte.
const refDelimiter = ","

// Reference is the ordered list of purchase ids a single provider payment
// settles. A single-product checkout carries one id; a bundle carries one id
// per not-yet-owned constituent.
type Reference []string

// NewReference copies ids into a Reference, dropping empties.
func NewReference(ids ...string) Reference {
	out := make(Reference, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// ParseReference splits a provider-round-tripped reference string back into
// purchase ids. The inverse of Encode.
func ParseReference(s string) Reference {
	if s == "" {
		return nil
	}
	return NewReference(strings.Split(s, refDelimiter)...)
}

// Encode serializes the reference for the provider.
func (r Reference) Encode() string {
	return strings.Join(r, refDelimiter)
}

func (r Reference) Empty() bool { return len(r) == 0 }
