// Package foundation holds small generic helpers shared by the config layer.
package foundation

import (
	"strings"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps user-supplied strings onto a closed set of enum values,
// ignoring case and surrounding whitespace.
type Normalizer[T comparable] struct {
	values map[string]T
}

// NewNormalizer creates a normalizer from a map of spelling to value.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}
	return &Normalizer[T]{values: normalized}
}

// Lookup returns the value for raw and whether it was recognised.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[normalizeKey(raw)]
	return v, ok
}

// Normalize returns the value for raw or the zero value when unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	v, _ := n.Lookup(raw)
	return v
}
