// Package uid generates identifiers: sortable numeric ids, UUIDs and
// opaque random tokens.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
