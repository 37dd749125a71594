// Package uid holds the identifier generators: snowflakes for row
// ids, UUIDs for correlation ids and token ids, and a hex object id
// for storage keys that must sort by creation time.
package uid

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
