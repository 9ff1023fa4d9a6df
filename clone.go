package medhist

import "bytes"

// Cloner copies a value into storage owned by the receiver. Histograms clone a
// value when it first becomes a distinct entry and again when it is returned
// from a rank query, so callers may reuse their buffers.
type Cloner[V any] func(V) V

// Identity is the Cloner for values that carry no references, or whose
// referents are immutable (strings).
func Identity[V any](v V) V {
	return v
}

// CloneBytes deep-copies a byte slice. nil stays nil.
func CloneBytes(b []byte) []byte {
	return bytes.Clone(b)
}
