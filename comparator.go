package medhist

import (
	"cmp"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator is a three-way total order: negative if a < b, zero if a and b
// are equivalent, positive if a > b.
type Comparator[V any] func(a, b V) int

// Natural orders values with cmp.Compare. NaN sorts before every other float.
func Natural[V cmp.Ordered]() Comparator[V] {
	return cmp.Compare[V]
}

// Reverse inverts c.
func Reverse[V any](c Comparator[V]) Comparator[V] {
	return func(a, b V) int { return c(b, a) }
}

// Collated orders strings by the collation rules of tag. Strings that
// differ only in code points the collation ignores compare equal and so
// share one histogram entry; wrap the result with Deterministic to keep
// them apart.
// The returned comparator keeps scratch buffers and must not be shared
// between goroutines.
func Collated(tag language.Tag, opts ...collate.Option) Comparator[string] {
	c := collate.New(tag, opts...)
	return c.CompareString
}

// Deterministic breaks the ties of c bytewise, so only identical strings
// compare equal.
func Deterministic(c Comparator[string]) Comparator[string] {
	return func(a, b string) int {
		if r := c(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}
}

// Context binds an order and the locale it was derived for.
// It is immutable once created.
type Context[V any] struct {
	order  Comparator[V]
	locale language.Tag
}

// NewContext returns a Context for order. It panics if order is nil.
func NewContext[V any](order Comparator[V], locale language.Tag) Context[V] {
	if order == nil {
		panic("medhist: nil comparator")
	}
	return Context[V]{order: order, locale: locale}
}

// Ordered is shorthand for NewContext(Natural[V](), language.Und).
func Ordered[V cmp.Ordered]() Context[V] {
	return NewContext(Natural[V](), language.Und)
}

// Compare applies the bound order.
func (c Context[V]) Compare(a, b V) int {
	return c.order(a, b)
}

// Locale returns the locale the order was bound for.
func (c Context[V]) Locale() language.Tag {
	return c.locale
}
