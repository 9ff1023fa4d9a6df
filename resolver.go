package medhist

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/text/language"
)

// Resolver picks the order and ownership mode for values of a runtime type.
// Aggregate calls it once, with the type of the first observed value.
type Resolver interface {
	Resolve(t reflect.Type, locale language.Tag) (Comparator[any], Cloner[any], error)
}

type binding struct {
	order Comparator[any]
	clone Cloner[any]
}

// TypeResolver resolves the builtin scalar types, []byte, time.Time and any
// named type whose underlying kind is one of those. Other types can be added
// with Register. Strings are collated when the locale is not language.Und,
// with a bytewise tie-break so only identical strings share an entry.
type TypeResolver struct {
	custom map[reflect.Type]binding
}

// NewResolver returns a TypeResolver with no custom registrations.
func NewResolver() *TypeResolver {
	return &TypeResolver{custom: make(map[reflect.Type]binding)}
}

// Register binds order and clone to t, overriding the builtin resolution.
// A nil clone means values of t are held as-is.
func (r *TypeResolver) Register(t reflect.Type, order Comparator[any], clone Cloner[any]) {
	if clone == nil {
		clone = Identity[any]
	}
	r.custom[t] = binding{order: order, clone: clone}
}

// Resolve implements Resolver.
func (r *TypeResolver) Resolve(t reflect.Type, locale language.Tag) (Comparator[any], Cloner[any], error) {
	if t == nil {
		return nil, nil, fmt.Errorf("nil type: %w", ErrUnsupportedType)
	}
	if b, ok := r.custom[t]; ok {
		return b.order, b.clone, nil
	}
	if t == reflect.TypeFor[time.Time]() {
		return func(a, b any) int { return a.(time.Time).Compare(b.(time.Time)) }, Identity[any], nil
	}
	if t.Kind() == reflect.String && locale != language.Und {
		return collatedAny(locale, t), Identity[any], nil
	}
	if order, ok := builtin[t]; ok {
		return order, Identity[any], nil
	}
	if t == reflect.TypeFor[[]byte]() {
		return func(a, b any) int { return bytes.Compare(a.([]byte), b.([]byte)) }, cloneSlice, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).Int(), reflect.ValueOf(b).Int())
		}, Identity[any], nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).Uint(), reflect.ValueOf(b).Uint())
		}, Identity[any], nil
	case reflect.Float32, reflect.Float64:
		return func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float())
		}, Identity[any], nil
	case reflect.String:
		return func(a, b any) int {
			return cmp.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
		}, Identity[any], nil
	case reflect.Bool:
		return func(a, b any) int {
			return compareBool(reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool())
		}, Identity[any], nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(a, b any) int {
				return bytes.Compare(reflect.ValueOf(a).Bytes(), reflect.ValueOf(b).Bytes())
			}, cloneSlice, nil
		}
	}
	return nil, nil, fmt.Errorf("%s: %w", t, ErrUnsupportedType)
}

// builtin holds assertion-based comparators for the unnamed types, which
// avoid a reflect.Value per comparison.
var builtin = map[reflect.Type]Comparator[any]{
	reflect.TypeFor[int]():     orderedAny[int](),
	reflect.TypeFor[int8]():    orderedAny[int8](),
	reflect.TypeFor[int16]():   orderedAny[int16](),
	reflect.TypeFor[int32]():   orderedAny[int32](),
	reflect.TypeFor[int64]():   orderedAny[int64](),
	reflect.TypeFor[uint]():    orderedAny[uint](),
	reflect.TypeFor[uint8]():   orderedAny[uint8](),
	reflect.TypeFor[uint16]():  orderedAny[uint16](),
	reflect.TypeFor[uint32]():  orderedAny[uint32](),
	reflect.TypeFor[uint64]():  orderedAny[uint64](),
	reflect.TypeFor[float32](): orderedAny[float32](),
	reflect.TypeFor[float64](): orderedAny[float64](),
	reflect.TypeFor[string]():  orderedAny[string](),
	reflect.TypeFor[bool]():    func(a, b any) int { return compareBool(a.(bool), b.(bool)) },
}

func orderedAny[T cmp.Ordered]() Comparator[any] {
	return func(a, b any) int { return cmp.Compare(a.(T), b.(T)) }
}

func collatedAny(locale language.Tag, t reflect.Type) Comparator[any] {
	c := Deterministic(Collated(locale))
	if t == reflect.TypeFor[string]() {
		return func(a, b any) int { return c(a.(string), b.(string)) }
	}
	return func(a, b any) int {
		return c(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// cloneSlice deep-copies a byte slice of any named or unnamed slice type.
func cloneSlice(v any) any {
	if b, ok := v.([]byte); ok {
		return CloneBytes(b)
	}
	src := reflect.ValueOf(v)
	if src.IsNil() {
		return v
	}
	dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(dst, src)
	return dst.Interface()
}
