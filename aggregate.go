package medhist

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"golang.org/x/text/language"
)

type aggState int

const (
	uninitialized aggState = iota
	active
)

// Option configures an Aggregate.
type Option func(*Aggregate)

// WithResolver sets the Resolver used to bind the comparator.
// The default is NewResolver().
func WithResolver(r Resolver) Option {
	return func(a *Aggregate) { a.resolver = r }
}

// WithLocale sets the locale handed to the Resolver. The default,
// language.Und, orders strings bytewise.
func WithLocale(tag language.Tag) Option {
	return func(a *Aggregate) { a.locale = tag }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregate) { a.log = l }
}

// Aggregate is an incremental, undoable median over values whose type is
// known only at run time. The comparator and ownership mode are resolved
// from the type of the first non-nil value observed; every later value must
// have exactly that type.
//
// nil values are skipped by Observe and Forget.
type Aggregate struct {
	state    aggState
	typ      reflect.Type
	hist     *Histogram[any]
	resolver Resolver
	locale   language.Tag
	log      *slog.Logger
}

// NewAggregate returns an uninitialized Aggregate.
func NewAggregate(opts ...Option) *Aggregate {
	a := &Aggregate{
		resolver: NewResolver(),
		locale:   language.Und,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Observe adds one occurrence of v, binding the comparator on the first call.
func (a *Aggregate) Observe(v any) error {
	if v == nil {
		return nil
	}
	t := reflect.TypeOf(v)
	if a.state == uninitialized {
		order, clone, err := a.resolver.Resolve(t, a.locale)
		if err != nil {
			return fmt.Errorf("observe: %w", err)
		}
		a.hist = New(NewContext(order, a.locale), clone)
		a.typ = t
		a.state = active
		a.log.Debug("comparator bound", "type", t.String(), "locale", a.locale.String())
	} else if t != a.typ {
		return a.mismatch("observe", t)
	}
	return a.hist.Insert(v)
}

// Forget removes one occurrence of v, undoing an earlier Observe.
// It returns an error wrapping ErrContractViolation if nothing was ever
// observed or v is not currently held.
func (a *Aggregate) Forget(v any) error {
	if v == nil {
		return nil
	}
	if a.state == uninitialized {
		a.log.Warn("forget before observe", "type", fmt.Sprintf("%T", v))
		return fmt.Errorf("forget %T before any observe: %w", v, ErrContractViolation)
	}
	if t := reflect.TypeOf(v); t != a.typ {
		return a.mismatch("forget", t)
	}
	if !a.hist.Remove(v) {
		a.log.Warn("forget of value not held", "value", v)
		return fmt.Errorf("forget %v: %w", v, ErrNotPresent)
	}
	if a.log.Enabled(context.Background(), slog.LevelDebug) && a.hist.Count(v) == 0 {
		a.log.Debug("entry drained", "distinct", a.hist.Distinct())
	}
	return nil
}

// Finalize returns the median of the values held, or false when there are
// none. It does not modify the aggregate.
func (a *Aggregate) Finalize() (any, bool) {
	if a.state == uninitialized {
		return nil, false
	}
	return a.hist.Median()
}

// Active reports whether a comparator has been bound.
func (a *Aggregate) Active() bool {
	return a.state == active
}

// Type returns the bound value type, or nil before the first Observe.
func (a *Aggregate) Type() reflect.Type {
	return a.typ
}

// TotalWeight returns the number of occurrences held.
func (a *Aggregate) TotalWeight() uint64 {
	if a.state == uninitialized {
		return 0
	}
	return a.hist.TotalWeight()
}

// Histogram returns the underlying histogram, or nil before the first Observe.
func (a *Aggregate) Histogram() *Histogram[any] {
	return a.hist
}

// own returns a copy of v the aggregate's ownership mode would store.
func (a *Aggregate) own(v any) any {
	if a.state == uninitialized || v == nil {
		return v
	}
	return a.hist.clone(v)
}

func (a *Aggregate) mismatch(op string, t reflect.Type) error {
	a.log.Warn("value type mismatch", "op", op, "bound", a.typ.String(), "got", t.String())
	return fmt.Errorf("%s: %s, bound to %s: %w", op, t, a.typ, ErrTypeMismatch)
}
