package medhist

import "fmt"

// The functions below are the three entry points an aggregation engine
// drives: a transition per input row, an inverse transition per row leaving
// a moving window, and a final function producing the result. A nil state
// stands for "no row seen yet".

// Transition observes v, creating the state on the first call.
func Transition(state *Aggregate, v any, opts ...Option) (*Aggregate, error) {
	if state == nil {
		state = NewAggregate(opts...)
	}
	return state, state.Observe(v)
}

// Inverse forgets v. Engines without moving-window support never call it.
func Inverse(state *Aggregate, v any) (*Aggregate, error) {
	if state == nil {
		return nil, fmt.Errorf("inverse transition without state: %w", ErrContractViolation)
	}
	return state, state.Forget(v)
}

// Final returns the median, or false for an empty or missing state.
func Final(state *Aggregate) (any, bool) {
	if state == nil {
		return nil, false
	}
	return state.Finalize()
}
