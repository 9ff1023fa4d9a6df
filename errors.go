package medhist

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation reports a call sequence the aggregate protocol forbids,
	// such as Forget before any Observe. Callers should abort the computation.
	ErrContractViolation = errors.New("contract violation")

	// ErrNotPresent is returned by Forget for a value that is not held.
	ErrNotPresent = fmt.Errorf("%w: value not present", ErrContractViolation)

	// ErrTypeMismatch is returned when a value's type differs from the type
	// the comparator was bound to.
	ErrTypeMismatch = errors.New("value type does not match bound type")

	// ErrUnsupportedType is returned when no comparator can be resolved for a type.
	ErrUnsupportedType = errors.New("unsupported value type")

	// ErrOverflow is returned when a count would exceed the representable range.
	ErrOverflow = errors.New("count overflow")

	// ErrCorrupt is returned when decoded state violates the histogram invariants.
	ErrCorrupt = errors.New("corrupt histogram state")

	// ErrUnordered is returned by SnapshotBuilder.PushBack for out-of-order values
	// and by Merge for a shard ordered differently from the receiver.
	ErrUnordered = errors.New("values not in strictly ascending order")
)
