package framegraph

import (
	"errors"
	"fmt"
)

// Contract violation sentinels. A violation is a bug in the calling stage,
// never a transient condition, so the frame graph reports it by panicking
// with a *ContractError wrapping one of these.
var (
	// ErrWrongPhase is reported when an operation is called outside the
	// phase it belongs to.
	ErrWrongPhase = errors.New("framegraph: operation not allowed in current phase")

	// ErrAlreadyCreated is reported when a handle is passed to a create
	// call twice in the same frame.
	ErrAlreadyCreated = errors.New("framegraph: resource already created this frame")

	// ErrDuplicateAccess is reported when a pass declares a second access
	// to the same resource.
	ErrDuplicateAccess = errors.New("framegraph: duplicate access declaration")

	// ErrStaleHandle is reported when a handle from an earlier frame is used.
	ErrStaleHandle = errors.New("framegraph: stale resource handle")

	// ErrInvalidHandle is reported for zero or foreign handles.
	ErrInvalidHandle = errors.New("framegraph: invalid resource handle")

	// ErrUndeclaredAccess is reported when a pass resolves a resource it
	// did not declare an access to.
	ErrUndeclaredAccess = errors.New("framegraph: resource not declared by pass")

	// ErrKindMismatch is reported when a texture handle is resolved as a
	// buffer or the other way around.
	ErrKindMismatch = errors.New("framegraph: resource kind mismatch")

	// ErrReadBeforeWrite is reported when the first access to a resource
	// is a read.
	ErrReadBeforeWrite = errors.New("framegraph: resource read before first write")

	// ErrDeclinedWithSideEffects is reported when a stage declines a frame
	// after creating resources or declaring accesses.
	ErrDeclinedWithSideEffects = errors.New("framegraph: declined pass has side effects")

	// ErrTooManyPasses is reported when a frame registers more than
	// MaxPasses passes.
	ErrTooManyPasses = errors.New("framegraph: too many passes")

	// ErrConcurrentSetup is reported when setup calls race from two
	// goroutines.
	ErrConcurrentSetup = errors.New("framegraph: concurrent setup call")

	// ErrNilStage is reported when AddPass is given a nil stage.
	ErrNilStage = errors.New("framegraph: nil stage")
)

// ContractError is the panic value for contract violations.
type ContractError struct {
	// Op is the operation that detected the violation, e.g. "AddRead".
	Op string
	// Err wraps one of the sentinel errors.
	Err error
}

func (e *ContractError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ContractError) Unwrap() error { return e.Err }

// violate panics with a ContractError for op.
func violate(op string, sentinel error, format string, args ...any) {
	err := sentinel
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
	}
	panic(&ContractError{Op: op, Err: err})
}
