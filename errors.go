package lsearch

import "fmt"

// Kind classifies the taxonomy of failures a Search or its collaborators
// can raise. The taxonomy is semantic, not a type hierarchy: every failure
// surfaces as an *Error with one of these Kinds.
type Kind int

const (
	// KindBadStatus: a configuration mutator was called while the Search
	// was not IDLE, or an invalid status transition was attempted.
	KindBadStatus Kind = iota
	// KindIncompatibleSolution: a Problem/Neighbourhood cannot operate on
	// the supplied Solution.
	KindIncompatibleSolution
	// KindIncompatibleMove: a Move cannot be applied to the given Solution.
	KindIncompatibleMove
	// KindIncompatibleDeltaEvaluation: delta-evaluation disagreed with full
	// recomputation beyond tolerance.
	KindIncompatibleDeltaEvaluation
	// KindIncompatibleDeltaValidation: delta-validation disagreed with full
	// recomputation beyond tolerance.
	KindIncompatibleDeltaValidation
	// KindIncompatibleSearchListener: a listener cast failed in a
	// specialized callback.
	KindIncompatibleSearchListener
	// KindInterrupted: the coordinator or a replica was interrupted while
	// waiting on concurrent work.
	KindInterrupted
	// KindSearchError: a generic wrapper for strategy-specific failures
	// that don't fit a more specific Kind.
	KindSearchError
)

func (k Kind) String() string {
	switch k {
	case KindBadStatus:
		return "BadStatus"
	case KindIncompatibleSolution:
		return "IncompatibleSolution"
	case KindIncompatibleMove:
		return "IncompatibleMove"
	case KindIncompatibleDeltaEvaluation:
		return "IncompatibleDeltaEvaluation"
	case KindIncompatibleDeltaValidation:
		return "IncompatibleDeltaValidation"
	case KindIncompatibleSearchListener:
		return "IncompatibleSearchListener"
	case KindInterrupted:
		return "Interrupted"
	case KindSearchError:
		return "SearchError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type raised by this package. Op names the
// operation that failed (e.g. "NeighbourhoodSearch.SetNeighbourhood"); Err, if non-nil,
// is the underlying cause and is exposed via Unwrap for errors.As/errors.Is.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lsearch: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("lsearch: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches against another *Error by Kind, so callers can write
// errors.Is(err, lsearch.ErrBadStatus) regardless of Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrBadStatus                     = &Error{Kind: KindBadStatus}
	ErrIncompatibleSolution          = &Error{Kind: KindIncompatibleSolution}
	ErrIncompatibleMove              = &Error{Kind: KindIncompatibleMove}
	ErrIncompatibleDeltaEvaluation   = &Error{Kind: KindIncompatibleDeltaEvaluation}
	ErrIncompatibleDeltaValidation   = &Error{Kind: KindIncompatibleDeltaValidation}
	ErrIncompatibleSearchListener    = &Error{Kind: KindIncompatibleSearchListener}
	ErrInterrupted                   = &Error{Kind: KindInterrupted}
	ErrSearchError                   = &Error{Kind: KindSearchError}
)

// newError builds an *Error for op, wrapping cause (which may be nil).
func newError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// NewError is the exported form of newError, for use by packages outside
// lsearch (concrete strategies, the tempering coordinator) that need to
// raise taxonomy-classified errors of their own, e.g. KindInterrupted when
// a replica batch is cancelled.
func NewError(kind Kind, op string, cause error) *Error {
	return newError(kind, op, cause)
}
