package lazy

import "fmt"

// Kind is the variant held by a Status.
type Kind uint8

const (
	KindPending  Kind = iota // nothing resolved yet
	KindComplete             // last fetch succeeded
	KindError                // last fetch failed
)

func (k Kind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Status is the tri-state result carried by every Value.
// The zero Status is pending.
type Status[T any] struct {
	kind  Kind
	value T
	err   error
}

func Pending[T any]() Status[T] {
	return Status[T]{kind: KindPending}
}

// Complete wraps a successful result. The value may itself be empty (a nil
// pointer for a deleted record), that is still a complete status.
func Complete[T any](value T) Status[T] {
	return Status[T]{kind: KindComplete, value: value}
}

// Failed wraps the cause of a failed fetch. Any earlier value is dropped.
func Failed[T any](err error) Status[T] {
	if err == nil {
		err = fmt.Errorf("lazy: failed status without a cause")
	}
	return Status[T]{kind: KindError, err: err}
}

func (s Status[T]) Kind() Kind { return s.kind }

func (s Status[T]) IsPending() bool  { return s.kind == KindPending }
func (s Status[T]) IsComplete() bool { return s.kind == KindComplete }
func (s Status[T]) IsError() bool    { return s.kind == KindError }

// Value returns the resolved value and whether the status is complete.
func (s Status[T]) Value() (T, bool) {
	return s.value, s.kind == KindComplete
}

// ValueOr returns the resolved value or fallback when not complete.
func (s Status[T]) ValueOr(fallback T) T {
	if s.kind == KindComplete {
		return s.value
	}
	return fallback
}

func (s Status[T]) Err() error { return s.err }

func (s Status[T]) String() string {
	switch s.kind {
	case KindComplete:
		return fmt.Sprintf("complete(%v)", s.value)
	case KindError:
		return fmt.Sprintf("error(%v)", s.err)
	default:
		return s.kind.String()
	}
}

// Match calls the handler for the variant held by s and returns its result.
// Nil handlers yield the zero R.
func Match[T, R any](
	s Status[T],
	onPending func() R,
	onComplete func(T) R,
	onError func(error) R,
) (r R) {
	switch s.kind {
	case KindComplete:
		if onComplete != nil {
			r = onComplete(s.value)
		}
	case KindError:
		if onError != nil {
			r = onError(s.err)
		}
	default:
		if onPending != nil {
			r = onPending()
		}
	}
	return r
}

// MapStatus converts the value of a complete status, keeping pending and
// error variants as they are.
func MapStatus[T, U any](s Status[T], fn func(T) U) Status[U] {
	switch s.kind {
	case KindComplete:
		return Complete(fn(s.value))
	case KindError:
		return Failed[U](s.err)
	default:
		return Pending[U]()
	}
}
