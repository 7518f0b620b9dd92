package async2

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error this package defines, matching
// the reference runtime's convention of namespacing library errors.
const Namespace = "async2"

// ErrorCode mirrors the reference runtime's four-way error classification.
// A Task's error code is never cleared once set away from OK.
type ErrorCode int

const (
	// OK means no error has occurred.
	OK ErrorCode = iota
	// ENOMEM means a growth or allocation operation failed.
	ENOMEM
	// ECANCELED means cancellation was observed by the scheduler.
	ECANCELED
	// EInvalidState means a caller misused the API (e.g. scheduling a nil
	// task, or awaiting a handle that was never scheduled).
	EInvalidState
)

// String renders the error code the way the reference runtime's
// async_strerror does.
func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case ENOMEM:
		return "MEMORY ALLOCATION ERROR"
	case ECANCELED:
		return "COROUTINE WAS CANCELLED"
	case EInvalidState:
		return "INVALID STATE WAS PASSED TO COROUTINE"
	default:
		return "UNKNOWN ERROR"
	}
}

var (
	// ErrNoMem is returned/wrapped when a growth operation was refused.
	ErrNoMem = errors.New(Namespace + ": allocation failed")
	// ErrCanceled is returned/wrapped when a task observes cancellation.
	ErrCanceled = errors.New(Namespace + ": task was cancelled")
	// ErrInvalidState is returned/wrapped on API misuse.
	ErrInvalidState = errors.New(Namespace + ": invalid task state")
)

func (c ErrorCode) sentinel() error {
	switch c {
	case OK:
		return nil
	case ENOMEM:
		return ErrNoMem
	case ECANCELED:
		return ErrCanceled
	case EInvalidState:
		return ErrInvalidState
	default:
		return fmt.Errorf("%s: %s", Namespace, c)
	}
}

// TaskError wraps a task failure with enough context to correlate it back
// to the task that produced it, the way the reference Go library's
// error_tagging wraps worker-task errors with task ID and index.
type TaskError struct {
	Code ErrorCode
	id   uint64
	err  error
}

func newTaskError(code ErrorCode, id uint64) error {
	if code == OK {
		return nil
	}
	return &TaskError{Code: code, id: id, err: code.sentinel()}
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %s", e.id, e.err.Error())
}

// Unwrap exposes the underlying sentinel so callers can use errors.Is
// against ErrCanceled, ErrNoMem, and ErrInvalidState.
func (e *TaskError) Unwrap() error { return e.err }

// TaskID returns the identifier of the task this error originated from.
func (e *TaskError) TaskID() uint64 { return e.id }
