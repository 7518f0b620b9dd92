package async2

import "errors"

// Future wraps a Task with a typed result, the Go-idiomatic replacement for
// the reference Go library's Task[R]/TaskFunc[R] pair — adapted from a
// context-driven blocking call to a step function that may yield any number
// of times before producing a value.
type Future[R any] struct {
	task  *Task
	value R
	err   error
}

// Task exposes the underlying Task, e.g. to schedule it explicitly or
// compose it into a Gather/WaitFor call.
func (f *Future[R]) Task() *Task { return f.task }

// Done reports whether the future's task has finished.
func (f *Future[R]) Done() bool { return f.task.Done() }

// Value returns the future's result. It is the zero value of R until Done.
func (f *Future[R]) Value() R { return f.value }

// Err returns the error fn/extract produced, distinct from the task's
// coarse ErrorCode: it carries whatever error the caller's own function
// returned, not just OK/ENOMEM/ECANCELED/EInvalidState.
func (f *Future[R]) Err() error { return f.err }

// FutureFunc adapts a plain, non-yielding function into a single-step
// future — the common case for Collect/Map/ForEach, where each item's work
// completes in one call with no internal suspension.
func FutureFunc[R any](fn func() (R, error)) *Future[R] {
	f := &Future[R]{}
	f.task = NewTask(func(t *Task) Cont {
		v, err := fn()
		f.value, f.err = v, err
		if err != nil {
			t.SetErr(EInvalidState)
		}
		return ContDone
	}, nil)
	return f
}

// NewFuture wraps an existing task — typically one built from Sleep,
// WaitFor, Gather, or a hand-written multi-step StepFunc — with typed
// result extraction. extract runs once, when the wrapped step function
// first reports ContDone.
func NewFuture[R any](task *Task, extract func(*Task) (R, error)) *Future[R] {
	f := &Future[R]{task: task}
	inner := task.fn
	task.fn = func(t *Task) Cont {
		c := inner(t)
		if c == ContDone {
			f.value, f.err = extract(t)
		}
		return c
	}
	return f
}

// Collect drives the current event loop (see SetEventLoop) until every
// future in futures has completed, then returns their values in input
// order alongside an errors.Join of every non-nil Err — the analogue of the
// reference Go library's RunAll, adapted from completion order to input
// order since futures here are plain indexable values, not a channel of
// whatever finishes first.
func Collect[R any](futures ...*Future[R]) ([]R, error) {
	loop := GetEventLoop()
	tasks := make([]*Task, len(futures))
	for i, f := range futures {
		tasks[i] = f.task
	}
	g := GatherSlice(tasks)
	if loop != nil {
		loop.RunUntilComplete(g)
	}

	results := make([]R, len(futures))
	var errs []error
	for i, f := range futures {
		results[i] = f.Value()
		if err := f.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// Map fans out items through fn, collecting results in input order,
// mirroring the reference Go library's Map (itself built on RunAll).
func Map[T, R any](items []T, fn func(T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	futures := make([]*Future[R], len(items))
	for i := range items {
		item := items[i]
		futures[i] = FutureFunc(func() (R, error) { return fn(item) })
	}
	return Collect(futures...)
}

// ForEach applies fn to each item, returning an errors.Join of every
// non-nil error, mirroring the reference Go library's ForEach.
func ForEach[T any](items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}
	futures := make([]*Future[struct{}], len(items))
	for i := range items {
		item := items[i]
		futures[i] = FutureFunc(func() (struct{}, error) { return struct{}{}, fn(item) })
	}
	_, err := Collect(futures...)
	return err
}
