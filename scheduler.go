package async2

import "time"

// runPass executes one scheduler pass over every table slot, applying the
// reference runtime's decision tree in strict priority order per slot: reap,
// then propagate cancellation, then step, otherwise leave the slot
// untouched until the next pass.
func (l *Loop) runPass() {
	start := time.Now()
	defer l.recordPass(start)

	for i := 0; i < l.events.Len(); i++ {
		s := l.events.At(i)
		if s == nil {
			continue
		}

		switch {
		case s.refcnt == 0:
			i = l.reap(i, s)

		case s.errCode != ECANCELED && s.flags&flagCancelRequested != 0:
			l.propagateCancellation(s)

		case !s.Done() && (s.next == nil || s.next.Done()):
			// step itself releases the task's self-reference on the
			// transition into DONE (see Task.step), so it survives only as
			// long as something else (a combinator, a caller) still holds
			// one.
			s.step()
		}
	}

	if l.cfg.StopOnFirstError {
		l.cancelOnFirstError()
	}
}

// destroyPass has the same skeleton as runPass, except a live, not-yet-
// cancelled task is unconditionally cancelled instead of stepped, and its
// slot is revisited immediately so the cancellation cascade (and eventual
// reap) completes without waiting for a fresh outer pass.
func (l *Loop) destroyPass() {
	for i := 0; i < l.events.Len(); i++ {
		s := l.events.At(i)
		if s == nil {
			continue
		}

		switch {
		case s.refcnt == 0:
			i = l.reap(i, s)

		case s.errCode != ECANCELED && s.flags&flagCancelRequested != 0:
			l.propagateCancellation(s)

		case !s.Cancelled():
			s.Cancel()
			i--
		}
	}
}

// reap finalizes a zero-refcount slot: it runs the task's cancel callback if
// it never got the chance to finish normally, releases its deferred-free
// list, and recycles the slot — onto the vacant stack when possible, or by
// splicing the table down by one when the vacant stack itself cannot grow
// (ENOMEM). It returns the loop index the caller's for-loop should resume
// from, which differs from i only in the splice case.
func (l *Loop) reap(i int, s *Task) int {
	FreeTask(s)
	l.mtr.reaped.Add(1)

	if l.vacant.Push(i) {
		l.events.Set(i, nil)
		return i
	}
	l.events.Splice(i, 1)
	return i - 1
}

// propagateCancellation converts an edge-triggered cancellation flag into
// the full protocol: the task's own cancel callback runs (if it hasn't
// finished), its reference is released, any awaited child is released and
// cancelled in turn, the error code is force-set to ECANCELED even if a
// different error was already recorded, and the task is marked done.
func (l *Loop) propagateCancellation(s *Task) {
	if !s.Done() {
		s.DecRef()
		if s.cancelCB != nil {
			s.cancelCB(s)
		}
	}
	if s.next != nil {
		s.next.DecRef()
		s.next.Cancel()
	}
	s.errCode = ECANCELED
	s.cont = ContDone
	l.mtr.cancelled.Add(1)
}

// cancelOnFirstError scans the table for a task that has finished (and is
// not yet reaped) with a non-OK, non-cancellation error and, if found,
// requests cancellation on every other live task. Grounded on the reference Go library's StopOnError
// config knob, adapted from "stop submitting new work" to "cancel work in
// flight" since this runtime has no separate submission queue.
func (l *Loop) cancelOnFirstError() {
	failed := false
	for i := 0; i < l.events.Len(); i++ {
		if s := l.events.At(i); s != nil && s.Done() && s.errCode != OK && s.errCode != ECANCELED {
			failed = true
			break
		}
	}
	if !failed {
		return
	}
	for i := 0; i < l.events.Len(); i++ {
		if s := l.events.At(i); s != nil && !s.Done() {
			s.Cancel()
		}
	}
}
