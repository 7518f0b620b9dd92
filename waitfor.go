package async2

import "time"

// WaitFor returns a task that completes once child does, or cancels child
// and completes (with ErrCode() == ECANCELED) once timeout has elapsed
// since WaitFor itself was first stepped — whichever happens first. A
// timeout <= 0 means wait indefinitely. If child was never scheduled, it is
// scheduled onto the current event loop (see SetEventLoop); if that
// scheduling fails (ENOMEM), the returned task completes immediately with
// ErrCode() == ENOMEM and never takes a reference on child.
//
// WaitFor registers its own cancel callback so that, if it is itself
// cancelled before it ever gets a chance to step — the pre-yield race the
// reference runtime's wait_for guards against — child is still cancelled
// and released rather than left orphaned and running forever.
func WaitFor(child *Task, timeout time.Duration) *Task {
	schedFailed := false
	if !child.scheduled() {
		if l := GetEventLoop(); l != nil && l.AddTask(child) == nil {
			schedFailed = true
		}
	}
	if !schedFailed {
		child.IncRef()
	}

	var deadline time.Time
	hasDeadline := timeout > 0
	timedOut := false

	w := NewTask(func(t *Task) Cont {
		if schedFailed {
			t.SetErr(ENOMEM)
			return ContDone
		}

		if t.cont == ContInit && hasDeadline {
			deadline = now().Add(timeout)
		}

		if child.Done() {
			if timedOut {
				t.SetErr(ECANCELED)
			} else {
				t.SetErr(child.ErrCode())
			}
			child.DecRef()
			return ContDone
		}

		if hasDeadline && !timedOut && !now().Before(deadline) {
			timedOut = true
			child.Cancel()
		}
		return ContCont
	}, child)

	w.SetCancelCallback(func(*Task) {
		if schedFailed {
			return
		}
		if !child.scheduled() {
			if l := GetEventLoop(); l != nil {
				l.AddTask(child)
			}
		}
		if !child.Done() {
			child.Cancel()
		}
		child.DecRef()
	})

	return w
}
