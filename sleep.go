package async2

import "time"

// now is overridden in tests to drive wall-clock combinators deterministically.
var now = time.Now

// sleepYield is the shared body for Sleep(0): it yields exactly once before
// completing, giving every other scheduled task a turn. The reference
// runtime reuses a single "yielder" coroutine body for this case rather
// than allocating a timer; so do we.
func sleepYield(t *Task) Cont {
	if t.cont == ContInit {
		return ContCont
	}
	return ContDone
}

// Sleep returns a task that completes after delay has elapsed, measured
// from the moment it is first stepped (not from construction). delay <= 0
// yields control exactly once without consulting the wall clock.
func Sleep(delay time.Duration) *Task {
	if delay <= 0 {
		return NewTask(sleepYield, nil)
	}

	var deadline time.Time
	return NewTask(func(t *Task) Cont {
		if t.cont == ContInit {
			deadline = now().Add(delay)
			return ContCont
		}
		if now().Before(deadline) {
			return ContCont
		}
		return ContDone
	}, nil)
}
