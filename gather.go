package async2

// Gather returns a task that completes once every child has completed,
// copying children into its own backing slice first — the analogue of the
// reference runtime's async_vgather, safe to call with a slice the caller
// goes on to mutate. ErrCode() on the returned task reports the first
// non-OK error observed among children, in children's input order (not
// completion order).
func Gather(children ...*Task) *Task {
	cp := make([]*Task, len(children))
	copy(cp, children)
	return newGather(cp)
}

// GatherSlice behaves like Gather but adopts children directly instead of
// copying it — the analogue of the reference runtime's async_gather. The
// caller must not mutate children after passing it here.
func GatherSlice(children []*Task) *Task {
	return newGather(children)
}

// newGather schedules every not-yet-scheduled child as one batch (so a
// scheduling failure affects all of them atomically, before any reference
// is taken), then builds the gatherer task.
//
// The gatherer tracks completion incrementally via pending, a coros-style
// dynamic list of indices into children that have not yet been released
// (spliced out as each child is found done), instead of waiting for every
// child to finish before releasing any of them. This matters because the
// gatherer can be cancelled mid-flight, with some children already done and
// others still pending: propagateCancellation's cancel callback only runs
// once, so it must release exactly the children still holding the
// gatherer's extra reference — which is precisely what remains in pending
// at that point, regardless of how many already finished (and were already
// released) on earlier steps.
func newGather(children []*Task) *Task {
	var unscheduled []*Task
	for _, c := range children {
		if !c.scheduled() {
			unscheduled = append(unscheduled, c)
		}
	}
	if len(unscheduled) > 0 {
		if l := GetEventLoop(); l != nil && l.AddTasks(unscheduled) == nil {
			return nil
		}
	}
	for _, c := range children {
		c.IncRef()
	}

	pending := make([]int, len(children))
	for i := range pending {
		pending[i] = i
	}
	codes := make([]ErrorCode, len(children))

	g := NewTask(func(t *Task) Cont {
		for i := 0; i < len(pending); {
			idx := pending[i]
			c := children[idx]
			if !c.Done() {
				i++
				continue
			}
			codes[idx] = c.ErrCode()
			c.DecRef()
			pending = append(pending[:i], pending[i+1:]...)
		}
		if len(pending) > 0 {
			return ContCont
		}
		// Every child is done and released; report the first non-OK code
		// in input order (SetErr is sticky, so the earliest non-OK wins
		// regardless of which child actually finished first).
		for _, code := range codes {
			t.SetErr(code)
		}
		return ContDone
	}, children)

	g.SetCancelCallback(func(*Task) {
		for _, idx := range pending {
			c := children[idx]
			if !c.Done() {
				c.Cancel()
			}
			c.DecRef()
		}
		pending = nil
	})

	return g
}
