package async2

// StreamGather returns a task that admits child tasks from in as they
// arrive and completes once in is closed and every admitted child has
// completed — a streaming counterpart to Gather, adapted from the
// reference Go library's RunStream/MapStream for a single-threaded runtime:
// there is no forwarder goroutine here, since nothing may block the thread
// driving the loop. Instead, each step drains whatever is currently
// buffered on in with a non-blocking receive before checking children.
//
// ErrCode() reports the first non-OK error observed among admitted
// children, in admission order.
//
// Like Gather, admitted children are released incrementally: pending holds
// the indices (into children, in admission order) of children not yet
// released, spliced out as each is found done. If StreamGather is cancelled
// while some admitted children are already done and others are still
// pending, the cancel callback must release exactly the children still
// holding its extra reference — those remaining in pending — and must not
// re-release ones already handed back on an earlier step.
func StreamGather(in <-chan *Task) *Task {
	var children []*Task
	var codes []ErrorCode
	var pending []int
	closed := false

	t := NewTask(func(self *Task) Cont {
	drain:
		for !closed {
			select {
			case c, ok := <-in:
				if !ok {
					closed = true
					break drain
				}
				c.IncRef()
				if !c.scheduled() {
					if l := GetEventLoop(); l != nil {
						l.AddTask(c)
					}
				}
				pending = append(pending, len(children))
				children = append(children, c)
				codes = append(codes, OK)
			default:
				break drain
			}
		}

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

		if len(pending) > 0 || !closed {
			return ContCont
		}

		for _, code := range codes {
			self.SetErr(code)
		}
		return ContDone
	}, in)

	t.SetCancelCallback(func(*Task) {
		closed = true
		for _, idx := range pending {
			c := children[idx]
			if !c.Done() {
				c.Cancel()
			}
			c.DecRef()
		}
		pending = nil
	})

	return t
}
