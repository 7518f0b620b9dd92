package async2

import (
	"sync/atomic"

	"github.com/ygrebnov/async2/internal/arr"
	"github.com/ygrebnov/async2/pool"
)

// Cont is a task's continuation code, returned by its step function.
type Cont int

const (
	// ContInit marks a task's first entry; it is never returned by a step
	// function, only observed by it.
	ContInit Cont = iota
	// ContCont means the task yielded and should be resumed next pass.
	ContCont
	// ContDone means the task has finished, normally or via cancellation.
	ContDone
)

// StepFunc is a task's resumable body: a deterministic state machine over
// Task.cont. It must never block the calling goroutine; long operations are
// expressed by returning ContCont and resuming where they left off next
// time the loop visits this task's slot.
type StepFunc func(t *Task) Cont

type flags uint8

const (
	flagScheduled flags = 1 << iota
	flagCancelRequested
)

var nextTaskID uint64

// allocEntry is one entry in a task's deferred-free list: either an
// arena-backed byte buffer (ptr non-nil) or an externally owned resource
// registered via FreeLater (ptr nil, release only).
type allocEntry struct {
	ptr     *[]byte
	release func()
}

// Task is a suspendable unit of work: a resumable step function plus the
// bookkeeping the event loop needs to drive, cancel, and reap it. The zero
// value is not usable; construct with NewTask.
type Task struct {
	id uint64

	fn     StepFunc
	locals any
	args   any

	cont    Cont
	flags   flags
	errCode ErrorCode
	refcnt  int

	cancelCB func(*Task)
	next     *Task

	allocs arr.Array[allocEntry]
	arena  pool.Pool
}

// NewTask constructs a Task from a step function and an opaque argument
// handle. The returned task owns one reference to itself (refcnt == 1)
// until it finishes or a combinator takes additional references, matching
// the reference runtime's "state owns itself until exited or cancelled."
func NewTask(fn StepFunc, args any) *Task {
	return &Task{
		id:     atomic.AddUint64(&nextTaskID, 1),
		fn:     fn,
		args:   args,
		cont:   ContInit,
		refcnt: 1,
	}
}

// Locals retrieves the task-private locals of type L, allocating a zero
// value of L on first use. This is the Go-idiomatic stand-in for the
// reference runtime's fixed-size contiguous stack-frame allocation: callers
// get a type-safe pointer instead of a raw, size-declared memory block.
func Locals[L any](t *Task) *L {
	if t.locals == nil {
		t.locals = new(L)
	}
	return t.locals.(*L)
}

// SetCancelCallback registers the hook invoked exactly once, at cancellation
// time, if the task is not already done.
func (t *Task) SetCancelCallback(cb func(*Task)) { t.cancelCB = cb }

// ID returns this task's process-unique identifier, used to correlate
// errors back to the task that produced them.
func (t *Task) ID() uint64 { return t.id }

// Args returns the caller-supplied argument handle, opaque to the runtime.
func (t *Task) Args() any { return t.args }

// Done reports whether the task has finished (cont == DONE).
func (t *Task) Done() bool { return t.cont == ContDone }

// Cancelled reports whether cancellation has been requested or observed on
// this task — either via Cancel (edge-triggered, not yet processed by the
// scheduler) or via Err() == ECANCELED (already converted).
func (t *Task) Cancelled() bool {
	return t.flags&flagCancelRequested != 0 || t.errCode == ECANCELED
}

// Err returns the task's last error, or nil if none occurred. Once non-nil,
// it never reverts to nil.
func (t *Task) Err() error { return newTaskError(t.errCode, t.id) }

// ErrCode returns the task's raw error code.
func (t *Task) ErrCode() ErrorCode { return t.errCode }

// SetErr records an error code on the task. It is a no-op once the code is
// already non-OK, preserving the "err is never cleared" invariant.
func (t *Task) SetErr(code ErrorCode) {
	if t.errCode == OK {
		t.errCode = code
	}
}

// IncRef takes a reference on t. Combinators call this when they start
// awaiting a child so the child survives until they release it.
func (t *Task) IncRef() { t.refcnt++ }

// DecRef releases a reference on t. It never reaps the task itself — the
// loop reaps on the next slot visit once refcnt reaches zero.
func (t *Task) DecRef() { t.refcnt-- }

// RefCount returns the task's current reference count.
func (t *Task) RefCount() int { return t.refcnt }

// Cancel sets t's cancellation flag. It is idempotent and does not itself
// free resources or run callbacks — the scheduler converts it into the full
// cancellation protocol on its next visit to t's slot.
func (t *Task) Cancel() { t.flags |= flagCancelRequested }

func (t *Task) scheduled() bool { return t.flags&flagScheduled != 0 }
func (t *Task) setScheduled()   { t.flags |= flagScheduled }

// step invokes the task's body for one step, advancing cont on DONE. The
// task relinquishes the self-reference it was constructed with exactly once,
// on the transition into DONE — regardless of whether step is called by a
// scheduler pass or directly by RunUntilComplete, so both driving paths
// reap (and free the deferred-free list of) a finishing task identically.
func (t *Task) step() Cont {
	wasDone := t.Done()
	r := t.fn(t)
	t.cont = r
	if !wasDone && r == ContDone {
		t.DecRef()
	}
	return r
}

// Step invokes the task's body for exactly one step, outside of any loop.
// Most callers should schedule the task on a Loop instead; Step exists for
// driving a task directly (as run_until_complete does for its main task)
// and for tests that assert on a task's step-by-step behavior.
func (t *Task) Step() Cont { return t.step() }

func (t *Task) arenaOrDefault() pool.Pool {
	if t.arena == nil {
		t.arena = defaultArena
	}
	return t.arena
}

// Alloc returns an n-byte buffer drawn from the task's arena (or a shared
// default arena if the task wasn't constructed via a Loop option), tracked
// for release at reap. This is the Go-idiomatic analogue of the reference
// runtime's alloc_on: a per-task allocation freed automatically, in LIFO
// order, when the task is destroyed.
func (t *Task) Alloc(n int) *[]byte {
	raw := t.arenaOrDefault().Get().([]byte)
	if cap(raw) < n {
		raw = make([]byte, 0, n)
	}
	buf := raw[:n]
	p := &buf
	arena := t.arena
	t.allocs.Push(allocEntry{
		ptr: p,
		release: func() {
			arena.Put((*p)[:0])
		},
	})
	return p
}

// Free releases an earlier Alloc'd buffer immediately, returning it to the
// arena and splicing it out of the deferred-free list. It reports whether p
// was found.
func (t *Task) Free(p *[]byte) bool {
	for i := t.allocs.Len() - 1; i >= 0; i-- {
		if e := t.allocs.At(i); e.ptr == p {
			if e.release != nil {
				e.release()
			}
			t.allocs.Splice(i, 1)
			return true
		}
	}
	return false
}

// FreeLater registers an externally owned resource's release function to
// run at reap, in LIFO order alongside arena allocations — e.g. closing a
// file handle a task's body opened.
func (t *Task) FreeLater(release func()) {
	if release == nil {
		return
	}
	t.allocs.Push(allocEntry{release: release})
}

// freeAllocs runs every registered release in reverse insertion order,
// mirroring the reference runtime's STATE_FREE macro, then empties the
// deferred-free list.
func (t *Task) freeAllocs() {
	for t.allocs.Len() > 0 {
		e := t.allocs.Pop()
		if e.release != nil {
			e.release()
		}
	}
	t.allocs.Destroy()
}

var defaultArena = pool.NewByteArena(256)

// FreeTask unconditionally destroys t, bypassing refcnt entirely — the
// analogue of the reference runtime's async_free_coro_. Use it for a task
// that was never (and will never be) scheduled on a Loop, so no scheduler
// pass will ever reap it: most notably main after RunUntilComplete returns
// with a nonzero RefCount (still awaited by something else), or a
// hand-built task a caller decided not to run after all. If t is still
// scheduled on a Loop, freeing it here leaves a stale pointer in that
// loop's table; callers must not do that. A nil t is a no-op.
//
// If t never reached DONE, its cancel callback runs first, exactly as it
// would on a scheduler-driven reap. Every deferred-free entry (Task.Alloc,
// Task.FreeLater) is then released in LIFO order. Calling FreeTask twice on
// the same task double-runs its cancel callback and deferred-free list;
// callers must free a given task at most once.
func FreeTask(t *Task) {
	if t == nil {
		return
	}
	if !t.Done() && t.cancelCB != nil {
		t.cancelCB(t)
	}
	t.freeAllocs()
}

// FreeTasks calls FreeTask on every task in ts — the analogue of the
// reference runtime's async_free_coros_, for releasing a batch of tasks
// that were never scheduled (e.g. ones abandoned before being handed to a
// Loop at all, on a construction-time error path).
func FreeTasks(ts []*Task) {
	for _, t := range ts {
		FreeTask(t)
	}
}
