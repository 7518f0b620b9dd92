package async2

import (
	"sync"
	"time"

	"github.com/ygrebnov/async2/internal/arr"
	"github.com/ygrebnov/async2/metrics"
	"github.com/ygrebnov/async2/pool"
)

// loopMetrics bundles the instruments a Loop reports scheduling activity
// to, built once from the configured metrics.Provider.
type loopMetrics struct {
	scheduled metrics.Counter
	reaped    metrics.Counter
	cancelled metrics.Counter
	passDur   metrics.Histogram
}

func newLoopMetrics(p metrics.Provider) loopMetrics {
	return loopMetrics{
		scheduled: p.Counter("async2.tasks.scheduled"),
		reaped:    p.Counter("async2.tasks.reaped"),
		cancelled: p.Counter("async2.tasks.cancelled"),
		passDur:   p.Histogram("async2.pass.duration_seconds", metrics.WithUnit("seconds")),
	}
}

// Loop owns the task table (positional, nullable slots) and a vacant-slot
// free list. The slot index of a scheduled task is its identity within this
// loop. A Loop is not safe for concurrent use: exactly one scheduler pass
// is active at a time, by design (see package doc).
type Loop struct {
	events arr.Array[*Task]
	vacant arr.Array[int]

	cfg   Config
	arena pool.Pool
	mtr   loopMetrics

	destroyOnce sync.Once
}

// NewLoop constructs a Loop configured by opts. MaxTableSize (if set via
// WithMaxTableSize) gives AddTask/AddTasks a deterministic ENOMEM failure
// mode once the table would need to grow past it.
func NewLoop(opts ...Option) (*Loop, error) {
	co, err := resolveOptions(opts...)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		cfg:   co.cfg,
		arena: co.buildArenaPool(),
		mtr:   newLoopMetrics(co.cfg.Metrics),
	}
	if co.cfg.MaxTableSize > 0 {
		l.events.SetMaxCapacity(co.cfg.MaxTableSize)
		l.vacant.SetMaxCapacity(co.cfg.MaxTableSize)
	}
	if co.cfg.InitialTableCapacity > 0 {
		if !l.events.Reserve(co.cfg.InitialTableCapacity) {
			return nil, ErrNoMem
		}
	}
	return l, nil
}

// NewTask constructs a task whose arena-backed allocations (Task.Alloc) are
// drawn from this loop's configured arena pool, instead of the package
// default. The task is not scheduled automatically; pass it to AddTask.
func (l *Loop) NewTask(fn StepFunc, args any) *Task {
	t := NewTask(fn, args)
	t.arena = l.arena
	return t
}

// AddTask schedules t on the loop. A nil task returns nil. A task already
// scheduled (on this or another loop) is returned unchanged. Returns nil if
// the table could not grow to accommodate it (ENOMEM), after destroying t.
func (l *Loop) AddTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	if t.scheduled() {
		return t
	}

	if l.vacant.Len() > 0 {
		i := l.vacant.Pop()
		l.events.Set(i, t)
	} else if !l.events.Push(t) {
		t.SetErr(ENOMEM)
		t.freeAllocs()
		return nil
	}

	t.setScheduled()
	l.mtr.scheduled.Add(1)
	return t
}

// AddTasks schedules every task in ts, reserving table room for all of them
// up front so that, unlike AddTask, none of them are routed through the
// vacant-index stack — they are all appended to the table's tail. Returns
// nil, without scheduling any of them, if any entry is nil or the table
// could not be grown to accommodate all n.
func (l *Loop) AddTasks(ts []*Task) []*Task {
	for _, t := range ts {
		if t == nil {
			return nil
		}
	}
	if !l.events.Reserve(len(ts)) {
		return nil
	}
	for _, t := range ts {
		if !t.scheduled() {
			l.events.Push(t)
			t.setScheduled()
			l.mtr.scheduled.Add(1)
		}
	}
	return ts
}

// RunForever drives the loop, running scheduler passes, until no live
// (non-vacant) tasks remain.
func (l *Loop) RunForever() {
	for l.events.Len() > 0 && l.events.Len() > l.vacant.Len() {
		l.runPass()
	}
}

// Tick runs exactly one scheduler pass over the table, stepping every live
// task once. Most callers want RunForever or RunUntilComplete; Tick is for
// callers embedding the loop in their own control flow (e.g. alongside
// other event sources) or asserting on intermediate progress in tests.
func (l *Loop) Tick() { l.runPass() }

// RunUntilComplete drives the loop until main's step function returns
// ContDone, running main outside the table so it executes even if it was
// never scheduled on this loop. main.step releases main's self-reference on
// that transition, the same as a scheduler pass would for a table-resident
// task (see Task.step); once main finishes, if its reference count has
// reached zero, it is freed directly via FreeTask (it may not be in the
// table to be reaped by a pass).
func (l *Loop) RunUntilComplete(main *Task) {
	if main == nil {
		return
	}
	for main.step() != ContDone {
		l.runPass()
	}
	if main.RefCount() == 0 {
		FreeTask(main)
	}
}

// Destroy drains the loop: every remaining task is cancelled and its
// cancellation cascade is allowed to run to completion, then both internal
// arrays are released. Destroy is idempotent.
func (l *Loop) Destroy() {
	l.destroyOnce.Do(func() {
		for l.events.Len() > 0 && l.events.Len() > l.vacant.Len() {
			l.destroyPass()
		}
		l.events.Destroy()
		l.vacant.Destroy()
	})
}

func (l *Loop) recordPass(start time.Time) {
	l.mtr.passDur.Record(time.Since(start).Seconds())
}

// currentLoop is the event loop combinators (Sleep, WaitFor, Gather, ...)
// schedule their helper tasks onto when no explicit Loop is threaded through
// a call. It is an ordinary package variable, not a mutex-guarded one: the
// reference runtime's global is swapped instantaneously and is never
// synchronised against an in-flight pass, and adding a mutex here would
// advertise a thread-safety guarantee this single-threaded runtime does not
// have.
var currentLoop *Loop

// GetEventLoop returns the loop combinators currently schedule onto, or nil
// if none has been set.
func GetEventLoop() *Loop { return currentLoop }

// SetEventLoop installs l as the loop combinators schedule onto, returning
// the previously installed loop (or nil). Call this once before scheduling
// any combinator, from the same goroutine that drives the loop.
func SetEventLoop(l *Loop) *Loop {
	prev := currentLoop
	currentLoop = l
	return prev
}
