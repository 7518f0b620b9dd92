// Package async2 implements a minimal cooperative coroutine runtime for
// single-threaded, event-driven programs.
//
// Tasks
//   - NewTask(fn, args): construct a suspendable unit of work from a
//     StepFunc. A task owns one reference to itself until it finishes or is
//     cancelled; combinators take additional references while awaiting it.
//   - Locals[L](t): type-safe per-task storage, the idiomatic stand-in for
//     the reference runtime's fixed-size locals block.
//   - Task.Alloc/Free/FreeLater: per-task arena allocations, released in
//     LIFO order at reap.
//   - FreeTask/FreeTasks: unconditional, refcount-bypassing destruction for
//     a task that was never (and will never be) scheduled on a Loop, so no
//     scheduler pass will ever reap it on its own.
//
// Event loop
//   - NewLoop(opts...): construct a Loop, optionally bounding its task
//     table (WithMaxTableSize) to exercise deterministic ENOMEM paths.
//   - Loop.AddTask/AddTasks: schedule tasks onto the loop's table.
//   - Loop.RunForever/RunUntilComplete: drive scheduler passes.
//   - Loop.Destroy: cancel and drain every remaining task, idempotently.
//   - SetEventLoop/GetEventLoop: the loop combinators schedule their
//     helper tasks onto when none is threaded through explicitly.
//
// Combinators
//   - Sleep(delay): yield once (delay <= 0) or until delay has elapsed.
//   - WaitFor(child, timeout): await child, cancelling it if timeout
//     elapses first.
//   - Gather/GatherSlice: await a set of children, completion-only,
//     preserving input order.
//   - StreamGather(in): admit children from a channel as they arrive.
//
// Futures and batch helpers
//   - Future[R]/FutureFunc/NewFuture: typed results over a Task.
//   - Collect/Map/ForEach: drive the current loop to completion over a
//     batch of futures, returning results in input order and an
//     errors.Join of every failure.
//
// Non-goals
//
// This runtime is single-threaded by design: it does not schedule tasks
// across goroutines, steal work, preempt a running step, offer fairness
// guarantees beyond round-robin visitation order, support priorities, or
// integrate with OS readiness notification (epoll/kqueue/IOCP). Driving I/O
// readiness into a Task's step function is the caller's responsibility.
package async2
