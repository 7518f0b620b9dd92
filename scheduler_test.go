package async2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPassStepsScheduledTasks(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)

	steps := 0
	task := NewTask(func(t *Task) Cont {
		steps++
		if steps >= 2 {
			return ContDone
		}
		return ContCont
	}, nil)
	l.AddTask(task)

	l.runPass()
	require.Equal(t, 1, steps)
	require.False(t, task.Done())

	l.runPass()
	require.Equal(t, 2, steps)
	require.True(t, task.Done())
}

func TestRunPassReapsZeroRefTasksAndRecyclesSlot(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)

	freed := false
	task := NewTask(func(t *Task) Cont { return ContDone }, nil)
	task.FreeLater(func() { freed = true })
	l.AddTask(task)

	l.runPass() // steps to done, releases self-reference (refcnt -> 0)
	require.Equal(t, 0, task.RefCount())

	l.runPass() // reaps
	require.True(t, freed)
	require.Equal(t, 1, l.vacant.Len())

	// The freed slot is reused by the next AddTask instead of growing the table.
	other := NewTask(func(t *Task) Cont { return ContCont }, nil)
	l.AddTask(other)
	require.Equal(t, 0, l.vacant.Len())
	require.Equal(t, 1, l.events.Len())
}

func TestPropagateCancellationForcesErrAndReleasesChild(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)

	child := NewTask(func(t *Task) Cont { return ContCont }, nil)
	parent := NewTask(func(t *Task) Cont { return ContCont }, nil)
	parent.next = child
	child.IncRef() // parent awaits child

	l.AddTask(parent)
	l.AddTask(child)

	parent.SetErr(ENOMEM) // a prior error must still be overridden by cancellation
	parent.Cancel()

	l.runPass()

	require.True(t, parent.Done())
	require.Equal(t, ECANCELED, parent.ErrCode())
	require.True(t, child.Cancelled())
}

func TestStopOnFirstErrorCancelsLiveTasks(t *testing.T) {
	l, err := NewLoop(WithStopOnFirstError())
	require.NoError(t, err)

	failing := NewTask(func(t *Task) Cont {
		t.SetErr(EInvalidState)
		return ContDone
	}, nil)
	longRunning := NewTask(func(t *Task) Cont { return ContCont }, nil)

	l.AddTask(failing)
	l.AddTask(longRunning)

	l.runPass()

	require.True(t, longRunning.Cancelled())
}
