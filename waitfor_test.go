package async2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitForCompletesWithChildResult(t *testing.T) {
	prev := GetEventLoop()
	defer SetEventLoop(prev)
	l, err := NewLoop()
	require.NoError(t, err)
	SetEventLoop(l)

	child := NewTask(func(t *Task) Cont { return ContDone }, nil)
	w := WaitFor(child, 0)

	l.RunUntilComplete(w)

	require.True(t, w.Done())
	require.Equal(t, OK, w.ErrCode())
}

func TestWaitForTimesOutAndCancelsChild(t *testing.T) {
	prev := GetEventLoop()
	defer SetEventLoop(prev)
	l, err := NewLoop()
	require.NoError(t, err)
	SetEventLoop(l)

	base := time.Unix(0, 0)
	clock := base
	restore := now
	now = func() time.Time { return clock }
	defer func() { now = restore }()

	child := NewTask(func(t *Task) Cont { return ContCont }, nil)
	w := WaitFor(child, time.Second)

	require.Equal(t, ContCont, w.step()) // records deadline, child not done

	clock = base.Add(2 * time.Second)
	require.Equal(t, ContCont, w.step()) // timeout fires, cancels child, keeps waiting
	require.True(t, child.Cancelled())
	require.False(t, w.Done())

	// the loop converts child's cancellation flag into its terminal state
	l.runPass()
	require.True(t, child.Done())

	require.Equal(t, ContDone, w.step())
	require.True(t, w.Done())
	require.Equal(t, ECANCELED, w.ErrCode())
}

func TestWaitForCancelCallbackCoversPreYieldRace(t *testing.T) {
	child := NewTask(func(t *Task) Cont { return ContCont }, nil)
	w := WaitFor(child, 0)

	w.cancelCB(w)

	require.True(t, child.Cancelled())
}
