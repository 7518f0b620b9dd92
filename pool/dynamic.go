package pool

import "sync"

// NewDynamic returns a Pool backed by sync.Pool: it grows and shrinks as the
// garbage collector sees fit. Suitable as the default arena backing for a
// loop that doesn't know its peak concurrent task count ahead of time.
func NewDynamic(newFn func() interface{}) Pool {
	return &sync.Pool{New: newFn}
}

// NewByteArena returns a dynamic Pool of []byte slices of the given
// capacity. Newly created slices have length zero; a slice that was Put
// back is returned by Get as it was Put (Task.Alloc puts its buffers back
// at length zero). It's the default backing for Task.Alloc.
func NewByteArena(size int) Pool {
	return NewDynamic(func() interface{} {
		return make([]byte, 0, size)
	})
}
