// Package pool provides small object pools used to back per-task byte
// arenas (see the root package's Task.Alloc). Keeping a pool of scratch
// buffers lets a long-running loop reuse memory released at task reap
// instead of allocating a fresh buffer for every Task.Alloc call.
package pool

// Pool is an interface over a pool of reusable values of any one concrete
// type (the zero value returned by the pool's constructor function).
type Pool interface {
	// Get returns a value from the pool, creating one if none is available.
	Get() interface{}

	// Put returns a value to the pool for future reuse.
	Put(interface{})
}
