package async2

import (
	"fmt"

	"github.com/ygrebnov/async2/metrics"
	"github.com/ygrebnov/async2/pool"
)

// Option configures a Loop. Use NewLoop(opts...) to construct one.
type Option func(*configOptions)

// arenaKind selects which Pool implementation backs a Loop's task arenas.
type arenaKind int

const (
	arenaUnspecified arenaKind = iota
	arenaDynamic
	arenaFixed
)

// configOptions is the internal option-assembly state, the way the
// reference Go library's configOptions builds a Config from Option values
// before constructing Workers.
type configOptions struct {
	cfg        Config
	arenaKind  arenaKind
	arenaFixed uint
}

// WithInitialTableCapacity pre-reserves room for n tasks in the loop's
// table.
func WithInitialTableCapacity(n int) Option {
	return func(co *configOptions) { co.cfg.InitialTableCapacity = n }
}

// WithMaxTableSize bounds the loop's task table, giving AddTask/AddTasks a
// deterministic ENOMEM failure mode once exceeded.
func WithMaxTableSize(n int) Option {
	return func(co *configOptions) { co.cfg.MaxTableSize = n }
}

// WithArenaSize sets the size in bytes of buffers handed out by the
// default per-task byte arena.
func WithArenaSize(n int) Option {
	return func(co *configOptions) { co.cfg.ArenaSize = n }
}

// WithDynamicArena selects a sync.Pool-backed arena (the default): it grows
// and shrinks with GC pressure and is suitable when peak concurrent task
// count is unknown ahead of time.
func WithDynamicArena() Option {
	return func(co *configOptions) {
		if co.arenaKind != arenaUnspecified && co.arenaKind != arenaDynamic {
			panic("async2: conflicting arena options: WithDynamicArena and WithFixedArena both specified")
		}
		co.arenaKind = arenaDynamic
	}
}

// WithFixedArena selects a channel-backed arena capped at capacity buffers
// alive at once; buffers persist for the loop's lifetime instead of being
// reclaimed by the garbage collector between uses.
func WithFixedArena(capacity uint) Option {
	return func(co *configOptions) {
		if co.arenaKind != arenaUnspecified && co.arenaKind != arenaFixed {
			panic("async2: conflicting arena options: WithDynamicArena and WithFixedArena both specified")
		}
		if capacity == 0 {
			panic("async2: WithFixedArena requires capacity > 0")
		}
		co.arenaKind = arenaFixed
		co.arenaFixed = capacity
	}
}

// WithStopOnFirstError cancels every other scheduled task as soon as any
// scheduled task finishes with a non-OK error other than ECANCELED.
func WithStopOnFirstError() Option {
	return func(co *configOptions) { co.cfg.StopOnFirstError = true }
}

// WithMetrics attaches a metrics.Provider the loop reports scheduling
// activity to. The default is a no-op provider.
func WithMetrics(p metrics.Provider) Option {
	return func(co *configOptions) { co.cfg.Metrics = p }
}

// buildArenaPool resolves the arena option into a concrete pool.Pool.
func (co *configOptions) buildArenaPool() pool.Pool {
	switch co.arenaKind {
	case arenaFixed:
		return pool.NewFixed(co.arenaFixed, func() interface{} {
			return make([]byte, 0, co.cfg.ArenaSize)
		})
	default:
		return pool.NewByteArena(co.cfg.ArenaSize)
	}
}

// resolveOptions applies opts over the package defaults and validates the
// result, the way the reference library's NewOptions constructor does.
func resolveOptions(opts ...Option) (configOptions, error) {
	co := configOptions{cfg: defaultConfig(), arenaKind: arenaUnspecified}
	for _, opt := range opts {
		if opt == nil {
			panic("async2: nil option")
		}
		opt(&co)
	}
	if err := validateConfig(&co.cfg); err != nil {
		return configOptions{}, fmt.Errorf("%s: invalid configuration: %w", Namespace, err)
	}
	return co, nil
}
