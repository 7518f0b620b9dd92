package async2

import "github.com/ygrebnov/async2/metrics"

// Config holds Loop configuration. Prefer constructing a Loop with
// functional options (see options.go); Config is the underlying builder
// state they mutate.
type Config struct {
	// InitialTableCapacity pre-reserves room in the task table to avoid
	// early growth. Zero (default) grows lazily from 1 by doubling.
	InitialTableCapacity int

	// MaxTableSize bounds how large the task table (and its vacant-index
	// stack) may grow. Zero (default) means unbounded. A positive bound
	// gives AddTask/AddTasks a deterministic way to fail with ENOMEM,
	// exercising the allocation-failure paths the reference runtime
	// reports the same way.
	MaxTableSize int

	// ArenaSize is the size in bytes of each buffer handed out by the
	// default per-task byte arena (see Task.Alloc). Default: 256.
	ArenaSize int

	// StopOnFirstError cancels every other scheduled task as soon as any
	// scheduled task finishes with a non-OK error other than ECANCELED (at
	// the end of that pass, before the task is reaped), mirroring the
	// reference Go library's
	// StopOnError config knob.
	StopOnFirstError bool

	// Metrics receives scheduling observability events. Default: a no-op
	// provider.
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for Config, the way the
// reference Go library's defaultConfig does for its own Config.
func defaultConfig() Config {
	return Config{
		InitialTableCapacity: 0,
		MaxTableSize:         0,
		ArenaSize:            256,
		StopOnFirstError:     false,
		Metrics:              metrics.NewNoopProvider(),
	}
}

// validateConfig performs lightweight invariant checks, reserved for future
// expansion the way the reference library's validateConfig is.
func validateConfig(cfg *Config) error {
	if cfg.InitialTableCapacity < 0 {
		return ErrInvalidState
	}
	if cfg.MaxTableSize < 0 {
		return ErrInvalidState
	}
	if cfg.MaxTableSize > 0 && cfg.InitialTableCapacity > cfg.MaxTableSize {
		return ErrInvalidState
	}
	if cfg.ArenaSize < 0 {
		return ErrInvalidState
	}
	return nil
}
