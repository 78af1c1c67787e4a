package config

// ParallelConfig configures bounded fan-out over a batch of items.
//
// MaxWorkers = 0 sizes the pool as min(NumCPU*2, WorkerCap, len(items)).
// With FailFast the first failure cancels the remaining work; otherwise every
// item runs and all failures are collected.
type ParallelConfig struct {
	// MaxWorkers is the exact pool size (0 = auto).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// WorkerCap bounds the auto-detected pool size.
	WorkerCap int `json:"worker_cap" yaml:"worker_cap"`

	// FailFastNil defaults to true when nil. Read it through FailFast.
	FailFastNil *bool `json:"fail_fast" yaml:"fail_fast"`

	// Observer names a registered observer.
	Observer string `json:"observer" yaml:"observer"`
}

func (c *ParallelConfig) FailFast() bool {
	if c.FailFastNil == nil {
		return true
	}
	return *c.FailFastNil
}

// DefaultParallelConfig returns auto-sized workers capped at 16, fail-fast and
// the slog observer.
func DefaultParallelConfig() ParallelConfig {
	failFast := true
	return ParallelConfig{
		MaxWorkers:  0,
		WorkerCap:   16,
		FailFastNil: &failFast,
		Observer:    "slog",
	}
}

// CollectAllConfig returns a config that runs every item regardless of
// failures. Use it for fan-out where each item reports its own outcome.
func CollectAllConfig(maxWorkers int) ParallelConfig {
	cfg := DefaultParallelConfig()
	failFast := false
	cfg.FailFastNil = &failFast
	cfg.MaxWorkers = maxWorkers
	return cfg
}

func (c *ParallelConfig) Merge(source *ParallelConfig) {
	if source.MaxWorkers > 0 {
		c.MaxWorkers = source.MaxWorkers
	}

	if source.WorkerCap > 0 {
		c.WorkerCap = source.WorkerCap
	}

	if source.FailFastNil != nil {
		c.FailFastNil = source.FailFastNil
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
