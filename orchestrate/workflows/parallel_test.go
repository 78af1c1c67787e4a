package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/orchestrate/config"
	"github.com/tailored-agentic-units/assistant/orchestrate/workflows"
)

var errLookup = errors.New("lookup failed")

func noopConfig(cfg config.ParallelConfig) config.ParallelConfig {
	cfg.Observer = "noop"
	return cfg
}

// lookup fails for negative items and panics on zero.
func lookup(_ context.Context, n int) (string, error) {
	switch {
	case n < 0:
		return "", fmt.Errorf("%w: %d", errLookup, n)
	case n == 0:
		panic("zero")
	}
	return fmt.Sprintf("v%d", n), nil
}

func TestProcessParallel(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.ParallelConfig
		items       []int
		wantResults []string
		wantFailed  []int
		wantErr     bool
	}{
		{
			name:        "empty batch",
			cfg:         config.CollectAllConfig(0),
			items:       nil,
			wantResults: []string{},
		},
		{
			name:        "input order kept",
			cfg:         config.CollectAllConfig(3),
			items:       []int{5, 4, 3, 2, 1},
			wantResults: []string{"v5", "v4", "v3", "v2", "v1"},
		},
		{
			name:        "collect all keeps successes",
			cfg:         config.CollectAllConfig(4),
			items:       []int{1, -2, 3, 0},
			wantResults: []string{"v1", "v3"},
			wantFailed:  []int{1, 3},
		},
		{
			name:       "collect all errors when every item fails",
			cfg:        config.CollectAllConfig(2),
			items:      []int{-1, -2},
			wantFailed: []int{0, 1},
			wantErr:    true,
		},
		{
			name:        "fail fast with one worker stops the batch",
			cfg:         config.ParallelConfig{MaxWorkers: 1},
			items:       []int{1, -2, 3},
			wantResults: []string{"v1"},
			wantFailed:  []int{1},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := workflows.ProcessParallel(context.Background(), noopConfig(tt.cfg), tt.items, lookup, nil)

			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var pe *workflows.ParallelError[int]
				if !errors.As(err, &pe) {
					t.Errorf("error type = %T, want *ParallelError", err)
				}
			}

			if strings.Join(res.Results, ",") != strings.Join(tt.wantResults, ",") {
				t.Errorf("Results = %v, want %v", res.Results, tt.wantResults)
			}
			if len(res.Errors) != len(tt.wantFailed) {
				t.Fatalf("Errors = %v, want indexes %v", res.Errors, tt.wantFailed)
			}
			for i, idx := range tt.wantFailed {
				if res.Errors[i].Index != idx || res.Errors[i].Item != tt.items[idx] {
					t.Errorf("Errors[%d] = {%d, %d}, want index %d", i, res.Errors[i].Index, res.Errors[i].Item, idx)
				}
			}
		})
	}
}

func TestProcessParallel_PanicBecomesTaskError(t *testing.T) {
	res, _ := workflows.ProcessParallel(context.Background(), noopConfig(config.CollectAllConfig(2)), []int{0, 1}, lookup, nil)

	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Error(), "panicked") {
		t.Fatalf("Errors = %v, want one panic", res.Errors)
	}
	if len(res.Results) != 1 || res.Results[0] != "v1" {
		t.Errorf("Results = %v, want [v1]", res.Results)
	}
}

func TestProcessParallel_FanOutLatency(t *testing.T) {
	slow := func(ctx context.Context, n int) (int, error) {
		select {
		case <-time.After(100 * time.Millisecond):
			return n, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	start := time.Now()
	res, err := workflows.ProcessParallel(context.Background(), noopConfig(config.CollectAllConfig(4)), []int{1, 2, 3, 4}, slow, nil)
	elapsed := time.Since(start)

	if err != nil || len(res.Results) != 4 {
		t.Fatalf("got %v, %v", res.Results, err)
	}
	if elapsed > 250*time.Millisecond {
		t.Errorf("batch took %v, want roughly one task's latency", elapsed)
	}
}

func TestProcessParallel_WorkerLimit(t *testing.T) {
	var active, peak atomic.Int32
	track := func(_ context.Context, n int) (int, error) {
		cur := active.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return n, nil
	}

	items := make([]int, 12)
	if _, err := workflows.ProcessParallel(context.Background(), noopConfig(config.CollectAllConfig(3)), items, track, nil); err != nil {
		t.Fatal(err)
	}
	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestProcessParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wait := func(ctx context.Context, n int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	_, err := workflows.ProcessParallel(ctx, noopConfig(config.CollectAllConfig(2)), []int{1, 2}, wait, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestProcessParallel_Progress(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Int32
	progress := func(completed, total int, _ string) {
		calls.Add(1)
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
		last.Store(int32(max(int(last.Load()), completed)))
	}

	_, _ = workflows.ProcessParallel(context.Background(), noopConfig(config.CollectAllConfig(1)), []int{1, -1, 2, 3}, lookup, progress)

	if calls.Load() != 3 || last.Load() != 3 {
		t.Errorf("progress calls = %d, last = %d, want 3 successes", calls.Load(), last.Load())
	}
}

func TestProcessParallel_UnknownObserver(t *testing.T) {
	cfg := config.CollectAllConfig(1)
	cfg.Observer = "missing"

	if _, err := workflows.ProcessParallel(context.Background(), cfg, []int{1}, lookup, nil); err == nil {
		t.Error("expected observer resolution error")
	}
}

func TestProcessParallelWithObserver_Events(t *testing.T) {
	rec := &observability.Recorder{}

	_, _ = workflows.ProcessParallelWithObserver(context.Background(), config.CollectAllConfig(2), rec, []int{1, 2}, lookup, nil)

	if len(rec.OfType(workflows.EventParallelStart)) != 1 || len(rec.OfType(workflows.EventParallelComplete)) != 1 {
		t.Errorf("batch events missing: %+v", rec.Events())
	}
	if got := len(rec.OfType(workflows.EventWorkerComplete)); got != 2 {
		t.Errorf("worker.complete events = %d, want 2", got)
	}
}

func TestParallelError(t *testing.T) {
	single := &workflows.ParallelError[int]{Errors: []workflows.TaskError[int]{
		{Index: 2, Item: 7, Err: errLookup},
	}}
	if got, want := single.Error(), "parallel execution failed: item 2: lookup failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	timeout := errors.New("timeout")
	multi := &workflows.ParallelError[int]{Errors: []workflows.TaskError[int]{
		{Index: 0, Err: errLookup},
		{Index: 1, Err: timeout},
		{Index: 2, Err: errLookup},
	}}
	want := "parallel execution failed: 3 items failed with 2 error types: 'lookup failed' (2 items), 'timeout' (1 item)"
	if got := multi.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(multi, timeout) || !errors.Is(multi, errLookup) {
		t.Error("ParallelError should unwrap to every task error")
	}
}
