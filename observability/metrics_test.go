package observability_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tailored-agentic-units/assistant/observability"
)

func TestMetricsObserver_ToolCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := observability.NewMetricsObserver(reg)
	ctx := context.Background()

	obs.OnEvent(ctx, observability.Event{
		Type:  "tool.complete",
		Level: observability.LevelInfo,
		Data:  map[string]any{"tool": "calculator", "is_error": false},
	})
	obs.OnEvent(ctx, observability.Event{
		Type:  "tool.complete",
		Level: observability.LevelWarning,
		Data:  map[string]any{"tool": "calculator", "is_error": true},
	})
	obs.OnEvent(ctx, observability.Event{
		Type:  "tool.complete",
		Level: observability.LevelInfo,
		Data:  map[string]any{"tool": "calculator", "is_error": false},
	})

	expected := `
# HELP assistant_tool_calls_total Tool calls executed, by tool and outcome.
# TYPE assistant_tool_calls_total counter
assistant_tool_calls_total{status="error",tool="calculator"} 1
assistant_tool_calls_total{status="ok",tool="calculator"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "assistant_tool_calls_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsObserver_EventsAndDurations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := observability.NewMetricsObserver(reg)
	ctx := context.Background()

	obs.OnEvent(ctx, observability.Event{Type: "turn.start", Level: observability.LevelInfo})
	obs.OnEvent(ctx, observability.Event{
		Type:  "turn.complete",
		Level: observability.LevelInfo,
		Data:  map[string]any{"duration": 250 * time.Millisecond},
	})

	count, err := testutil.GatherAndCount(reg, "assistant_events_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("events_total series = %d, want 2", count)
	}

	count, err = testutil.GatherAndCount(reg, "assistant_event_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("event_duration_seconds series = %d, want 1", count)
	}
}

func TestMetricsObserver_IgnoresPartialToolData(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := observability.NewMetricsObserver(reg)

	obs.OnEvent(context.Background(), observability.Event{
		Type:  "tool.start",
		Level: observability.LevelVerbose,
		Data:  map[string]any{"tool": "calculator"},
	})

	count, err := testutil.GatherAndCount(reg, "assistant_tool_calls_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("tool_calls_total series = %d, want 0", count)
	}
}
