package state

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/orchestrate/config"
)

// Graph is a directed graph of nodes over state S with deltas D.
//
// Graphs are built once and then executed any number of times. Execute does
// not mutate the graph, so one graph may serve concurrent runs.
type Graph[S, D any] struct {
	name          string
	nodes         map[string]Node[S, D]
	edges         map[string][]Edge[S]
	routers       map[string]route[S]
	exitPoints    map[string]bool
	entryPoint    string
	reduce        Reducer[S, D]
	maxIterations int
	observer      observability.Observer
}

// NewGraphWithDeps creates a graph whose events go to observer. A nil
// observer discards events.
func NewGraphWithDeps[S, D any](cfg config.GraphConfig, reduce Reducer[S, D], observer observability.Observer) (*Graph[S, D], error) {
	if reduce == nil {
		return nil, fmt.Errorf("reducer cannot be nil")
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = config.DefaultGraphConfig(cfg.Name).MaxIterations
	}

	return &Graph[S, D]{
		name:          cfg.Name,
		nodes:         make(map[string]Node[S, D]),
		edges:         make(map[string][]Edge[S]),
		routers:       make(map[string]route[S]),
		exitPoints:    make(map[string]bool),
		reduce:        reduce,
		maxIterations: maxIterations,
		observer:      observer,
	}, nil
}

func (g *Graph[S, D]) Name() string {
	return g.name
}

// AddNode registers a node. Names must be unique and may not be End.
func (g *Graph[S, D]) AddNode(name string, node Node[S, D]) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if name == End {
		return fmt.Errorf("node name %s is reserved", End)
	}
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %s already exists", name)
	}

	g.nodes[name] = node
	return nil
}

// AddEdge adds a transition from one node to another node or End. A nil
// predicate always matches. A node may have edges or a router, not both.
func (g *Graph[S, D]) AddEdge(from, to string, predicate Predicate[S]) error {
	if err := g.checkSource(from); err != nil {
		return err
	}
	if err := g.checkDestination(to); err != nil {
		return err
	}
	if _, routed := g.routers[from]; routed {
		return fmt.Errorf("node %s already has a router", from)
	}

	g.edges[from] = append(g.edges[from], Edge[S]{From: from, To: to, Predicate: predicate})
	return nil
}

// AddRouter installs a router as the only transition out of from. The router
// may only return one of destinations.
func (g *Graph[S, D]) AddRouter(from string, router Router[S], destinations ...string) error {
	if err := g.checkSource(from); err != nil {
		return err
	}
	if router == nil {
		return fmt.Errorf("router cannot be nil")
	}
	if len(destinations) == 0 {
		return fmt.Errorf("router from %s declares no destinations", from)
	}
	if _, routed := g.routers[from]; routed {
		return fmt.Errorf("node %s already has a router", from)
	}
	if len(g.edges[from]) > 0 {
		return fmt.Errorf("node %s already has edges", from)
	}

	dests := make(map[string]bool, len(destinations))
	for _, to := range destinations {
		if err := g.checkDestination(to); err != nil {
			return err
		}
		dests[to] = true
	}

	g.routers[from] = route[S]{router: router, destinations: dests}
	return nil
}

// SetEntryPoint sets the first node of every run. It may be set once.
func (g *Graph[S, D]) SetEntryPoint(node string) error {
	if node == "" {
		return fmt.Errorf("entry point cannot be empty")
	}
	if g.entryPoint != "" {
		return fmt.Errorf("entry point already set to %s", g.entryPoint)
	}
	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("entry point node %s does not exist", node)
	}

	g.entryPoint = node
	return nil
}

// SetExitPoint marks a node after which the run ends.
func (g *Graph[S, D]) SetExitPoint(node string) error {
	if node == "" {
		return fmt.Errorf("exit point cannot be empty")
	}
	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("exit point node %s does not exist", node)
	}

	g.exitPoints[node] = true
	return nil
}

// Validate checks that the graph has an entry point and that every node can
// leave: it is an exit point or has an edge or router.
func (g *Graph[S, D]) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("graph has no nodes")
	}
	if g.entryPoint == "" {
		return fmt.Errorf("entry point not set")
	}

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if g.exitPoints[name] {
			continue
		}
		_, routed := g.routers[name]
		if !routed && len(g.edges[name]) == 0 {
			return fmt.Errorf("node %s has no outgoing transition", name)
		}
	}
	return nil
}

// Execute runs the graph from its entry point and returns the final state.
//
// On failure the returned state is the last fully merged state and the error
// is an *ExecutionError. Node errors are wrapped, not replaced, so callers
// can match them with errors.Is.
func (g *Graph[S, D]) Execute(ctx context.Context, initial S) (S, error) {
	if err := g.Validate(); err != nil {
		return initial, fmt.Errorf("graph validation failed: %w", err)
	}

	start := time.Now()
	g.emit(ctx, EventGraphStart, observability.LevelVerbose, map[string]any{
		"entry_point": g.entryPoint,
	})

	current := g.entryPoint
	state := initial
	visited := make(map[string]int)
	path := make([]string, 0, 8)

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return state, &ExecutionError{
				NodeName: current,
				Path:     path,
				Err:      fmt.Errorf("execution cancelled: %w", err),
			}
		}

		if iteration > g.maxIterations {
			return state, &ExecutionError{
				NodeName: current,
				Path:     path,
				Err:      fmt.Errorf("%w (%d)", ErrMaxIterations, g.maxIterations),
			}
		}

		visited[current]++
		path = append(path, current)
		if visited[current] > 1 {
			g.emit(ctx, EventCycleDetected, observability.LevelVerbose, map[string]any{
				"node":        current,
				"visit_count": visited[current],
				"iteration":   iteration,
			})
		}

		g.emit(ctx, EventNodeStart, observability.LevelVerbose, map[string]any{
			"node":      current,
			"iteration": iteration,
		})

		nodeStart := time.Now()
		delta, err := g.nodes[current].Execute(ctx, state)

		g.emit(ctx, EventNodeComplete, observability.LevelVerbose, map[string]any{
			"node":      current,
			"iteration": iteration,
			"error":     err != nil,
			"duration":  time.Since(nodeStart),
		})

		if err != nil {
			return state, &ExecutionError{
				NodeName: current,
				Path:     path,
				Err:      fmt.Errorf("node execution failed: %w", err),
			}
		}

		state = g.reduce(state, delta)

		if g.exitPoints[current] {
			g.complete(ctx, current, iteration, start)
			return state, nil
		}

		next, err := g.next(current, state)
		if err != nil {
			return state, &ExecutionError{NodeName: current, Path: path, Err: err}
		}

		g.emit(ctx, EventEdgeTransition, observability.LevelVerbose, map[string]any{
			"from": current,
			"to":   next,
		})

		if next == End {
			g.complete(ctx, current, iteration, start)
			return state, nil
		}
		current = next
	}
}

func (g *Graph[S, D]) next(from string, state S) (string, error) {
	if r, ok := g.routers[from]; ok {
		to := r.router(state)
		if !r.destinations[to] {
			return "", fmt.Errorf("%w: %q from %s", ErrInvalidRoute, to, from)
		}
		return to, nil
	}

	for _, edge := range g.edges[from] {
		if edge.Predicate == nil || edge.Predicate(state) {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%w from node %s", ErrNoTransition, from)
}

func (g *Graph[S, D]) complete(ctx context.Context, last string, iterations int, start time.Time) {
	g.emit(ctx, EventGraphComplete, observability.LevelVerbose, map[string]any{
		"last_node":  last,
		"iterations": iterations,
		"duration":   time.Since(start),
	})
}

func (g *Graph[S, D]) checkSource(from string) error {
	if from == "" {
		return fmt.Errorf("from node cannot be empty")
	}
	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("from node %s does not exist", from)
	}
	return nil
}

func (g *Graph[S, D]) checkDestination(to string) error {
	if to == "" {
		return fmt.Errorf("to node cannot be empty")
	}
	if to == End {
		return nil
	}
	if _, exists := g.nodes[to]; !exists {
		return fmt.Errorf("to node %s does not exist", to)
	}
	return nil
}

func (g *Graph[S, D]) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	data["graph"] = g.name
	observability.Emit(ctx, g.observer, typ, level, "state.Graph", data)
}
