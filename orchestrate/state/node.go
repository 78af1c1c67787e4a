package state

import "context"

// Node is one computation step. It returns a delta for the graph's reducer.
type Node[S, D any] interface {
	Execute(ctx context.Context, state S) (D, error)
}

// NodeFunc adapts a function to Node.
type NodeFunc[S, D any] func(ctx context.Context, state S) (D, error)

func (f NodeFunc[S, D]) Execute(ctx context.Context, state S) (D, error) {
	return f(ctx, state)
}

// Reducer merges a node's delta into the state and returns the new state.
type Reducer[S, D any] func(state S, delta D) S
