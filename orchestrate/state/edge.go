package state

// End is the terminal pseudo-node. Edges and routers may target it.
const End = "__end__"

// Predicate decides whether an edge is taken. A nil predicate always matches.
type Predicate[S any] func(state S) bool

// Router names the next node. The result must be one of the destinations
// declared with AddRouter.
type Router[S any] func(state S) string

// Edge is a conditional transition between two nodes.
type Edge[S any] struct {
	From      string
	To        string
	Predicate Predicate[S]
}

type route[S any] struct {
	router       Router[S]
	destinations map[string]bool
}

// Always matches every state.
func Always[S any]() Predicate[S] {
	return func(S) bool { return true }
}

// Not inverts a predicate.
func Not[S any](p Predicate[S]) Predicate[S] {
	return func(s S) bool { return !p(s) }
}
