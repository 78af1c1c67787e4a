// Package state provides a typed state graph engine for agent workflows.
//
// A Graph[S, D] owns a set of named nodes. Each node reads the current state
// S and returns a delta D; the graph's Reducer merges the delta into the
// state. Nodes never mutate state directly, so the engine is the only place
// state changes.
//
// Transitions out of a node are either predicate edges, evaluated in the
// order they were added with the first match winning, or a single router
// that names the next node from a declared destination set. A transition to
// End, or finishing a node registered with SetExitPoint, terminates the run.
//
//	g, err := state.NewGraphWithDeps[Snapshot, Delta](cfg, reduce, observer)
//	g.AddNode("classify", classifyNode)
//	g.AddNode("answer", answerNode)
//	g.AddNode("greeting", greetingNode)
//	g.AddRouter("classify", routeIntent, "greeting", "answer")
//	g.AddEdge("answer", state.End, nil)
//	g.SetExitPoint("greeting")
//	g.SetEntryPoint("classify")
//	final, err := g.Execute(ctx, initial)
//
// Cycles are allowed. MaxIterations bounds the number of node executions in
// a single run, and context cancellation is checked before every node.
package state
