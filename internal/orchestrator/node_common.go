package orchestrator

import (
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// traceResult builds a NodeResult carrying delta plus a single appended
// trace entry for nodeName. Routing is left to the engine's edge table
// (empty Route) unless a node explicitly overrides it (e.g. DataAgent's
// short-circuit, Responder's terminal stop).
func traceResult(_ State, nodeName string, start time.Time, outcome string, delta State) graph.NodeResult[State] {
	delta.Trace = append(delta.Trace, TraceEntry{
		Node:    nodeName,
		Start:   start,
		End:     time.Now(),
		Outcome: outcome,
	})
	return graph.NodeResult[State]{Delta: delta}
}

// hasUnrecoverableError reports whether state carries an error that must
// divert remaining execution straight to ErrorHandler/Responder.
func hasUnrecoverableError(state State) bool {
	return state.Err != nil && !state.Err.Recoverable
}
