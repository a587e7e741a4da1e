package orchestrator

import (
	"context"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// ErrorHandlerNode is the single place every meta-node's fault edge points
// to. Recoverable errors were already recorded by the node that produced
// them and never reach here (the routing table only sends unrecoverable
// ones this way); ErrorHandlerNode's job is to stamp a final trace entry and
// hand off straight to Responder, skipping any node still pending.
type ErrorHandlerNode struct{}

func (n *ErrorHandlerNode) Run(_ context.Context, state State) graph.NodeResult[State] {
	start := time.Now()

	outcome := "ok"
	if state.Err == nil {
		// Reached with no error attached (e.g. a node-level engine fault) —
		// record it as an internal error so Responder has something to report.
		state.Err = &StateError{Kind: ErrInternal, Node: "error_handler", Message: "diverted with no error attached", Recoverable: false}
		outcome = "error"
	}

	delta := State{Err: state.Err}
	result := traceResult(state, "error_handler", start, outcome, delta)
	result.Route = graph.Goto("responder")
	return result
}
