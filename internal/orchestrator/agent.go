package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// Agent is the uniform contract every worker agent implements. Agents are
// pure with respect to the state record: they read a snapshot and return a
// payload; the ParallelExecutor is the only thing that writes into
// State.AgentResults.
type Agent interface {
	Name() string
	Process(ctx context.Context, query string, snapshot State) AgentResult
}

// runTimed wraps an agent body, filling in Agent/ElapsedMs and converting a
// returned error into a failed AgentResult. A panic in the body (for example
// a call through a nil capability) becomes a permanent_external failure.
func runTimed(agent string, fn func() (interface{}, *StateError)) (result AgentResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			stateErr := &StateError{Kind: ErrPermanentExternal, Node: agent, Message: fmt.Sprintf("agent panicked: %v", r), Recoverable: true}
			result = AgentResult{Agent: agent, Success: false, Error: stateErr, ElapsedMs: time.Since(start).Milliseconds()}
		}
	}()
	payload, stateErr := fn()
	elapsed := time.Since(start).Milliseconds()

	if stateErr != nil {
		return AgentResult{Agent: agent, Success: false, Error: stateErr, ElapsedMs: elapsed}
	}
	return AgentResult{Agent: agent, Success: true, Payload: payload, ElapsedMs: elapsed}
}
