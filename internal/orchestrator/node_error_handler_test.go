package orchestrator

import (
	"context"
	"testing"
)

func TestErrorHandlerNode_RoutesToResponder(t *testing.T) {
	node := &ErrorHandlerNode{}
	state := State{Err: &StateError{Kind: ErrRequiredAgentFailed, Recoverable: false}}

	result := node.Run(context.Background(), state)

	if result.Route.To != "responder" {
		t.Errorf("route.To = %q, want responder", result.Route.To)
	}
	if result.Delta.Err == nil {
		t.Error("expected error to remain on the state record for Responder to read")
	}
}

func TestErrorHandlerNode_StampsInternalErrorWhenNoneAttached(t *testing.T) {
	node := &ErrorHandlerNode{}

	result := node.Run(context.Background(), State{})

	if result.Delta.Err == nil || result.Delta.Err.Kind != ErrInternal {
		t.Fatalf("expected a stamped internal error, got %+v", result.Delta.Err)
	}
	if result.Route.To != "responder" {
		t.Errorf("route.To = %q, want responder", result.Route.To)
	}
}
