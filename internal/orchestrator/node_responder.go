package orchestrator

import (
	"context"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// ResponderNode is the terminal node: it records its trace entry and stops
// the run. Orchestrate then packs the final state into the caller-facing
// Response with buildResponse. It makes no network or model calls.
type ResponderNode struct{}

func (n *ResponderNode) Run(_ context.Context, state State) graph.NodeResult[State] {
	start := time.Now()

	result := traceResult(state, "responder", start, "ok", State{})
	result.Route = graph.Stop()
	return result
}

// buildResponse derives the terminal Response from whichever path the
// request took: an unrecoverable error, the DataAgent short-circuit, or the
// full combine/confidence pipeline.
func buildResponse(state State) Response {
	if state.Err != nil && !state.Err.Recoverable {
		return Response{
			Reply:      UserSafeMessage(state.Err.Kind),
			ActionType: ActionError,
			Confidence: 0,
			Grade:      GradeF,
		}
	}

	if state.SimpleShortCircuit != nil && state.SimpleShortCircuit.Active {
		return Response{
			Reply:         state.SimpleShortCircuit.Reply,
			ActionType:    ActionData,
			ActionPayload: state.FinancialData,
			Confidence:    1,
			Grade:         GradeA,
		}
	}

	var reply string
	var sources []Citation
	var confidence float64
	var grade Grade = GradeF

	if state.Combined != nil {
		reply = state.Combined.Reply
		sources = state.Combined.Sources
	}
	if state.ConfidenceReport != nil {
		confidence = state.ConfidenceReport.Score
		grade = state.ConfidenceReport.Grade
	}

	actionType := ActionGeneral
	var payload interface{}
	if state.Analysis != nil {
		actionType = state.Analysis.PrimaryIntent
	}
	if state.Chart != nil {
		payload = state.Chart
	}

	var chartPNG []byte
	if state.Chart != nil {
		chartPNG = state.Chart.PNG
	}

	return Response{
		Reply:              reply,
		ActionType:         actionType,
		ActionPayload:      payload,
		Chart:              chartPNG,
		RetrievedDocuments: sources,
		Confidence:         confidence,
		Grade:              grade,
	}
}
