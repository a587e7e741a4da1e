package orchestrator

import (
	"github.com/KE-WhyNot/BE-LLM/graph/emit"
)

// emitterTracer adapts graph/emit.Emitter to the spec's narrower
// Tracer.Emit(span) shape, so any of the teacher's emitter backends
// (log/null/otel/buffered) can serve as the Tracer capability.
type emitterTracer struct {
	emitter emit.Emitter
}

// NewTracer adapts an emit.Emitter into a Tracer.
func NewTracer(emitter emit.Emitter) Tracer {
	return &emitterTracer{emitter: emitter}
}

func (t *emitterTracer) Emit(span Span) {
	defer func() { _ = recover() }() // Tracer.Emit must never raise

	t.emitter.Emit(emit.Event{
		RunID:  span.RunID,
		NodeID: span.Node,
		Msg:    span.Outcome,
		Meta: map[string]interface{}{
			"start_utc": span.StartUTC,
			"end_utc":   span.EndUTC,
			"attrs":     span.Attrs,
		},
	})
}
