package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// VisualizationAgent selects a chart type from query hints and the shape of
// the financial data already gathered, then renders it. Rendering failure
// is never raised as an error — it's reported as success=false.
type VisualizationAgent struct {
	Renderer ChartRenderer
	Metrics  *graph.PrometheusMetrics
}

func (a *VisualizationAgent) Name() string { return AgentVisualization }

func (a *VisualizationAgent) Process(ctx context.Context, query string, snapshot State) AgentResult {
	return runTimed(AgentVisualization, func() (interface{}, *StateError) {
		kind := selectChartKind(query, snapshot.FinancialData)
		series := buildSeries(snapshot.FinancialData)

		png, err := withRetry(ctx, AgentVisualization, a.Metrics, func() ([]byte, error) {
			return a.Renderer.Render(ctx, series, kind)
		})
		if err != nil {
			return nil, &StateError{Kind: ErrRenderFailed, Node: AgentVisualization, Message: err.Error(), Recoverable: true}
		}

		return &ChartResult{
			PNG:     png,
			Caption: captionFor(snapshot.FinancialData, kind),
			Kind:    kind,
		}, nil
	})
}

func selectChartKind(query string, data *FinancialData) string {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "캔들", "candlestick"):
		return "candlestick"
	case containsAny(q, "막대", "bar"):
		return "bar"
	default:
		return "line"
	}
}

func buildSeries(data *FinancialData) []Series {
	if data == nil {
		return nil
	}
	return []Series{{
		Name:   data.Symbol,
		Labels: []string{"price"},
		Values: []float64{data.Price},
	}}
}

func captionFor(data *FinancialData, kind string) string {
	if data == nil {
		return fmt.Sprintf("%s chart", kind)
	}
	return fmt.Sprintf("%s — %s chart", data.Symbol, kind)
}
