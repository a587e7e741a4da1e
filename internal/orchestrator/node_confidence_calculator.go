package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

const confidenceSystemPrompt = `Score the reply below on four dimensions, each 0-25. Respond with JSON only:
{"completeness": 0, "consistency": 0, "accuracy": 0, "usefulness": 0}`

// ConfidenceCalculatorNode scores Combined.Reply on four 0-25 subscores
// (completeness, consistency, accuracy, usefulness), attaches warnings, and
// derives a letter grade. Malformed model output is coerced to a fixed
// confidence=0.5/grade=C rather than raised as an error.
type ConfidenceCalculatorNode struct {
	LM      LanguageModel
	Config  Config
	Metrics *graph.PrometheusMetrics
}

type confidenceSubscores struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
	Usefulness   float64 `json:"usefulness"`
}

func (n *ConfidenceCalculatorNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	start := time.Now()

	if hasUnrecoverableError(state) {
		return traceResult(state, "confidence_calculator", start, "skipped", State{})
	}
	if state.SimpleShortCircuit != nil && state.SimpleShortCircuit.Active {
		return traceResult(state, "confidence_calculator", start, "bypassed", State{})
	}

	warnings := collectWarnings(state)
	score, subscores, fallback := n.score(ctx, state)
	if fallback {
		warnings = append(warnings, "score_parse_fallback")
	}

	report := &ConfidenceReport{
		Score: score,
		Grade: n.Config.GradeForConfidence(score),
		Subscores: map[string]float64{
			"completeness": subscores.Completeness,
			"consistency":  subscores.Consistency,
			"accuracy":     subscores.Accuracy,
			"usefulness":   subscores.Usefulness,
		},
		Warnings: warnings,
	}
	if fallback {
		report.Grade = GradeC
	}

	delta := State{ConfidenceReport: report}
	return traceResult(state, "confidence_calculator", start, "ok", delta)
}

func (n *ConfidenceCalculatorNode) score(ctx context.Context, state State) (float64, confidenceSubscores, bool) {
	if n.LM == nil || state.Combined == nil {
		return 0.5, confidenceSubscores{}, true
	}

	text, err := withRetry(ctx, nodeConfidenceCalc, n.Metrics, func() (string, error) {
		return n.LM.Complete(ctx, confidenceSystemPrompt, state.Combined.Reply, 0, 120)
	})
	if err != nil {
		return 0.5, confidenceSubscores{}, true
	}

	var parsed confidenceSubscores
	if jsonErr := json.Unmarshal([]byte(extractJSON(text)), &parsed); jsonErr != nil {
		return 0.5, confidenceSubscores{}, true
	}

	parsed = clampSubscores(parsed)
	total := parsed.Completeness + parsed.Consistency + parsed.Accuracy + parsed.Usefulness
	return total / 100.0, parsed, false
}

func clampSubscores(s confidenceSubscores) confidenceSubscores {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 25 {
			return 25
		}
		return v
	}
	return confidenceSubscores{
		Completeness: clamp(s.Completeness),
		Consistency:  clamp(s.Consistency),
		Accuracy:     clamp(s.Accuracy),
		Usefulness:   clamp(s.Usefulness),
	}
}

// collectWarnings flags conditions the spec calls out explicitly: any agent
// failure, zero news retrieved, a missing required disclaimer, or a
// suspiciously short reply.
func collectWarnings(state State) []string {
	var warnings []string

	for agent, result := range state.AgentResults {
		if !result.Success {
			warnings = append(warnings, "agent_failed:"+agent)
		}
	}
	if requiresNews(state.Analysis) && len(state.NewsData) == 0 {
		warnings = append(warnings, "no_news_retrieved")
	}
	if state.AnalysisResult != nil && state.AnalysisResult.Disclaimer == "" {
		warnings = append(warnings, "missing_disclaimer")
	}
	if state.Combined != nil && len(state.Combined.Reply) < 80 {
		warnings = append(warnings, "short_reply")
	}
	return warnings
}

func requiresNews(analysis *Analysis) bool {
	if analysis == nil {
		return false
	}
	return containsString(analysis.RequiredAgents, AgentNews)
}
