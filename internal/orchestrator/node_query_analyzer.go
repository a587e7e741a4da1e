package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

const queryAnalyzerSystemPrompt = `You classify a financial question. Respond with JSON only:
{"primary_intent": "data|analysis|news|knowledge|visualization|general",
 "complexity": "simple|moderate|complex",
 "required_agents": ["data","analysis","news","knowledge","visualization"],
 "confidence": 0.0,
 "is_investment": false}`

// QueryAnalyzerNode classifies the query into intent/complexity/required
// agents, preferring the language model and falling back to deterministic
// keyword classification when the model is unavailable or its output fails
// to parse after one re-parse attempt.
type QueryAnalyzerNode struct {
	LM      LanguageModel
	Metrics *graph.PrometheusMetrics
}

func NewQueryAnalyzerNode(lm LanguageModel, metrics *graph.PrometheusMetrics) *QueryAnalyzerNode {
	return &QueryAnalyzerNode{LM: lm, Metrics: metrics}
}

func (n *QueryAnalyzerNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	start := time.Now()
	query := strings.TrimSpace(state.Query)

	if query == "" {
		return traceResult(state, "query_analyzer", start, "error", State{
			Err: &StateError{Kind: ErrInvalidInput, Node: "query_analyzer", Message: "empty query", Recoverable: false},
		})
	}

	analysis := n.classify(ctx, query)

	delta := State{Analysis: analysis}
	return traceResult(state, "query_analyzer", start, "ok", delta)
}

func (n *QueryAnalyzerNode) classify(ctx context.Context, query string) *Analysis {
	if n.LM != nil {
		if analysis := n.classifyWithLM(ctx, query); analysis != nil {
			return analysis
		}
	}
	return n.classifyWithKeywords(query)
}

type llmAnalysis struct {
	PrimaryIntent  string   `json:"primary_intent"`
	Complexity     string   `json:"complexity"`
	RequiredAgents []string `json:"required_agents"`
	Confidence     float64  `json:"confidence"`
	IsInvestment   bool     `json:"is_investment"`
}

// classifyWithLM asks the language model once, and allows exactly one
// re-parse attempt on malformed JSON before giving up to the keyword
// fallback.
func (n *QueryAnalyzerNode) classifyWithLM(ctx context.Context, query string) *Analysis {
	for attempt := 0; attempt < 2; attempt++ {
		text, err := withRetry(ctx, nodeQueryAnalyzer, n.Metrics, func() (string, error) {
			return n.LM.Complete(ctx, queryAnalyzerSystemPrompt, query, 0, 300)
		})
		if err != nil {
			return nil
		}
		var parsed llmAnalysis
		if jsonErr := json.Unmarshal([]byte(extractJSON(text)), &parsed); jsonErr != nil {
			continue
		}
		return normalizeAnalysis(parsed)
	}
	return nil
}

func (n *QueryAnalyzerNode) classifyWithKeywords(query string) *Analysis {
	intent := keywordIntent(query)
	required := keywordRequiredAgents(intent)
	complexity := ComplexitySimple
	if len(required) > 1 {
		complexity = ComplexityModerate
	}
	next := ""
	if len(required) > 0 {
		next = required[0]
	}
	return &Analysis{
		PrimaryIntent:  intent,
		Complexity:     complexity,
		RequiredAgents: required,
		Confidence:     0.6,
		IsInvestment:   intent == ActionAnalysis,
		NextAgent:      next,
	}
}

var knownIntents = map[string]ActionType{
	"data": ActionData, "analysis": ActionAnalysis, "news": ActionNews,
	"knowledge": ActionKnowledge, "visualization": ActionVisualization, "general": ActionGeneral,
}

func normalizeAnalysis(p llmAnalysis) *Analysis {
	intent, ok := knownIntents[p.PrimaryIntent]
	if !ok {
		intent = ActionGeneral
	}
	complexity := Complexity(p.Complexity)
	switch complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
	default:
		complexity = ComplexityModerate
	}
	confidence := p.Confidence
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	required := p.RequiredAgents
	if len(required) == 0 {
		required = keywordRequiredAgents(intent)
	}
	next := ""
	if len(required) > 0 {
		next = required[0]
	}
	return &Analysis{
		PrimaryIntent:  intent,
		Complexity:     complexity,
		RequiredAgents: required,
		Confidence:     confidence,
		IsInvestment:   p.IsInvestment,
		NextAgent:      next,
	}
}

// extractJSON trims any prose the model wrapped around the JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
