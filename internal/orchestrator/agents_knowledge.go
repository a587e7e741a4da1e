package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// KnowledgeAgent answers term-definition questions from the semantic index,
// requiring at least one hit above a minimum score.
type KnowledgeAgent struct {
	Index    SemanticIndex
	LM       LanguageModel
	TopK     int
	MinScore float64
	Metrics  *graph.PrometheusMetrics
}

func (a *KnowledgeAgent) Name() string { return AgentKnowledge }

func (a *KnowledgeAgent) Process(ctx context.Context, query string, snapshot State) AgentResult {
	return runTimed(AgentKnowledge, func() (interface{}, *StateError) {
		hits, err := withRetry(ctx, AgentKnowledge, a.Metrics, func() ([]Citation, error) {
			return a.Index.Search(ctx, query, a.TopK, a.MinScore)
		})
		if err != nil {
			return nil, classifyCollaboratorError(AgentKnowledge, err)
		}
		if len(hits) == 0 {
			return nil, &StateError{Kind: ErrNoContext, Node: AgentKnowledge, Message: "no snippet met the minimum score", Recoverable: true}
		}

		system := "Explain the financial term using the provided context. Include at least one " +
			"concrete example and end with a short caveat about the limits of the explanation."
		user := formatKnowledgePrompt(query, hits)

		text, err := withRetry(ctx, AgentKnowledge, a.Metrics, func() (string, error) {
			return a.LM.Complete(ctx, system, user, 0.2, 500)
		})
		if err != nil {
			return nil, classifyCollaboratorError(AgentKnowledge, err)
		}

		return &KnowledgeResult{
			Explanation: text,
			Examples:    extractExamples(text),
			Caveat:      lastSentence(text),
			Sources:     hits,
		}, nil
	})
}

func formatKnowledgePrompt(query string, hits []Citation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", query)
	for _, h := range hits {
		fmt.Fprintf(&b, "Context[%s score=%.2f]: %s\n", h.Source, h.Score, h.Snippet)
	}
	return b.String()
}

func extractExamples(text string) []string {
	var examples []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "예:") {
			examples = append(examples, trimmed)
		}
	}
	return examples
}

func lastSentence(text string) string {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' })
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}
