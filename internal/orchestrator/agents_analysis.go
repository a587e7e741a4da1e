package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

const analysisDisclaimer = "본 내용은 투자 판단을 위한 참고 자료이며 투자 권유가 아닙니다."

// AnalysisAgent consumes financial_data (required), pulls analytical context
// from the semantic index and similar articles from the news graph, then
// asks the language model for a judgement with a required disclaimer.
type AnalysisAgent struct {
	Index     SemanticIndex
	NewsGraph NewsGraph
	LM        LanguageModel
	TopK      int
	MinScore  float64
	Metrics   *graph.PrometheusMetrics
}

func (a *AnalysisAgent) Name() string { return AgentAnalysis }

func (a *AnalysisAgent) Process(ctx context.Context, query string, snapshot State) AgentResult {
	return runTimed(AgentAnalysis, func() (interface{}, *StateError) {
		if snapshot.FinancialData == nil {
			return nil, &StateError{Kind: ErrRequiredAgentFailed, Node: AgentAnalysis, Message: "financial_data is required for analysis", Recoverable: false}
		}

		snippets, err := withRetry(ctx, AgentAnalysis, a.Metrics, func() ([]Citation, error) {
			return a.Index.Search(ctx, query, a.TopK, a.MinScore)
		})
		if err != nil {
			return nil, classifyCollaboratorError(AgentAnalysis, err)
		}

		var articles []Article
		if a.NewsGraph != nil {
			articles, _ = a.NewsGraph.Similar(ctx, nil, a.TopK, a.MinScore)
		}

		system := "You are a financial analyst. Provide a 1-5 rating, a short rationale, " +
			"and always end with the exact disclaimer: " + analysisDisclaimer
		user := formatAnalysisPrompt(query, snapshot.FinancialData, snippets, articles)

		text, err := withRetry(ctx, AgentAnalysis, a.Metrics, func() (string, error) {
			return a.LM.Complete(ctx, system, user, 0.3, 600)
		})
		if err != nil {
			return nil, classifyCollaboratorError(AgentAnalysis, err)
		}

		result := &AnalysisResult{
			Rating:     parseRating(text),
			Rationale:  text,
			Sources:    snippets,
			Disclaimer: analysisDisclaimer,
		}
		if !strings.Contains(result.Rationale, analysisDisclaimer) {
			result.Rationale += "\n\n" + analysisDisclaimer
		}
		return result, nil
	})
}

func formatAnalysisPrompt(query string, data *FinancialData, snippets []Citation, articles []Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Symbol: %s Price: %.2f Change: %.2f%% PER: %.2f PBR: %.2f ROE: %.2f\n",
		data.Symbol, data.Price, data.ChangePct, data.PER, data.PBR, data.ROE)
	for _, s := range snippets {
		fmt.Fprintf(&b, "Context[%s score=%.2f]: %s\n", s.Source, s.Score, s.Snippet)
	}
	for _, art := range articles {
		fmt.Fprintf(&b, "Related article: %s\n", art.Title)
	}
	return b.String()
}

// parseRating extracts a 1-5 rating from free text, defaulting to 3
// (neutral) when none is found.
func parseRating(text string) int {
	for i := 5; i >= 1; i-- {
		if strings.Contains(text, fmt.Sprintf("%d/5", i)) {
			return i
		}
	}
	return 3
}
