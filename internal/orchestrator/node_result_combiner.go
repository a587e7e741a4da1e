package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

const combinerSystemPrompt = `You combine financial sub-agent findings into one coherent reply in Korean.
Order: market data first, then analysis, then news, then background knowledge.
Do not invent numbers that were not given to you. Keep it concise.`

// ResultCombinerNode synthesizes AgentResults into a single reply. It
// prefers the language model and falls back to a deterministic template
// assembly on model failure — that fallback is a degraded success, never an
// error, per the no-diversion rule for recoverable conditions.
type ResultCombinerNode struct {
	LM      LanguageModel
	Metrics *graph.PrometheusMetrics
}

func (n *ResultCombinerNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	start := time.Now()

	if hasUnrecoverableError(state) {
		return traceResult(state, "result_combiner", start, "skipped", State{})
	}
	if state.SimpleShortCircuit != nil && state.SimpleShortCircuit.Active {
		return traceResult(state, "result_combiner", start, "bypassed", State{})
	}

	sources := collectSources(state)
	reply, degraded := n.synthesize(ctx, state, sources)

	delta := State{Combined: &Combined{Reply: reply, Sources: sources, Degraded: degraded}}
	return traceResult(state, "result_combiner", start, "ok", delta)
}

func (n *ResultCombinerNode) synthesize(ctx context.Context, state State, sources []Citation) (string, bool) {
	if n.LM != nil {
		prompt := formatCombinerPrompt(state)
		text, err := withRetry(ctx, nodeResultCombiner, n.Metrics, func() (string, error) {
			return n.LM.Complete(ctx, combinerSystemPrompt, prompt, 0.3, 800)
		})
		if err == nil && strings.TrimSpace(text) != "" {
			return text, false
		}
	}
	return templateReply(state), true
}

func formatCombinerPrompt(state State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", state.Query)
	if fd := state.FinancialData; fd != nil {
		fmt.Fprintf(&b, "Market data: %s price=%.2f change=%.2f%% per=%.2f pbr=%.2f roe=%.2f\n",
			fd.Symbol, fd.Price, fd.ChangePct, fd.PER, fd.PBR, fd.ROE)
	}
	if ar := state.AnalysisResult; ar != nil {
		fmt.Fprintf(&b, "Analysis: rating=%d rationale=%s\n", ar.Rating, ar.Rationale)
	}
	for _, item := range state.NewsData {
		fmt.Fprintf(&b, "News: %s (%s)\n", item.Title, item.URL)
	}
	if kr := state.KnowledgeContext; kr != nil {
		fmt.Fprintf(&b, "Background: %s\n", kr.Explanation)
	}
	return b.String()
}

// templateReply assembles a deterministic reply, market data -> analysis ->
// news -> knowledge, used when the language model is unavailable or fails.
func templateReply(state State) string {
	var parts []string

	if fd := state.FinancialData; fd != nil {
		parts = append(parts, formatSimpleReply(fd))
	}
	if ar := state.AnalysisResult; ar != nil {
		rationale := ar.Rationale
		if !strings.Contains(rationale, ar.Disclaimer) && ar.Disclaimer != "" {
			rationale = rationale + "\n\n" + ar.Disclaimer
		}
		parts = append(parts, rationale)
	}
	if len(state.NewsData) > 0 {
		var lines []string
		for _, item := range state.NewsData {
			lines = append(lines, fmt.Sprintf("- %s (%s)", item.Title, item.URL))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if kr := state.KnowledgeContext; kr != nil {
		parts = append(parts, kr.Explanation)
	}

	if len(parts) == 0 {
		return "요청하신 정보를 찾지 못했습니다."
	}
	return strings.Join(parts, "\n\n")
}

// collectSources gathers citations from analysis and knowledge results,
// deduplicating by source name.
func collectSources(state State) []Citation {
	seen := map[string]bool{}
	var out []Citation
	add := func(citations []Citation) {
		for _, c := range citations {
			if seen[c.Source] {
				continue
			}
			seen[c.Source] = true
			out = append(out, c)
		}
	}
	if ar := state.AnalysisResult; ar != nil {
		add(ar.Sources)
	}
	if kr := state.KnowledgeContext; kr != nil {
		add(kr.Sources)
	}
	return out
}
