package orchestrator

import "strings"

// keywordIntent is the deterministic fallback classifier, used only when the
// language model is unavailable or its structured output fails to parse
// after one re-parse attempt.
func keywordIntent(query string) ActionType {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, "차트", "chart", "그래프", "graph"):
		return ActionVisualization
	case containsAny(q, "주가", "price", "시세", "quote"):
		return ActionData
	case containsAny(q, "분석", "analysis", "analyze", "평가", "투자의견"):
		return ActionAnalysis
	case containsAny(q, "뉴스", "news", "소식"):
		return ActionNews
	case isDefinitionPattern(q):
		return ActionKnowledge
	default:
		return ActionGeneral
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// isDefinitionPattern recognizes term-definition queries such as "PER이
// 뭐야?" or "what is PBR".
func isDefinitionPattern(q string) bool {
	return containsAny(q, "뭐야", "무엇", "what is", "란?", "이란", "정의")
}

// keywordRequiredAgents maps a fallback-classified intent to the agents that
// handle it: analysis and visualization also need data first.
func keywordRequiredAgents(intent ActionType) []string {
	switch intent {
	case ActionData:
		return []string{AgentData}
	case ActionAnalysis:
		return []string{AgentData, AgentAnalysis}
	case ActionNews:
		return []string{AgentNews}
	case ActionKnowledge:
		return []string{AgentKnowledge}
	case ActionVisualization:
		return []string{AgentData, AgentVisualization}
	default:
		return nil
	}
}
