package orchestrator

// Reduce merges a node's delta into the accumulated state under the
// record's invariants: once AgentResults[K] is set it is never overwritten,
// Trace only grows, and a node only ever sets the field(s) it owns (so a
// nil pointer in delta means "this node didn't touch that field").
func Reduce(prev, delta State) State {
	if delta.Query != "" {
		prev.Query = delta.Query
	}
	if delta.SessionID != "" {
		prev.SessionID = delta.SessionID
	}
	if delta.UserID != "" {
		prev.UserID = delta.UserID
	}
	if delta.Analysis != nil {
		prev.Analysis = delta.Analysis
	}
	if delta.Plan != nil {
		prev.Plan = delta.Plan
	}
	if len(delta.AgentResults) > 0 {
		if prev.AgentResults == nil {
			prev.AgentResults = make(map[string]AgentResult, len(delta.AgentResults))
		}
		for agent, result := range delta.AgentResults {
			if _, exists := prev.AgentResults[agent]; exists {
				continue // once set, never overwritten
			}
			prev.AgentResults[agent] = result
		}
	}
	if delta.FinancialData != nil {
		prev.FinancialData = delta.FinancialData
	}
	if len(delta.NewsData) > 0 {
		prev.NewsData = delta.NewsData
	}
	if delta.AnalysisResult != nil {
		prev.AnalysisResult = delta.AnalysisResult
	}
	if delta.KnowledgeContext != nil {
		prev.KnowledgeContext = delta.KnowledgeContext
	}
	if delta.Chart != nil {
		prev.Chart = delta.Chart
	}
	if delta.SimpleShortCircuit != nil {
		prev.SimpleShortCircuit = delta.SimpleShortCircuit
	}
	if delta.Combined != nil {
		prev.Combined = delta.Combined
	}
	if delta.ConfidenceReport != nil {
		prev.ConfidenceReport = delta.ConfidenceReport
	}
	if delta.Err != nil {
		prev.Err = delta.Err
	}
	if len(delta.Trace) > 0 {
		prev.Trace = append(prev.Trace, delta.Trace...)
	}
	return prev
}
