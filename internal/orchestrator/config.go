package orchestrator

import "time"

// Config carries the orchestrator's tunable options. Zero values are valid;
// New fills in the documented defaults via withDefaults.
type Config struct {
	// WorkerPoolSize bounds the ParallelExecutor's concurrent agent tasks.
	// Default: 8.
	WorkerPoolSize int

	// AgentTimeouts overrides the per-agent deadline. Agents absent from the
	// map use DefaultAgentTimeout.
	AgentTimeouts map[string]time.Duration

	// DefaultAgentTimeout is used for any agent not present in AgentTimeouts.
	// Default: 30s.
	DefaultAgentTimeout time.Duration

	// RequestTimeout bounds an entire Orchestrate call. Default: 120s.
	RequestTimeout time.Duration

	// MaxGraphHops bounds node invocations per request (cycle guard).
	// Default: 32.
	MaxGraphHops int

	// NewsTopK bounds how many news items NewsAgent returns. Default: 10.
	NewsTopK int

	// NewsMinScore filters low-relevance news items. Default: 0.
	NewsMinScore float64

	// KnowledgeTopK bounds how many snippets KnowledgeAgent/AnalysisAgent
	// request from the semantic index. Default: 3.
	KnowledgeTopK int

	// SimilarityDedupThreshold is the title-Jaccard cutoff NewsAgent uses to
	// drop near-duplicate articles. Default: 0.9.
	SimilarityDedupThreshold float64

	// ConfidenceThresholds are the four grade cutoffs, in A/B/C/D order.
	// Default: 0.90/0.75/0.60/0.45.
	ConfidenceThresholds [4]float64
}

// defaultAgentTimeouts mirrors §5's per-agent deadline table: DataAgent 10s,
// VisualizationAgent 20s, everything else falls back to DefaultAgentTimeout.
func defaultAgentTimeouts() map[string]time.Duration {
	return map[string]time.Duration{
		AgentData:          10 * time.Second,
		AgentVisualization: 20 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = 8
	}
	if c.AgentTimeouts == nil {
		c.AgentTimeouts = defaultAgentTimeouts()
	}
	if c.DefaultAgentTimeout == 0 {
		c.DefaultAgentTimeout = 30 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 120 * time.Second
	}
	if c.MaxGraphHops == 0 {
		c.MaxGraphHops = 32
	}
	if c.NewsTopK == 0 {
		c.NewsTopK = 10
	}
	if c.KnowledgeTopK == 0 {
		c.KnowledgeTopK = 3
	}
	if c.SimilarityDedupThreshold == 0 {
		c.SimilarityDedupThreshold = 0.9
	}
	if c.ConfidenceThresholds == ([4]float64{}) {
		c.ConfidenceThresholds = [4]float64{0.90, 0.75, 0.60, 0.45}
	}
	return c
}

// AgentTimeout returns the configured deadline for agent, falling back to
// DefaultAgentTimeout.
func (c Config) AgentTimeout(agent string) time.Duration {
	if d, ok := c.AgentTimeouts[agent]; ok {
		return d
	}
	return c.DefaultAgentTimeout
}

// GradeForConfidence derives a Grade from a confidence score using
// ConfidenceThresholds (A/B/C/D cutoffs in that order, else F). A zero-value
// Config (bypassing withDefaults) falls back to 0.90/0.75/0.60/0.45.
func (c Config) GradeForConfidence(confidence float64) Grade {
	thresholds := c.ConfidenceThresholds
	if thresholds == ([4]float64{}) {
		thresholds = [4]float64{0.90, 0.75, 0.60, 0.45}
	}
	switch {
	case confidence >= thresholds[0]:
		return GradeA
	case confidence >= thresholds[1]:
		return GradeB
	case confidence >= thresholds[2]:
		return GradeC
	case confidence >= thresholds[3]:
		return GradeD
	default:
		return GradeF
	}
}
