package orchestrator

import "time"

// Agent names. The executor treats these as opaque strings; only the
// meta-nodes that consume AgentResult payloads know what's inside each one.
const (
	AgentData          = "data"
	AgentAnalysis      = "analysis"
	AgentNews          = "news"
	AgentKnowledge     = "knowledge"
	AgentVisualization = "visualization"
)

// Complexity is QueryAnalyzer's judgement of how much work a query needs.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// PlanMode is ServicePlanner's chosen execution shape.
type PlanMode string

const (
	PlanSingle     PlanMode = "single"
	PlanSequential PlanMode = "sequential"
	PlanHybrid     PlanMode = "hybrid"
)

// Analysis is QueryAnalyzer's output, attached to State.Analysis.
type Analysis struct {
	PrimaryIntent  ActionType
	Complexity     Complexity
	RequiredAgents []string
	Confidence     float64
	IsInvestment   bool
	NextAgent      string
}

// Stage is one scheduling unit: a set of agent names run concurrently.
type Stage struct {
	Agents []string
}

// Plan is ServicePlanner's output, attached to State.Plan.
type Plan struct {
	Mode        PlanMode
	Stages      []Stage
	EstimatedMs int
}

// AgentResult is the uniform result shape every worker agent returns, so the
// executor and downstream meta-nodes never need to know agent-specific
// payload types.
type AgentResult struct {
	Agent     string
	Success   bool
	Payload   interface{}
	Error     *StateError
	ElapsedMs int64
}

// FinancialData is DataAgent's payload.
type FinancialData struct {
	Symbol    string
	Price     float64
	ChangePct float64
	Volume    int64
	PER       float64
	PBR       float64
	ROE       float64
	MarketCap float64
	Sector    string
}

// NewsItem is one entry in NewsAgent's merged result list.
type NewsItem struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Language    string
	Body        string
	Relevance   float64
	Score       float64
}

// AnalysisResult is AnalysisAgent's payload.
type AnalysisResult struct {
	Rating     int // 1..5
	Rationale  string
	Sources    []Citation
	Disclaimer string
}

// KnowledgeResult is KnowledgeAgent's payload.
type KnowledgeResult struct {
	Explanation string
	Examples    []string
	Caveat      string
	Sources     []Citation
}

// ChartResult is VisualizationAgent's payload.
type ChartResult struct {
	PNG     []byte
	Caption string
	Kind    string
}

// ShortCircuit marks that DataAgent already produced a final reply and the
// remaining meta-nodes (ResultCombiner, ConfidenceCalculator) should be
// bypassed, routing straight to Responder.
type ShortCircuit struct {
	Active bool
	Reply  string
}

// Combined is ResultCombiner's output.
type Combined struct {
	Reply   string
	Sources []Citation
	// Degraded is true when the language model fell back to the
	// deterministic template (never an error, but worth recording).
	Degraded bool
}

// ConfidenceReport is ConfidenceCalculator's output.
type ConfidenceReport struct {
	Score     float64
	Grade     Grade
	Subscores map[string]float64
	Warnings  []string
}

// TraceEntry is one node's execution record. Each node returns its entry in
// its delta (see traceResult) and Reduce appends it; entries are never removed.
type TraceEntry struct {
	Node    string
	Start   time.Time
	End     time.Time
	Outcome string
}

// State is the per-request record carried through the graph. Fields are
// written by exactly the node named in the comment; no node overwrites
// another node's field, and AgentResults/Trace entries are never removed
// once present (see Reduce in reducer.go).
type State struct {
	// entry
	Query     string
	SessionID string
	UserID    string

	Analysis     *Analysis              // QueryAnalyzer
	Plan         *Plan                  // ServicePlanner
	AgentResults map[string]AgentResult // ParallelExecutor

	FinancialData      *FinancialData   // DataAgent
	NewsData           []NewsItem       // NewsAgent
	AnalysisResult     *AnalysisResult  // AnalysisAgent
	KnowledgeContext   *KnowledgeResult // KnowledgeAgent
	Chart              *ChartResult     // VisualizationAgent
	SimpleShortCircuit *ShortCircuit    // DataAgent

	Combined         *Combined         // ResultCombiner
	ConfidenceReport *ConfidenceReport // ConfidenceCalculator

	Err *StateError // any node

	Trace []TraceEntry // runtime, append-only
}
