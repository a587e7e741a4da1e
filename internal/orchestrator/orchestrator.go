package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/KE-WhyNot/BE-LLM/graph"
	"github.com/KE-WhyNot/BE-LLM/graph/emit"
	"github.com/KE-WhyNot/BE-LLM/graph/store"
)

const (
	nodeQueryAnalyzer    = "query_analyzer"
	nodeServicePlanner   = "service_planner"
	nodeParallelExecutor = "parallel_executor"
	nodeResultCombiner   = "result_combiner"
	nodeConfidenceCalc   = "confidence_calculator"
	nodeResponder        = "responder"
	nodeErrorHandler     = "error_handler"
)

// Orchestrator wires the seven meta-nodes and five worker agents into a
// graph.Engine and exposes the single Orchestrate entry point.
type Orchestrator struct {
	engine *graph.Engine[State]
	config Config
}

// New builds an Orchestrator from a set of external capabilities and
// tunables. Capabilities left nil degrade their dependent agent to a
// permanent_external failure rather than panicking.
func New(caps Capabilities, cfg Config, runStore store.RunStore[State], metrics *graph.PrometheusMetrics) (*Orchestrator, error) {
	cfg = cfg.withDefaults()

	var tracer Tracer = caps.Tracer
	var emitter emit.Emitter = emit.NewNullEmitter()
	if tracer != nil {
		emitter = &tracerEmitter{tracer: tracer}
	}

	engine := graph.New[State](Reduce, runStore, emitter, graph.Options{
		MaxHops:            cfg.MaxGraphHops,
		DefaultNodeTimeout: cfg.DefaultAgentTimeout,
		RunWallClockBudget: cfg.RequestTimeout,
		Metrics:            metrics,
		ErrorNode:          nodeErrorHandler,
	})

	agents := map[string]Agent{
		AgentData:          &DataAgent{Symbols: caps.SymbolLookup, Market: caps.MarketData, Metrics: metrics},
		AgentAnalysis:      &AnalysisAgent{Index: caps.SemanticIndex, NewsGraph: caps.NewsGraph, LM: caps.LanguageModel, TopK: cfg.KnowledgeTopK, MinScore: cfg.NewsMinScore, Metrics: metrics},
		AgentNews:          &NewsAgent{NewsGraph: caps.NewsGraph, Feed: caps.NewsFeed, Translator: caps.Translator, TopK: cfg.NewsTopK, MinScore: cfg.NewsMinScore, DedupThreshold: cfg.SimilarityDedupThreshold, Metrics: metrics},
		AgentKnowledge:     &KnowledgeAgent{Index: caps.SemanticIndex, LM: caps.LanguageModel, TopK: cfg.KnowledgeTopK, MinScore: cfg.NewsMinScore, Metrics: metrics},
		AgentVisualization: &VisualizationAgent{Renderer: caps.ChartRenderer, Metrics: metrics},
	}

	nodes := map[string]graph.Node[State]{
		nodeQueryAnalyzer:    NewQueryAnalyzerNode(caps.LanguageModel, metrics),
		nodeServicePlanner:   &ServicePlannerNode{},
		nodeParallelExecutor: NewParallelExecutorNode(agents, cfg, metrics),
		nodeResultCombiner:   &ResultCombinerNode{LM: caps.LanguageModel, Metrics: metrics},
		nodeConfidenceCalc:   &ConfidenceCalculatorNode{LM: caps.LanguageModel, Config: cfg, Metrics: metrics},
		nodeResponder:        &ResponderNode{},
		nodeErrorHandler:     &ErrorHandlerNode{},
	}
	for id, node := range nodes {
		if err := engine.Add(id, node); err != nil {
			return nil, err
		}
	}
	if err := engine.StartAt(nodeQueryAnalyzer); err != nil {
		return nil, err
	}

	type routeEdge struct {
		from, to string
		when     graph.Predicate[State]
	}
	edges := []routeEdge{
		{nodeQueryAnalyzer, nodeErrorHandler, unrecoverable},
		{nodeQueryAnalyzer, nodeServicePlanner, recoverableOrClear},

		{nodeServicePlanner, nodeErrorHandler, unrecoverable},
		{nodeServicePlanner, nodeParallelExecutor, recoverableOrClear},

		{nodeParallelExecutor, nodeErrorHandler, unrecoverable},
		{nodeParallelExecutor, nodeResponder, simpleShortCircuitActive},
		{nodeParallelExecutor, nodeResultCombiner, continuesToCombiner},

		{nodeResultCombiner, nodeErrorHandler, unrecoverable},
		{nodeResultCombiner, nodeConfidenceCalc, recoverableOrClear},

		{nodeConfidenceCalc, nodeErrorHandler, unrecoverable},
		{nodeConfidenceCalc, nodeResponder, recoverableOrClear},
	}
	for _, e := range edges {
		if err := engine.Connect(e.from, e.to, e.when); err != nil {
			return nil, err
		}
	}

	return &Orchestrator{engine: engine, config: cfg}, nil
}

func unrecoverable(state State) bool      { return hasUnrecoverableError(state) }
func recoverableOrClear(state State) bool { return !hasUnrecoverableError(state) }

func simpleShortCircuitActive(state State) bool {
	return state.SimpleShortCircuit != nil && state.SimpleShortCircuit.Active
}

func continuesToCombiner(state State) bool {
	return recoverableOrClear(state) && !simpleShortCircuitActive(state)
}

// Orchestrate runs one query through the graph end to end and returns the
// caller-facing Response.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) (Response, error) {
	runID := uuid.NewString()

	initial := State{
		Query:     req.Query,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	}

	final, err := o.engine.Run(ctx, runID, initial)
	if err != nil {
		return Response{
			Reply:      UserSafeMessage(ErrInternal),
			ActionType: ActionError,
			Grade:      GradeF,
		}, err
	}

	return buildResponse(final), nil
}

// tracerEmitter adapts the domain's narrow Tracer onto graph/emit.Emitter so
// Engine.Run can drive it directly.
type tracerEmitter struct {
	tracer Tracer
}

func (t *tracerEmitter) Emit(event emit.Event) {
	t.tracer.Emit(Span{
		RunID:   event.RunID,
		Node:    event.NodeID,
		Outcome: event.Msg,
		Attrs:   event.Meta,
	})
}

func (t *tracerEmitter) EmitBatch(_ context.Context, events []emit.Event) error {
	for _, event := range events {
		t.Emit(event)
	}
	return nil
}

func (t *tracerEmitter) Flush(_ context.Context) error { return nil }
