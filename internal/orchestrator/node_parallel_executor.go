package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// requiredAgentsByIntent implements "Required agents per intent: data for
// analysis; data for visualization; none otherwise."
func requiredAgentsByIntent(intent ActionType) []string {
	switch intent {
	case ActionAnalysis, ActionVisualization:
		return []string{AgentData}
	default:
		return nil
	}
}

// ParallelExecutorNode runs State.Plan's stages in order, executing the
// agents within a stage concurrently on a fixed-size worker pool shared
// across every request this orchestrator instance serves.
type ParallelExecutorNode struct {
	Agents  map[string]Agent
	Config  Config
	Metrics *graph.PrometheusMetrics

	pool     chan struct{}
	poolOnce sync.Once

	queued   atomic.Int64
	inflight atomic.Int64
}

func NewParallelExecutorNode(agents map[string]Agent, cfg Config, metrics *graph.PrometheusMetrics) *ParallelExecutorNode {
	return &ParallelExecutorNode{Agents: agents, Config: cfg, Metrics: metrics}
}

func (n *ParallelExecutorNode) ensurePool() chan struct{} {
	n.poolOnce.Do(func() {
		size := n.Config.WorkerPoolSize
		if size <= 0 {
			size = 8
		}
		n.pool = make(chan struct{}, size)
	})
	return n.pool
}

func (n *ParallelExecutorNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	start := time.Now()

	if hasUnrecoverableError(state) || state.Plan == nil {
		return traceResult(state, "parallel_executor", start, "skipped", State{})
	}

	pool := n.ensurePool()
	results := make(map[string]AgentResult, len(state.AgentResults))
	for k, v := range state.AgentResults {
		results[k] = v
	}

	var requiredFailure *StateError

	for _, stage := range state.Plan.Stages {
		stageResults := n.runStage(ctx, pool, stage, mergeResultsIntoState(state, results))
		for agent, result := range stageResults {
			if _, exists := results[agent]; !exists {
				results[agent] = result
			}
		}

		if fail := firstRequiredFailure(stage, stageResults, state.Analysis); fail != nil {
			requiredFailure = fail
			break
		}

		// DataAgent's simple short-circuit: no further stages are scheduled.
		if IsSimpleRequest(state.Analysis) {
			break
		}
	}

	delta := State{AgentResults: results}
	if dataResult, ok := results[AgentData]; ok {
		if fd, ok := dataResult.Payload.(*FinancialData); ok {
			delta.FinancialData = fd
		}
	}
	if sc := shortCircuitFromResults(state.Analysis, results); sc != nil {
		delta.SimpleShortCircuit = sc
	}
	applyAgentPayloads(&delta, results)

	if requiredFailure != nil {
		delta.Err = requiredFailure
		return traceResult(state, "parallel_executor", start, "error", delta)
	}
	return traceResult(state, "parallel_executor", start, "ok", delta)
}

// mergeResultsIntoState produces the read-only snapshot agents in later
// stages observe: the original state plus every agent_results entry written
// by stages executed so far.
func mergeResultsIntoState(state State, results map[string]AgentResult) State {
	snapshot := state
	snapshot.AgentResults = results
	for agent, result := range results {
		if !result.Success {
			continue
		}
		switch agent {
		case AgentData:
			if fd, ok := result.Payload.(*FinancialData); ok {
				snapshot.FinancialData = fd
			}
		case AgentNews:
			if items, ok := result.Payload.([]NewsItem); ok {
				snapshot.NewsData = items
			}
		case AgentKnowledge:
			if kr, ok := result.Payload.(*KnowledgeResult); ok {
				snapshot.KnowledgeContext = kr
			}
		}
	}
	return snapshot
}

func applyAgentPayloads(delta *State, results map[string]AgentResult) {
	if r, ok := results[AgentNews]; ok && r.Success {
		if items, ok := r.Payload.([]NewsItem); ok {
			delta.NewsData = items
		}
	}
	if r, ok := results[AgentAnalysis]; ok && r.Success {
		if ar, ok := r.Payload.(*AnalysisResult); ok {
			delta.AnalysisResult = ar
		}
	}
	if r, ok := results[AgentKnowledge]; ok && r.Success {
		if kr, ok := r.Payload.(*KnowledgeResult); ok {
			delta.KnowledgeContext = kr
		}
	}
	if r, ok := results[AgentVisualization]; ok && r.Success {
		if cr, ok := r.Payload.(*ChartResult); ok {
			delta.Chart = cr
		}
	}
}

// shortCircuitFromResults builds the DataAgent short-circuit payload when
// the analysis qualifies as simple and DataAgent succeeded.
func shortCircuitFromResults(analysis *Analysis, results map[string]AgentResult) *ShortCircuit {
	if !IsSimpleRequest(analysis) {
		return nil
	}
	dataResult, ok := results[AgentData]
	if !ok || !dataResult.Success {
		return nil
	}
	fd, ok := dataResult.Payload.(*FinancialData)
	if !ok {
		return nil
	}
	return &ShortCircuit{Active: true, Reply: formatSimpleReply(fd)}
}

// runStage launches one goroutine per agent in the stage, bounded by pool,
// and waits for all of them or the stage deadline (the longest per-agent
// timeout among the stage's agents).
func (n *ParallelExecutorNode) runStage(ctx context.Context, pool chan struct{}, stage Stage, snapshot State) map[string]AgentResult {
	stageDeadline := n.stageDeadline(stage)
	stageCtx := ctx
	var cancel context.CancelFunc
	if stageDeadline > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, stageDeadline)
		defer cancel()
	}

	results := make(map[string]AgentResult, len(stage.Agents))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, agentName := range stage.Agents {
		agent, ok := n.Agents[agentName]
		if !ok {
			continue
		}
		wg.Add(1)
		n.queued.Add(1)
		n.reportPoolGauges()
		go func(name string, a Agent) {
			defer wg.Done()

			select {
			case pool <- struct{}{}:
				n.queued.Add(-1)
				n.inflight.Add(1)
				n.reportPoolGauges()
				defer func() {
					<-pool
					n.inflight.Add(-1)
					n.reportPoolGauges()
				}()
			case <-stageCtx.Done():
				n.queued.Add(-1)
				n.reportPoolGauges()
				mu.Lock()
				results[name] = AgentResult{Agent: name, Success: false, Error: &StateError{Kind: ErrCancelled, Node: name, Message: "stage deadline elapsed before a worker became free", Recoverable: true}}
				mu.Unlock()
				return
			}

			agentCtx, agentCancel := context.WithTimeout(stageCtx, n.Config.AgentTimeout(name))
			defer agentCancel()

			result := a.Process(agentCtx, snapshot.Query, snapshot)
			if agentCtx.Err() != nil && !result.Success {
				result.Error = &StateError{Kind: ErrTimeout, Node: name, Message: "agent exceeded its timeout", Recoverable: true}
			}

			mu.Lock()
			results[name] = result
			mu.Unlock()

			if n.Metrics != nil && !result.Success {
				kind := "internal"
				if result.Error != nil {
					kind = string(result.Error.Kind)
				}
				n.Metrics.IncrementAgentFailures(name, kind)
			}
		}(agentName, agent)
	}

	wg.Wait()
	return results
}

// reportPoolGauges publishes the current queued/in-flight agent task counts,
// tracked across every stage and request this node instance serves.
func (n *ParallelExecutorNode) reportPoolGauges() {
	if n.Metrics == nil {
		return
	}
	n.Metrics.SetQueuedAgentTasks(int(n.queued.Load()))
	n.Metrics.SetInflightAgentTasks(int(n.inflight.Load()))
}

func (n *ParallelExecutorNode) stageDeadline(stage Stage) time.Duration {
	var max time.Duration
	for _, agent := range stage.Agents {
		if d := n.Config.AgentTimeout(agent); d > max {
			max = d
		}
	}
	return max
}

// firstRequiredFailure checks whether a required agent for this intent
// failed within stageResults, returning the StateError to install if so.
func firstRequiredFailure(stage Stage, stageResults map[string]AgentResult, analysis *Analysis) *StateError {
	if analysis == nil {
		return nil
	}
	required := requiredAgentsByIntent(analysis.PrimaryIntent)
	for _, reqAgent := range required {
		if !containsString(stage.Agents, reqAgent) {
			continue
		}
		result, ok := stageResults[reqAgent]
		if ok && !result.Success {
			return &StateError{
				Kind:        ErrRequiredAgentFailed,
				Node:        reqAgent,
				Message:     "required agent failed: " + reqAgent,
				Recoverable: false,
			}
		}
	}
	return nil
}
