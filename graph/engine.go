package graph

import (
	"context"
	"sync"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph/emit"
	"github.com/KE-WhyNot/BE-LLM/graph/store"
)

// contextKey is a private type used for context value keys to avoid collisions
// with keys defined by other packages.
type contextKey string

// Context keys propagated to every node invocation.
const (
	// RunIDKey is the context key for the unique workflow run identifier.
	RunIDKey contextKey = "langgraph.run_id"

	// StepIDKey is the context key for the current execution step number.
	StepIDKey contextKey = "langgraph.step_id"

	// NodeIDKey is the context key for the current node identifier.
	NodeIDKey contextKey = "langgraph.node_id"
)

// Reducer merges a partial state update (delta) into the previously accumulated state.
//
// Reducers must be pure and deterministic: the same (prev, delta) pair always
// produces the same result. Common patterns are "replace if non-zero" for
// scalar fields and "append" for slice fields.
type Reducer[S any] func(prev, delta S) S

// Engine drives a state record through a fixed set of nodes according to
// static edges and a node's own explicit routing decision.
//
// Unlike a general dataflow engine, Engine executes exactly one node at a
// time: fan-out/parallelism is the responsibility of individual nodes (see
// the orchestrator's ParallelExecutor, which manages its own worker pool).
// This keeps the engine's merge semantics trivial and deterministic - there
// is never more than one writer to the state record at any instant.
//
// Type parameter S is the state record type shared across the workflow.
type Engine[S any] struct {
	mu sync.RWMutex

	reducer Reducer[S]

	nodes     map[string]Node[S]
	policies  map[string]*NodePolicy
	edges     []Edge[S]
	startNode string

	// store optionally persists a summary of each run for audit/debugging.
	// May be nil, in which case persistence is skipped entirely.
	store store.RunStore[S]

	// emitter receives observability events. Never nil after New (defaults
	// to emit.NewNullEmitter()).
	emitter emit.Emitter

	// metrics optionally records Prometheus-compatible execution metrics.
	metrics *PrometheusMetrics

	opts Options
}

// New creates an Engine with the given reducer, optional run store, and
// optional emitter (a NullEmitter is used when emitter is nil).
func New[S any](reducer Reducer[S], st store.RunStore[S], emitter emit.Emitter, opts Options) *Engine[S] {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Engine[S]{
		reducer:     reducer,
		nodes:       make(map[string]Node[S]),
		policies:    make(map[string]*NodePolicy),
		edges:       make([]Edge[S], 0),
		store:       st,
		emitter:     emitter,
		metrics:     opts.Metrics,
		opts:        opts.withDefaults(),
	}
}

// Add registers a node under nodeID. Returns an error if nodeID is empty,
// node is nil, or a node with this ID is already registered.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty", Code: "INVALID_NODE_ID"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil", Code: "NIL_NODE", NodeID: nodeID}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{Message: "node already registered: " + nodeID, Code: "DUPLICATE_NODE", NodeID: nodeID}
	}
	e.nodes[nodeID] = node
	return nil
}

// AddWithPolicy registers a node together with a NodePolicy (per-node timeout
// and retry behavior). See Add for the plain registration form.
func (e *Engine[S]) AddWithPolicy(nodeID string, node Node[S], policy *NodePolicy) error {
	if err := e.Add(nodeID, node); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policies[nodeID] = policy
	return nil
}

// StartAt designates nodeID as the workflow's entry point. The node must
// already be registered via Add.
func (e *Engine[S]) StartAt(nodeID string) error {
	e.mu.RLock()
	_, exists := e.nodes[nodeID]
	e.mu.RUnlock()
	if !exists {
		return &EngineError{Message: "cannot start at unregistered node: " + nodeID, Code: "NODE_NOT_FOUND", NodeID: nodeID}
	}
	e.mu.Lock()
	e.startNode = nodeID
	e.mu.Unlock()
	return nil
}

// Connect adds a directed edge from -> to, traversed when predicate(state)
// returns true (or unconditionally when predicate is nil). Edges from a
// given node are evaluated in the order they were added; the first match
// wins. Edge-based routing only applies when a node does not return an
// explicit Route in its NodeResult.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	e.mu.RLock()
	_, fromExists := e.nodes[from]
	_, toExists := e.nodes[to]
	e.mu.RUnlock()
	if !fromExists {
		return &EngineError{Message: "unknown source node: " + from, Code: "NODE_NOT_FOUND", NodeID: from}
	}
	if !toExists {
		return &EngineError{Message: "unknown destination node: " + to, Code: "NODE_NOT_FOUND", NodeID: to}
	}

	e.mu.Lock()
	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	e.mu.Unlock()
	return nil
}

// Run drives state through the graph starting at the registered entry node
// until a node routes to Stop(), MaxHops is exceeded, or ctx is cancelled /
// the wall-clock budget elapses.
//
// A node-level error (NodeResult.Err or a timeout) diverts execution to
// Options.ErrorNode, once, rather than returning immediately - mirroring the
// "fault edge from any node to ErrorHandler" routing every graph consumer
// of this engine is expected to wire. Run only returns a non-nil error for
// conditions the graph cannot route around itself (missing start node,
// exceeded hop budget, cancellation with no error node configured).
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if e == nil {
		return zero, &EngineError{Message: "engine is nil", Code: "NIL_ENGINE"}
	}
	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.startNode == "" {
		return zero, &EngineError{Message: "start node not set (call StartAt before Run)", Code: "NO_START_NODE"}
	}

	if e.opts.RunWallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RunWallClockBudget)
		defer cancel()
	}

	currentState := initial
	currentNode := e.startNode
	hops := 0
	erroredOnce := false

	for {
		hops++
		if e.opts.MaxHops > 0 && hops > e.opts.MaxHops {
			return currentState, &EngineError{Message: "workflow exceeded max hop limit", Code: "MAX_HOPS_EXCEEDED", NodeID: currentNode}
		}

		select {
		case <-ctx.Done():
			if e.opts.ErrorNode != "" && !erroredOnce {
				erroredOnce = true
				currentNode = e.opts.ErrorNode
				continue
			}
			return currentState, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		policy := e.policies[currentNode]
		e.mu.RUnlock()
		if !exists {
			return currentState, &EngineError{Message: "node not found during execution: " + currentNode, Code: "NODE_NOT_FOUND", NodeID: currentNode}
		}

		nodeCtx := context.WithValue(ctx, NodeIDKey, currentNode)
		nodeCtx = context.WithValue(nodeCtx, StepIDKey, hops)
		nodeCtx = context.WithValue(nodeCtx, RunIDKey, runID)

		e.emitNodeStart(runID, currentNode, hops)
		nodeStart := time.Now()
		result, timeoutErr := executeNodeWithTimeout[S](nodeCtx, nodeImpl, currentNode, currentState, policy, e.opts.DefaultNodeTimeout)
		if e.metrics != nil {
			e.metrics.RecordNodeLatency(currentNode, time.Since(nodeStart), timeoutErr == nil && result.Err == nil)
		}

		currentState = e.reducer(currentState, result.Delta)
		e.emitNodeEnd(runID, currentNode, hops)

		nodeErr := result.Err
		if nodeErr == nil {
			nodeErr = timeoutErr
		}
		if nodeErr != nil {
			e.emitError(runID, currentNode, hops, nodeErr)
			if e.opts.ErrorNode != "" && currentNode != e.opts.ErrorNode && !erroredOnce {
				erroredOnce = true
				currentNode = e.opts.ErrorNode
				continue
			}
			return currentState, nodeErr
		}

		if result.Route.Terminal {
			if e.store != nil {
				_ = e.store.SaveRun(ctx, runID, currentState)
			}
			return currentState, nil
		}
		if result.Route.To != "" {
			currentNode = result.Route.To
			continue
		}

		next := e.evaluateEdges(currentNode, currentState)
		if next == "" {
			return currentState, &EngineError{Message: "no valid route from node: " + currentNode, Code: "NO_ROUTE", NodeID: currentNode}
		}
		currentNode = next
	}
}

// evaluateEdges returns the destination of the first matching edge from
// fromNode, or "" if none match.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}
	return ""
}

func (e *Engine[S]) emitNodeStart(runID, nodeID string, step int) {
	e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_start"})
}

func (e *Engine[S]) emitNodeEnd(runID, nodeID string, step int) {
	e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_end"})
}

func (e *Engine[S]) emitError(runID, nodeID string, step int, err error) {
	e.emitter.Emit(emit.Event{RunID: runID, Step: step, NodeID: nodeID, Msg: "node_error", Meta: map[string]interface{}{"error": err.Error()}})
}

// EngineError represents a structural failure of graph execution itself
// (missing node, missing start node, exceeded hop budget) as opposed to a
// node-level business error, which travels through NodeResult.Err instead.
type EngineError struct {
	Message string
	Code    string
	NodeID  string
}

func (e *EngineError) Error() string {
	if e.NodeID != "" {
		return "graph: " + e.Message + " (node=" + e.NodeID + ")"
	}
	return "graph: " + e.Message
}
