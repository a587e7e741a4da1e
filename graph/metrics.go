package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for graph and
// worker-pool execution, all namespaced "orchestrator_".
//
//   - inflight_agent_tasks (gauge): agent tasks currently running on the
//     ParallelExecutor's worker pool.
//   - queued_agent_tasks (gauge): agent tasks waiting for a free worker.
//   - node_latency_ms (histogram): per-node execution duration, by outcome.
//   - retries_total (counter): collaborator-call retry attempts, by reason.
//   - agent_failures_total (counter): agent task failures, by agent and kind.
type PrometheusMetrics struct {
	inflightAgentTasks prometheus.Gauge
	queuedAgentTasks   prometheus.Gauge
	nodeLatency        *prometheus.HistogramVec
	retries            *prometheus.CounterVec
	agentFailures      *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers all metrics with registry (DefaultRegisterer
// if nil) and returns the collector.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		inflightAgentTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "inflight_agent_tasks",
			Help:      "Agent tasks currently running on the ParallelExecutor worker pool",
		}),
		queuedAgentTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "queued_agent_tasks",
			Help:      "Agent tasks waiting for a free worker pool slot",
		}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orchestrator",
			Name:      "node_latency_ms",
			Help:      "Graph node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
		}, []string{"node_id", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "retries_total",
			Help:      "Collaborator-call retry attempts issued by agents",
		}, []string{"agent", "reason"}),
		agentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "agent_failures_total",
			Help:      "Agent task failures by agent and error kind",
		}, []string{"agent", "kind"}),
	}
}

// ObserveStep records a completed node invocation's outcome in the node
// latency histogram with a zero duration; it carries no timing. Engine.Run
// records measured durations through RecordNodeLatency instead.
func (pm *PrometheusMetrics) ObserveStep(runID, nodeID string, success bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if !pm.enabled {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	pm.nodeLatency.WithLabelValues(nodeID, status).Observe(0)
}

// RecordNodeLatency records the execution duration of a node explicitly.
func (pm *PrometheusMetrics) RecordNodeLatency(nodeID string, latency time.Duration, success bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if !pm.enabled {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	pm.nodeLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRetries records one collaborator-call retry attempt.
func (pm *PrometheusMetrics) IncrementRetries(agent, reason string) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if !pm.enabled {
		return
	}
	pm.retries.WithLabelValues(agent, reason).Inc()
}

// IncrementAgentFailures records one agent task failure.
func (pm *PrometheusMetrics) IncrementAgentFailures(agent, kind string) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if !pm.enabled {
		return
	}
	pm.agentFailures.WithLabelValues(agent, kind).Inc()
}

// SetInflightAgentTasks updates the worker-pool gauge.
func (pm *PrometheusMetrics) SetInflightAgentTasks(n int) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if !pm.enabled {
		return
	}
	pm.inflightAgentTasks.Set(float64(n))
}

// SetQueuedAgentTasks updates the queue-depth gauge.
func (pm *PrometheusMetrics) SetQueuedAgentTasks(n int) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if !pm.enabled {
		return
	}
	pm.queuedAgentTasks.Set(float64(n))
}

// Disable stops metric recording without unregistering collectors.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable resumes metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
