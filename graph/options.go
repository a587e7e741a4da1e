// Package graph provides the core graph execution engine that the
// orchestrator instantiates with its own state record.
package graph

import "time"

// Options configures Engine execution behavior. Zero values are valid; New
// fills in the documented defaults via withDefaults.
type Options struct {
	// MaxHops bounds the number of node invocations in a single Run, guarding
	// against an accidentally cyclic routing table. Default: 32.
	MaxHops int

	// DefaultNodeTimeout is the execution deadline applied to nodes that
	// don't specify their own NodePolicy.Timeout. Default: 30s.
	DefaultNodeTimeout time.Duration

	// RunWallClockBudget bounds the entire Run() call. Default: 120s.
	// Zero selects the default; the budget cannot be disabled through Options.
	RunWallClockBudget time.Duration

	// ErrorNode, if set, is where Run() diverts after any node-level error
	// (NodeResult.Err, a timeout, or context cancellation) instead of
	// returning immediately. The error node itself runs exactly once before
	// Run() returns, mirroring "any node -> ErrorHandler -> Responder".
	ErrorNode string

	// Metrics, if set, records Prometheus-compatible execution metrics.
	Metrics *PrometheusMetrics
}

func (o Options) withDefaults() Options {
	if o.MaxHops == 0 {
		o.MaxHops = 32
	}
	if o.DefaultNodeTimeout == 0 {
		o.DefaultNodeTimeout = 30 * time.Second
	}
	if o.RunWallClockBudget == 0 {
		o.RunWallClockBudget = 120 * time.Second
	}
	return o
}
