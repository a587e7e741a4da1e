package orchestrator

import (
	"context"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// agentEstimatesMs are the static per-agent duration estimates used only to
// compute Plan.EstimatedMs; informational, never enforced.
var agentEstimatesMs = map[string]int{
	AgentData:          800,
	AgentAnalysis:      4000,
	AgentNews:          1500,
	AgentKnowledge:     1200,
	AgentVisualization: 1000,
}

// ServicePlannerNode converts an Analysis into a Plan following the strict
// policy table: stage shape by complexity, with the data/analysis and
// data/visualization exclusions and the news/knowledge co-stageability rule.
type ServicePlannerNode struct{}

func (n *ServicePlannerNode) Run(_ context.Context, state State) graph.NodeResult[State] {
	start := time.Now()

	if hasUnrecoverableError(state) {
		return traceResult(state, "service_planner", start, "skipped", State{})
	}

	plan := buildPlan(state.Analysis)
	return traceResult(state, "service_planner", start, "ok", State{Plan: plan})
}

func buildPlan(analysis *Analysis) *Plan {
	if analysis == nil {
		return &Plan{Mode: PlanSingle}
	}
	if analysis.PrimaryIntent == ActionGeneral {
		return &Plan{Mode: PlanSingle, Stages: nil}
	}

	required := analysis.RequiredAgents
	has := func(name string) bool { return containsString(required, name) }

	switch analysis.Complexity {
	case ComplexitySimple:
		if has(AgentData) && len(required) > 1 {
			stages := []Stage{{Agents: []string{AgentData}}, {Agents: without(required, AgentData)}}
			return &Plan{Mode: PlanSequential, Stages: stages, EstimatedMs: estimate(stages)}
		}
		stages := []Stage{{Agents: required}}
		return &Plan{Mode: PlanSingle, Stages: stages, EstimatedMs: estimate(stages)}

	case ComplexityModerate:
		var stages []Stage
		if has(AgentData) {
			stages = append(stages, Stage{Agents: []string{AgentData}})
			rest := without(required, AgentData)
			if len(rest) > 0 {
				stages = append(stages, Stage{Agents: rest})
			}
			return &Plan{Mode: PlanSequential, Stages: stages, EstimatedMs: estimate(stages)}
		}
		stages = []Stage{{Agents: required}}
		return &Plan{Mode: PlanSequential, Stages: stages, EstimatedMs: estimate(stages)}

	case ComplexityComplex:
		var stages []Stage
		if has(AgentData) {
			stages = append(stages, Stage{Agents: []string{AgentData}})
		}
		var newsKnowledge []string
		if has(AgentNews) {
			newsKnowledge = append(newsKnowledge, AgentNews)
		}
		if has(AgentKnowledge) {
			newsKnowledge = append(newsKnowledge, AgentKnowledge)
		}
		if len(newsKnowledge) > 0 {
			stages = append(stages, Stage{Agents: newsKnowledge})
		}
		if has(AgentAnalysis) {
			stages = append(stages, Stage{Agents: []string{AgentAnalysis}})
		}
		return &Plan{Mode: PlanHybrid, Stages: stages, EstimatedMs: estimate(stages)}
	}

	stages := []Stage{{Agents: required}}
	return &Plan{Mode: PlanSingle, Stages: stages, EstimatedMs: estimate(stages)}
}

func estimate(stages []Stage) int {
	total := 0
	for _, stage := range stages {
		max := 0
		for _, agent := range stage.Agents {
			if est := agentEstimatesMs[agent]; est > max {
				max = est
			}
		}
		total += max
	}
	return total
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

func without(list []string, exclude string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != exclude {
			out = append(out, s)
		}
	}
	return out
}
