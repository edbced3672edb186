// Package compiler implements the plan compiler (spec.md §4.3): it turns a
// validated DAG workflow into an ordered, content-addressed Plan artifact,
// injecting the safety steps the workflow's source actions omit.
package compiler

import (
	"w3rt.dev/core/internal/canon"
	"w3rt.dev/core/internal/dag"
	"w3rt.dev/core/internal/plan"
)

// safetySimulateTool is the injected pre-execution simulation step's tool
// name. It mirrors the w3rt_swap_quote/w3rt_swap_exec naming convention for
// the other domain-reserved tool names in spec.md §4.1.
const safetySimulateTool = "w3rt_simulate"

// Compile validates wf, injects any missing safety steps, computes a
// deterministic topological step order, and attaches policy/plan hashes. If
// policy is non-nil it is attached verbatim at meta.policy with its
// canonical hash at meta.policyHash.
func Compile(wf *plan.DAGWorkflow, policy map[string]any) (*plan.Plan, error) {
	if err := dag.Validate(wf); err != nil {
		return nil, err
	}

	augmented := injectSafetySteps(*wf)

	if err := dag.Validate(&augmented); err != nil {
		return nil, err
	}
	ordered, err := dag.TopoOrder(&augmented)
	if err != nil {
		return nil, err
	}

	steps := make([]plan.PlanStep, len(ordered))
	for i, a := range ordered {
		steps[i] = plan.PlanStep{
			ID:        a.ID,
			Tool:      a.Tool,
			Params:    a.Params,
			DependsOn: a.DependsOn,
		}
	}

	p := &plan.Plan{
		Schema:   plan.SchemaV1,
		Workflow: wf.Name,
		Steps:    steps,
	}

	planHash, err := HashPlanSteps(p)
	if err != nil {
		return nil, err
	}
	meta := &plan.PlanMeta{PlanHash: planHash}

	if policy != nil {
		policyHash, err := canon.Hash(policy)
		if err != nil {
			return nil, err
		}
		meta.Policy = policy
		meta.PolicyHash = policyHash
	}
	p.Meta = meta
	return p, nil
}

// HashPlanSteps computes the plan hash over { schema, workflow, steps },
// excluding meta, per spec.md §4.2.
func HashPlanSteps(p *plan.Plan) (string, error) {
	return canon.Hash(map[string]any{
		"schema":   p.Schema,
		"workflow": p.Workflow,
		"steps":    p.Steps,
	})
}

// InjectedStepIDs returns the ids present in compiled but absent from
// source, the set-difference the caller uses to identify synthesized safety
// steps (spec.md §4.3).
func InjectedStepIDs(source *plan.DAGWorkflow, compiled *plan.Plan) []string {
	sourceIDs := make(map[string]bool, len(source.Actions))
	for _, a := range source.Actions {
		sourceIDs[a.ID] = true
	}
	var injected []string
	for _, s := range compiled.Steps {
		if !sourceIDs[s.ID] {
			injected = append(injected, s.ID)
		}
	}
	return injected
}

func injectSafetySteps(wf plan.DAGWorkflow) plan.DAGWorkflow {
	byID := make(map[string]plan.DAGAction, len(wf.Actions))
	for _, a := range wf.Actions {
		byID[a.ID] = a
	}

	actions := append([]plan.DAGAction(nil), wf.Actions...)
	for i, a := range wf.Actions {
		if a.Tool != "w3rt_swap_exec" {
			continue
		}
		if hasSimulateDependency(a, byID) {
			continue
		}
		quoteDeps := quoteDependencies(a, byID)
		if len(quoteDeps) == 0 {
			continue
		}
		simID := a.ID + "__safety_simulate"
		actions = append(actions, plan.DAGAction{
			ID:        simID,
			Tool:      safetySimulateTool,
			DependsOn: quoteDeps,
		})
		actions[i].DependsOn = append(append([]string(nil), a.DependsOn...), simID)
	}
	return plan.DAGWorkflow{Name: wf.Name, Actions: actions}
}

func hasSimulateDependency(a plan.DAGAction, byID map[string]plan.DAGAction) bool {
	visited := map[string]bool{}
	var walk func(id string) bool
	walk = func(id string) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		act, ok := byID[id]
		if !ok {
			return false
		}
		for _, dep := range act.DependsOn {
			depAction, ok := byID[dep]
			if !ok {
				continue
			}
			if depAction.Tool == safetySimulateTool {
				return true
			}
			if walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(a.ID)
}

func quoteDependencies(a plan.DAGAction, byID map[string]plan.DAGAction) []string {
	var quotes []string
	for _, dep := range a.DependsOn {
		if depAction, ok := byID[dep]; ok && depAction.Tool == "w3rt_swap_quote" {
			quotes = append(quotes, dep)
		}
	}
	return quotes
}
