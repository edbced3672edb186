// Package dag implements the DAG validator (spec.md §4.1): the ordered
// rule checks that reject malformed dependency graphs before a workflow is
// compiled, plus the topological ordering the plan compiler uses to emit
// steps.
package dag

import (
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/w3rterr"
)

const toolSwapExec = "w3rt_swap_exec"
const toolSwapQuote = "w3rt_swap_quote"

// Validate runs the four ordered checks from spec.md §4.1 against wf and
// returns the first violation encountered, or nil if wf is well-formed.
func Validate(wf *plan.DAGWorkflow) error {
	if err := checkUniqueIDs(wf); err != nil {
		return err
	}
	if err := checkDependenciesExist(wf); err != nil {
		return err
	}
	if err := checkAcyclic(wf); err != nil {
		return err
	}
	if err := checkSwapExecPreconditions(wf); err != nil {
		return err
	}
	return nil
}

func checkUniqueIDs(wf *plan.DAGWorkflow) error {
	seen := make(map[string]bool, len(wf.Actions))
	for _, a := range wf.Actions {
		if seen[a.ID] {
			return w3rterr.Newf("DUPLICATE_ID", "duplicate action id: %s", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

func checkDependenciesExist(wf *plan.DAGWorkflow) error {
	ids := actionIDSet(wf)
	for _, a := range wf.Actions {
		for _, dep := range a.DependsOn {
			if !ids[dep] {
				return w3rterr.Newf("MISSING_DEPENDENCY", "missing dependency: %s dependsOn %s", a.ID, dep)
			}
		}
	}
	return nil
}

func checkAcyclic(wf *plan.DAGWorkflow) error {
	_, err := kahnOrder(wf)
	return err
}

func checkSwapExecPreconditions(wf *plan.DAGWorkflow) error {
	byID := actionsByID(wf)
	for _, a := range wf.Actions {
		if a.Tool != toolSwapExec {
			continue
		}
		if !dependsOnQuote(a, byID) {
			return w3rterr.Newf("SWAP_EXEC_NO_QUOTE", "swap_exec requires dependsOn a w3rt_swap_quote step: %s", a.ID)
		}
		confirm, ok := a.Params["confirm"]
		if !ok {
			return w3rterr.Newf("SWAP_EXEC_MISSING_CONFIRM", "swap_exec missing params.confirm: %s", a.ID)
		}
		if confirm != "I_CONFIRM" {
			return w3rterr.Newf("SWAP_EXEC_BAD_CONFIRM", "swap_exec confirm must be I_CONFIRM: %s", a.ID)
		}
	}
	return nil
}

func dependsOnQuote(a plan.DAGAction, byID map[string]plan.DAGAction) bool {
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
			if depAction.Tool == toolSwapQuote {
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

func actionIDSet(wf *plan.DAGWorkflow) map[string]bool {
	ids := make(map[string]bool, len(wf.Actions))
	for _, a := range wf.Actions {
		ids[a.ID] = true
	}
	return ids
}

func actionsByID(wf *plan.DAGWorkflow) map[string]plan.DAGAction {
	byID := make(map[string]plan.DAGAction, len(wf.Actions))
	for _, a := range wf.Actions {
		byID[a.ID] = a
	}
	return byID
}
