package dag

import (
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/w3rterr"
)

// TopoOrder returns wf's actions in topological order over dependsOn, with
// ties broken by source order (spec.md §4.1 "Ordering"). It returns a CYCLE
// error if the graph is not acyclic.
func TopoOrder(wf *plan.DAGWorkflow) ([]plan.DAGAction, error) {
	return kahnOrder(wf)
}

func kahnOrder(wf *plan.DAGWorkflow) ([]plan.DAGAction, error) {
	n := len(wf.Actions)
	inDegree := make(map[string]int, n)
	for _, a := range wf.Actions {
		if _, ok := inDegree[a.ID]; !ok {
			inDegree[a.ID] = 0
		}
		for range a.DependsOn {
			inDegree[a.ID]++
		}
	}

	visited := make(map[string]bool, n)
	order := make([]plan.DAGAction, 0, n)

	for len(order) < n {
		progressed := false
		for _, a := range wf.Actions {
			if visited[a.ID] {
				continue
			}
			if inDegree[a.ID] != 0 {
				continue
			}
			visited[a.ID] = true
			order = append(order, a)
			progressed = true
			for _, other := range wf.Actions {
				if visited[other.ID] {
					continue
				}
				for _, dep := range other.DependsOn {
					if dep == a.ID {
						inDegree[other.ID]--
					}
				}
			}
			break
		}
		if !progressed {
			return nil, w3rterr.New("CYCLE", "cycle detected in dependsOn graph")
		}
	}
	return order, nil
}
