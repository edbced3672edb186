package dag_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"w3rt.dev/core/internal/dag"
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/w3rterr"
)

// linearChain builds a workflow of n actions, each depending on its
// immediate predecessor, which is always acyclic with all dependencies
// present regardless of n (spec.md §8 invariant 1).
func linearChain(n int) *plan.DAGWorkflow {
	actions := make([]plan.DAGAction, n)
	for i := 0; i < n; i++ {
		a := plan.DAGAction{ID: fmt.Sprintf("a%d", i), Tool: "generic_tool"}
		if i > 0 {
			a.DependsOn = []string{fmt.Sprintf("a%d", i-1)}
		}
		actions[i] = a
	}
	return &plan.DAGWorkflow{Name: "chain", Actions: actions}
}

func TestValidAcyclicChainAlwaysValidatesProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a linear dependency chain of any length is always valid", prop.ForAll(
		func(n int) bool {
			return dag.Validate(linearChain(n)) == nil
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

func TestDuplicateIDAlwaysRejectedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("introducing a duplicate id always fails DUPLICATE_ID", prop.ForAll(
		func(n int) bool {
			wf := linearChain(n)
			wf.Actions = append(wf.Actions, plan.DAGAction{ID: "a0", Tool: "generic_tool"})
			err := dag.Validate(wf)
			return w3rterr.Is(err, "DUPLICATE_ID")
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestDependencyRingAlwaysCyclesProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a ring of mutual dependencies always fails CYCLE", prop.ForAll(
		func(n int) bool {
			actions := make([]plan.DAGAction, n)
			for i := 0; i < n; i++ {
				next := (i + 1) % n
				actions[i] = plan.DAGAction{
					ID:        fmt.Sprintf("a%d", i),
					Tool:      "generic_tool",
					DependsOn: []string{fmt.Sprintf("a%d", next)},
				}
			}
			wf := &plan.DAGWorkflow{Name: "ring", Actions: actions}
			return w3rterr.Is(dag.Validate(wf), "CYCLE")
		},
		gen.IntRange(2, 20),
	))

	properties.TestingRun(t)
}
