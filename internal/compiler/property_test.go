package compiler_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"w3rt.dev/core/internal/compiler"
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/w3rterr"
)

func chainWorkflow(n int) *plan.DAGWorkflow {
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

// TestCompileDeterminismProperty checks spec.md §8 invariant 2: plan
// compiler output is deterministic — hash(compile(w)) is a function of w
// alone, across repeated invocations.
func TestCompileDeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("compiling the same workflow twice yields the same hash", prop.ForAll(
		func(n int) bool {
			wf := chainWorkflow(n)
			p1, err := compiler.Compile(wf, nil)
			if err != nil {
				return false
			}
			p2, err := compiler.Compile(wf, nil)
			if err != nil {
				return false
			}
			return p1.Meta.PlanHash == p2.Meta.PlanHash
		},
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

// TestRoundTripHashMismatchProperty checks the mismatch half of spec.md §8
// invariant 7: mutating a step's content changes the recomputed hash
// (HASH_MISMATCH in the CLI's verify path).
func TestRoundTripHashMismatchProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("mutating a step's tool name changes the recomputed hash", prop.ForAll(
		func(n int) bool {
			wf := chainWorkflow(n)
			p, err := compiler.Compile(wf, nil)
			if err != nil {
				return false
			}
			original := p.Meta.PlanHash

			mutated := *p
			mutated.Steps = append([]plan.PlanStep(nil), p.Steps...)
			mutated.Steps[0].Tool = mutated.Steps[0].Tool + "_mutated"

			recomputed, err := compiler.HashPlanSteps(&mutated)
			if err != nil {
				return false
			}
			return recomputed != original
		},
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func TestCompileRejectsInvalidWorkflowProperty(t *testing.T) {
	wf := &plan.DAGWorkflow{Name: "bad", Actions: []plan.DAGAction{
		{ID: "a", Tool: "t", DependsOn: []string{"missing"}},
	}}
	_, err := compiler.Compile(wf, nil)
	require.Error(t, err)
	require.True(t, w3rterr.Is(err, "MISSING_DEPENDENCY"))
}
