package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"w3rt.dev/core/internal/dag"
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/w3rterr"
)

func TestValidateCycle(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "cyclic",
		Actions: []plan.DAGAction{
			{ID: "a", Tool: "t", DependsOn: []string{"b"}},
			{ID: "b", Tool: "t", DependsOn: []string{"a"}},
		},
	}
	err := dag.Validate(wf)
	require.Error(t, err)
	assert.Equal(t, "cycle detected in dependsOn graph", err.Error())
	assert.True(t, w3rterr.Is(err, "CYCLE"))
}

func TestValidateDuplicateID(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "dup",
		Actions: []plan.DAGAction{
			{ID: "a", Tool: "t"},
			{ID: "a", Tool: "t"},
		},
	}
	err := dag.Validate(wf)
	require.Error(t, err)
	assert.True(t, w3rterr.Is(err, "DUPLICATE_ID"))
}

func TestValidateMissingDependency(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "missing",
		Actions: []plan.DAGAction{
			{ID: "a", Tool: "t", DependsOn: []string{"ghost"}},
		},
	}
	err := dag.Validate(wf)
	require.Error(t, err)
	assert.True(t, w3rterr.Is(err, "MISSING_DEPENDENCY"))
}

func TestSwapExecMissingQuote(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "swap",
		Actions: []plan.DAGAction{
			{ID: "x", Tool: "w3rt_swap_exec", Params: map[string]any{"confirm": "I_CONFIRM"}},
		},
	}
	err := dag.Validate(wf)
	require.Error(t, err)
	assert.Equal(t, "swap_exec requires dependsOn a w3rt_swap_quote step: x", err.Error())
	assert.True(t, w3rterr.Is(err, "SWAP_EXEC_NO_QUOTE"))
}

func TestSwapExecMissingConfirm(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "swap",
		Actions: []plan.DAGAction{
			{ID: "q", Tool: "w3rt_swap_quote"},
			{ID: "x", Tool: "w3rt_swap_exec", DependsOn: []string{"q"}},
		},
	}
	err := dag.Validate(wf)
	require.Error(t, err)
	assert.True(t, w3rterr.Is(err, "SWAP_EXEC_MISSING_CONFIRM"))
}

func TestSwapExecBadConfirm(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "swap",
		Actions: []plan.DAGAction{
			{ID: "q", Tool: "w3rt_swap_quote"},
			{ID: "x", Tool: "w3rt_swap_exec", DependsOn: []string{"q"}, Params: map[string]any{"confirm": "nope"}},
		},
	}
	err := dag.Validate(wf)
	require.Error(t, err)
	assert.True(t, w3rterr.Is(err, "SWAP_EXEC_BAD_CONFIRM"))
}

func TestValidateOK(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "ok",
		Actions: []plan.DAGAction{
			{ID: "q", Tool: "w3rt_swap_quote"},
			{ID: "x", Tool: "w3rt_swap_exec", DependsOn: []string{"q"}, Params: map[string]any{"confirm": "I_CONFIRM"}},
		},
	}
	assert.NoError(t, dag.Validate(wf))
}

func TestTopoOrderTieBreakSourceOrder(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "parallel",
		Actions: []plan.DAGAction{
			{ID: "b", Tool: "t"},
			{ID: "a", Tool: "t"},
			{ID: "c", Tool: "t", DependsOn: []string{"a", "b"}},
		},
	}
	order, err := dag.TopoOrder(wf)
	require.NoError(t, err)
	ids := make([]string, len(order))
	for i, a := range order {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}
