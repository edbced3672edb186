package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"w3rt.dev/core/internal/compiler"
	"w3rt.dev/core/internal/plan"
)

func sampleWorkflow() *plan.DAGWorkflow {
	return &plan.DAGWorkflow{
		Name: "swap-flow",
		Actions: []plan.DAGAction{
			{ID: "quote", Tool: "w3rt_swap_quote"},
			{ID: "exec", Tool: "w3rt_swap_exec", DependsOn: []string{"quote"}, Params: map[string]any{"confirm": "I_CONFIRM"}},
		},
	}
}

func TestCompileInjectsSafetyStep(t *testing.T) {
	p, err := compiler.Compile(sampleWorkflow(), nil)
	require.NoError(t, err)

	var sawSimulate bool
	ids := map[string]bool{}
	for _, s := range p.Steps {
		ids[s.ID] = true
		if s.Tool == "w3rt_simulate" {
			sawSimulate = true
		}
	}
	assert.True(t, sawSimulate)

	injected := compiler.InjectedStepIDs(sampleWorkflow(), p)
	require.Len(t, injected, 1)
	assert.Contains(t, ids, injected[0])
}

func TestCompileDeterministic(t *testing.T) {
	p1, err := compiler.Compile(sampleWorkflow(), nil)
	require.NoError(t, err)
	p2, err := compiler.Compile(sampleWorkflow(), nil)
	require.NoError(t, err)
	assert.Equal(t, p1.Meta.PlanHash, p2.Meta.PlanHash)
}

func TestCompileAttachesPolicy(t *testing.T) {
	policy := map[string]any{"networks": map[string]any{"mainnet": map[string]any{"enabled": false}}}
	p, err := compiler.Compile(sampleWorkflow(), policy)
	require.NoError(t, err)
	require.NotNil(t, p.Meta)
	assert.NotEmpty(t, p.Meta.PolicyHash)
	assert.Equal(t, policy, p.Meta.Policy)
}

func TestCompileRejectsInvalidWorkflow(t *testing.T) {
	wf := &plan.DAGWorkflow{
		Name: "bad",
		Actions: []plan.DAGAction{
			{ID: "a", Tool: "t", DependsOn: []string{"ghost"}},
		},
	}
	_, err := compiler.Compile(wf, nil)
	require.Error(t, err)
}
