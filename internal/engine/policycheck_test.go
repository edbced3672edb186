package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"w3rt.dev/core/internal/engine"
	"w3rt.dev/core/internal/policy"
	"w3rt.dev/core/internal/ratewindow"
)

func TestNewPolicyCheckAllowsAndRecordsBroadcast(t *testing.T) {
	cfg := policy.Config{
		Networks: map[string]policy.NetworkConfig{"mainnet": {Enabled: true}},
	}
	window := ratewindow.New(60)
	check := engine.NewPolicyCheck(cfg, window, func(toolName string, params, runCtx map[string]any) policy.Context {
		return policy.Context{Chain: "solana", Network: "mainnet", Action: "swap", SideEffect: "broadcast"}
	})

	decision, err := check(context.Background(), "w3rt_swap_exec", nil, nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, broadcastsLastMinute := window.Snapshot(time.Now())
	assert.Equal(t, float64(1), broadcastsLastMinute)
}

func TestNewPolicyCheckBlocksAndSkipsRecordingBroadcast(t *testing.T) {
	cfg := policy.Config{
		Networks: map[string]policy.NetworkConfig{"mainnet": {Enabled: true, RequireSimulation: true}},
	}
	window := ratewindow.New(60)
	check := engine.NewPolicyCheck(cfg, window, func(toolName string, params, runCtx map[string]any) policy.Context {
		return policy.Context{Chain: "solana", Network: "mainnet", Action: "swap", SideEffect: "broadcast", SimulationOk: false}
	})

	decision, err := check(context.Background(), "w3rt_swap_exec", nil, nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "simulation is required before broadcast on mainnet", decision.Reason)

	_, broadcastsLastMinute := window.Snapshot(time.Now())
	assert.Equal(t, float64(0), broadcastsLastMinute)
}
