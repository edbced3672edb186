package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"w3rt.dev/core/internal/policy"
)

func f(v float64) *float64 { return &v }

func TestMainnetDisabled(t *testing.T) {
	cfg := policy.Config{Networks: map[string]policy.NetworkConfig{"mainnet": {Enabled: false}}}
	d := policy.Decide(cfg, policy.Context{Network: "mainnet"})
	assert.Equal(t, policy.Block, d.Outcome)
	assert.Equal(t, "MAINNET_DISABLED", d.Code)
}

func TestFailClosedProgramsUnknown(t *testing.T) {
	cfg := policy.Config{Allowlist: policy.AllowlistConfig{SolanaPrograms: []string{"P1"}}}
	ctx := policy.Context{
		Chain: "solana", Network: "mainnet", Action: "swap",
		SideEffect: "broadcast", SimulationOk: true, ProgramIdsKnown: false,
	}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Block, d.Outcome)
	assert.Equal(t, "PROGRAMS_UNKNOWN", d.Code)
}

func TestProgramNotAllowed(t *testing.T) {
	cfg := policy.Config{Allowlist: policy.AllowlistConfig{SolanaPrograms: []string{"P1"}}}
	ctx := policy.Context{
		Chain: "solana", Network: "mainnet", Action: "swap",
		SideEffect: "broadcast", SimulationOk: true,
		ProgramIdsKnown: true, ProgramIds: []string{"BadProg"},
	}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Block, d.Outcome)
	assert.Equal(t, "PROGRAM_NOT_ALLOWED", d.Code)
	assert.Contains(t, d.Message, "BadProg")
}

func TestSlippageConfirm(t *testing.T) {
	cfg := policy.Config{Transactions: policy.TransactionsConfig{MaxSlippageBps: 50}}
	ctx := policy.Context{SlippageBps: f(200)}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Confirm, d.Outcome)
	assert.Equal(t, "SLIPPAGE_HIGH", d.Code)
	assert.Equal(t, "slippage_high", d.ConfirmationKey)
	assert.Equal(t, "Requested slippage: 2.00%", d.Message)
}

func TestSimulationRequired(t *testing.T) {
	cfg := policy.Config{Networks: map[string]policy.NetworkConfig{"mainnet": {Enabled: true, RequireSimulation: true}}}
	ctx := policy.Context{Network: "mainnet", SideEffect: "broadcast", SimulationOk: false}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Block, d.Outcome)
	assert.Equal(t, "SIMULATION_REQUIRED", d.Code)
}

func TestCooldownBoundaryAllowsAtEquality(t *testing.T) {
	cfg := policy.Config{Transactions: policy.TransactionsConfig{CooldownSeconds: 30}}
	ctx := policy.Context{SideEffect: "broadcast", SecondsSinceLastBroadcast: f(30)}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Allow, d.Outcome)
}

func TestCooldownZeroNeverBlocks(t *testing.T) {
	cfg := policy.Config{Transactions: policy.TransactionsConfig{CooldownSeconds: 0}}
	ctx := policy.Context{SideEffect: "broadcast", SecondsSinceLastBroadcast: f(0)}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Allow, d.Outcome)
}

func TestAmountEqualToLimitAllows(t *testing.T) {
	cfg := policy.Config{Transactions: policy.TransactionsConfig{MaxSingleAmountUsd: 100}}
	ctx := policy.Context{AmountUsd: f(100)}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Allow, d.Outcome)
}

func TestMaxTxPerMinuteZeroMeansNoGate(t *testing.T) {
	cfg := policy.Config{Transactions: policy.TransactionsConfig{MaxTxPerMinute: 0}}
	ctx := policy.Context{SideEffect: "broadcast", BroadcastsLastMinute: f(1000)}
	d := policy.Decide(cfg, ctx)
	assert.Equal(t, policy.Allow, d.Outcome)
}

func TestCustomRuleBlocks(t *testing.T) {
	cfg := policy.Config{Rules: []policy.Rule{
		{Name: "no-meme", Condition: `action == "meme_buy"`, Action: policy.Block, Message: "meme buys disabled"},
	}}
	d := policy.Decide(cfg, policy.Context{Action: "meme_buy"})
	assert.Equal(t, policy.Block, d.Outcome)
	assert.Equal(t, "RULE_NO-MEME", d.Code)
}

func TestDefaultAllow(t *testing.T) {
	d := policy.Decide(policy.Config{}, policy.Context{})
	assert.Equal(t, policy.Allow, d.Outcome)
}
