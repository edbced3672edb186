package policy_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"w3rt.dev/core/internal/policy"
)

func ptr(f float64) *float64 { return &f }

// TestPolicyIsPureProperty checks spec.md §8 invariant 3: decide(cfg, ctx)
// depends only on its arguments — calling it twice with identical inputs
// always yields an identical decision, regardless of call order or
// intervening calls with other contexts.
func TestPolicyIsPureProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	cfg := policy.Config{
		Networks: map[string]policy.NetworkConfig{
			"mainnet": {Enabled: true, RequireSimulation: true},
		},
		Transactions: policy.TransactionsConfig{
			MaxSingleAmountUsd: 1000,
			MaxSlippageBps:     100,
		},
	}

	properties.Property("repeated calls with identical ctx are identical", prop.ForAll(
		func(amountUsd float64, slippageBps float64) bool {
			ctx := policy.Context{
				Chain:        "solana",
				Network:      "mainnet",
				Action:       "swap",
				SideEffect:   "broadcast",
				SimulationOk: true,
				AmountUsd:    ptr(amountUsd),
				SlippageBps:  ptr(slippageBps),
			}
			other := policy.Context{Chain: "ethereum", Network: "testnet", Action: "transfer"}

			d1 := policy.Decide(cfg, ctx)
			_ = policy.Decide(cfg, other)
			d2 := policy.Decide(cfg, ctx)

			return reflect.DeepEqual(d1, d2)
		},
		gen.Float64Range(0, 10000),
		gen.Float64Range(0, 10000),
	))

	properties.TestingRun(t)
}

// TestFailClosedProperty checks spec.md §8 invariant 4: for any ctx with
// chain=solana, non-empty allowlist.solanaPrograms, and programIdsKnown !=
// true, the decision is always block PROGRAMS_UNKNOWN.
func TestFailClosedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("unknown program ids always fail closed", prop.ForAll(
		func(action string, programIDs []string) bool {
			cfg := policy.Config{
				Networks: map[string]policy.NetworkConfig{
					"mainnet": {Enabled: true},
				},
				Allowlist: policy.AllowlistConfig{SolanaPrograms: []string{"P1", "P2"}},
			}
			ctx := policy.Context{
				Chain:           "solana",
				Network:         "mainnet",
				Action:          action,
				ProgramIds:      programIDs,
				ProgramIdsKnown: false,
			}
			d := policy.Decide(cfg, ctx)
			return d.Outcome == policy.Block && d.Code == "PROGRAMS_UNKNOWN"
		},
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestSimulationGateProperty checks spec.md §8 invariant 5: for any ctx with
// network=mainnet, sideEffect=broadcast, requireSimulation=true,
// simulationOk != true, the decision is always block SIMULATION_REQUIRED.
func TestSimulationGateProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("missing simulation always blocks on mainnet broadcasts", prop.ForAll(
		func(action string) bool {
			cfg := policy.Config{
				Networks: map[string]policy.NetworkConfig{
					"mainnet": {Enabled: true, RequireSimulation: true},
				},
			}
			ctx := policy.Context{
				Chain:        "solana",
				Network:      "mainnet",
				Action:       action,
				SideEffect:   "broadcast",
				SimulationOk: false,
			}
			d := policy.Decide(cfg, ctx)
			return d.Outcome == policy.Block && d.Code == "SIMULATION_REQUIRED"
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
