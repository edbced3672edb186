// Package policy implements the policy engine (spec.md §4.4): a pure
// decision function decide(cfg, ctx) → Decision with ordered rule groups,
// first-match-wins, evaluated against the rule DSL in internal/ruleexpr.
package policy

// Outcome is one of the four policy decision variants (spec.md §3, §9 —
// "use a tagged sum for the four outcomes; avoid inheritance or overloaded
// booleans").
type Outcome string

const (
	Allow   Outcome = "allow"
	Warn    Outcome = "warn"
	Confirm Outcome = "confirm"
	Block   Outcome = "block"
)

// Decision is the tagged result of Decide.
type Decision struct {
	Outcome         Outcome  `json:"outcome"`
	Code            string   `json:"code,omitempty"`
	Message         string   `json:"message,omitempty"`
	ConfirmationKey string   `json:"confirmationKey,omitempty"`
	Reasons         []string `json:"reasons,omitempty"`
}

type (
	// Config is the policy configuration document (spec.md §3).
	Config struct {
		Networks     map[string]NetworkConfig `json:"networks" yaml:"networks" validate:"dive"`
		Transactions TransactionsConfig       `json:"transactions" yaml:"transactions"`
		Allowlist    AllowlistConfig          `json:"allowlist" yaml:"allowlist"`
		Rules        []Rule                   `json:"rules,omitempty" yaml:"rules,omitempty"`
	}

	// NetworkConfig configures one network's enable/approval/simulation
	// gates.
	NetworkConfig struct {
		Enabled           bool `json:"enabled" yaml:"enabled"`
		RequireApproval   bool `json:"requireApproval,omitempty" yaml:"requireApproval,omitempty"`
		RequireSimulation bool `json:"requireSimulation,omitempty" yaml:"requireSimulation,omitempty"`
	}

	// TransactionsConfig configures numeric limits on broadcast
	// transactions.
	TransactionsConfig struct {
		MaxSingleAmountUsd                float64  `json:"maxSingleAmountUsd" yaml:"maxSingleAmountUsd" validate:"gte=0"`
		MaxSingleSol                      *float64 `json:"maxSingleSol,omitempty" yaml:"maxSingleSol,omitempty" validate:"omitempty,gte=0"`
		MaxSlippageBps                    float64  `json:"maxSlippageBps" yaml:"maxSlippageBps" validate:"gte=0"`
		CooldownSeconds                   float64  `json:"cooldownSeconds" yaml:"cooldownSeconds" validate:"gte=0"`
		MaxTxPerMinute                    float64  `json:"maxTxPerMinute" yaml:"maxTxPerMinute" validate:"gte=0"`
		RequireSimulatedSlippageOnMainnet bool     `json:"requireSimulatedSlippageOnMainnet,omitempty" yaml:"requireSimulatedSlippageOnMainnet,omitempty"`
	}

	// AllowlistConfig configures the permitted action/program/token sets.
	AllowlistConfig struct {
		Actions        []string `json:"actions,omitempty" yaml:"actions,omitempty"`
		SolanaPrograms []string `json:"solanaPrograms,omitempty" yaml:"solanaPrograms,omitempty"`
		TokenMints     []string `json:"tokenMints,omitempty" yaml:"tokenMints,omitempty"`
	}

	// Rule is one custom policy rule in the rule DSL (spec.md §4.4 step 9).
	Rule struct {
		Name      string  `json:"name" yaml:"name" validate:"required"`
		Condition string  `json:"condition" yaml:"condition" validate:"required"`
		Action    Outcome `json:"action" yaml:"action" validate:"required,oneof=allow warn confirm block"`
		Message   string  `json:"message,omitempty" yaml:"message,omitempty"`
	}
)

// Context carries the per-call fields the policy engine evaluates (spec.md
// §4.4). Optional numeric fields are pointers so "missing" and "zero" are
// distinguishable, which several rules (size limits, rate limits) depend on.
type Context struct {
	Chain   string
	Network string // "mainnet" | "testnet"
	Action  string

	SideEffect   string // "" | "none" | "broadcast"
	SimulationOk bool

	AmountUsd      *float64
	AmountSol      *float64
	AmountLamports *float64

	SlippageBps          *float64
	SimulatedSlippageBps *float64

	ProgramIds      []string
	ProgramIdsKnown bool
	TokenMints      []string

	SecondsSinceLastBroadcast *float64
	BroadcastsLastMinute      *float64

	Metrics map[string]any
}

// ToMap renders ctx as the tagged value tree the rule DSL evaluates
// expressions against (internal/ctxtree).
func (c Context) ToMap() map[string]any {
	m := map[string]any{
		"chain":           c.Chain,
		"network":         c.Network,
		"action":          c.Action,
		"sideEffect":      c.SideEffect,
		"simulationOk":    c.SimulationOk,
		"programIdsKnown": c.ProgramIdsKnown,
	}
	if len(c.ProgramIds) > 0 {
		m["programIds"] = toAnySlice(c.ProgramIds)
	}
	if len(c.TokenMints) > 0 {
		m["tokenMints"] = toAnySlice(c.TokenMints)
	}
	if c.AmountUsd != nil {
		m["amountUsd"] = *c.AmountUsd
	}
	if c.AmountSol != nil {
		m["amountSol"] = *c.AmountSol
	}
	if c.AmountLamports != nil {
		m["amountLamports"] = *c.AmountLamports
	}
	if c.SlippageBps != nil {
		m["slippageBps"] = *c.SlippageBps
	}
	if c.SimulatedSlippageBps != nil {
		m["simulatedSlippageBps"] = *c.SimulatedSlippageBps
	}
	if c.SecondsSinceLastBroadcast != nil {
		m["secondsSinceLastBroadcast"] = *c.SecondsSinceLastBroadcast
	}
	if c.BroadcastsLastMinute != nil {
		m["broadcastsLastMinute"] = *c.BroadcastsLastMinute
	}
	if c.Metrics != nil {
		m["metrics"] = c.Metrics
	}
	return m
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
