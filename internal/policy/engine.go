package policy

import (
	"fmt"
	"math"
	"strings"

	"w3rt.dev/core/internal/ruleexpr"
)

// Decide is the pure policy decision function (spec.md §4.4). It depends
// only on cfg and ctx — no shared mutable state, no I/O — per the purity
// invariant in spec.md §8.
func Decide(cfg Config, ctx Context) Decision {
	if d, ok := checkMainnetEnabled(cfg, ctx); ok {
		return d
	}
	if d, ok := checkSimulationGate(cfg, ctx); ok {
		return d
	}
	if d, ok := checkActionAllowlist(cfg, ctx); ok {
		return d
	}
	if d, ok := checkSolanaProgramAllowlist(cfg, ctx); ok {
		return d
	}
	if d, ok := checkRateLimits(cfg, ctx); ok {
		return d
	}
	if d, ok := checkSizeLimits(cfg, ctx); ok {
		return d
	}
	if d, ok := checkRequiredSimulatedSlippage(cfg, ctx); ok {
		return d
	}
	if d, ok := checkSlippageCeiling(cfg, ctx); ok {
		return d
	}
	if d, ok := checkCustomRules(cfg, ctx); ok {
		return d
	}
	return Decision{Outcome: Allow}
}

func checkMainnetEnabled(cfg Config, ctx Context) (Decision, bool) {
	if ctx.Network != "mainnet" {
		return Decision{}, false
	}
	net, ok := cfg.Networks["mainnet"]
	if ok && !net.Enabled {
		return Decision{
			Outcome: Block,
			Code:    "MAINNET_DISABLED",
			Message: "mainnet is disabled",
			Reasons: []string{"networks.mainnet.enabled", "ctx.network"},
		}, true
	}
	return Decision{}, false
}

func checkSimulationGate(cfg Config, ctx Context) (Decision, bool) {
	if ctx.Network != "mainnet" || ctx.SideEffect != "broadcast" {
		return Decision{}, false
	}
	net := cfg.Networks["mainnet"]
	if net.RequireSimulation && !ctx.SimulationOk {
		return Decision{
			Outcome: Block,
			Code:    "SIMULATION_REQUIRED",
			Message: "simulation is required before broadcast on mainnet",
			Reasons: []string{"networks.mainnet.requireSimulation", "ctx.simulationOk"},
		}, true
	}
	return Decision{}, false
}

func checkActionAllowlist(cfg Config, ctx Context) (Decision, bool) {
	if len(cfg.Allowlist.Actions) == 0 {
		return Decision{}, false
	}
	for _, a := range cfg.Allowlist.Actions {
		if a == ctx.Action {
			return Decision{}, false
		}
	}
	return Decision{
		Outcome: Block,
		Code:    "ACTION_NOT_ALLOWED",
		Message: fmt.Sprintf("action not allowed: %s", ctx.Action),
		Reasons: []string{"allowlist.actions", "ctx.action"},
	}, true
}

func checkSolanaProgramAllowlist(cfg Config, ctx Context) (Decision, bool) {
	if ctx.Chain != "solana" || len(cfg.Allowlist.SolanaPrograms) == 0 {
		return Decision{}, false
	}
	if !ctx.ProgramIdsKnown {
		return Decision{
			Outcome: Block,
			Code:    "PROGRAMS_UNKNOWN",
			Message: "program ids are not known; failing closed",
			Reasons: []string{"allowlist.solanaPrograms", "ctx.programIdsKnown"},
		}, true
	}
	allowed := make(map[string]bool, len(cfg.Allowlist.SolanaPrograms))
	for _, p := range cfg.Allowlist.SolanaPrograms {
		allowed[p] = true
	}
	for _, id := range ctx.ProgramIds {
		if !allowed[id] {
			return Decision{
				Outcome: Block,
				Code:    "PROGRAM_NOT_ALLOWED",
				Message: fmt.Sprintf("program not allowed: %s", id),
				Reasons: []string{"allowlist.solanaPrograms", "ctx.programIds"},
			}, true
		}
	}
	return Decision{}, false
}

func checkRateLimits(cfg Config, ctx Context) (Decision, bool) {
	if ctx.SideEffect != "broadcast" {
		return Decision{}, false
	}
	cooldown := cfg.Transactions.CooldownSeconds
	if cooldown > 0 && ctx.SecondsSinceLastBroadcast != nil {
		since := *ctx.SecondsSinceLastBroadcast
		if since >= 0 && since < cooldown {
			wait := int(math.Ceil(cooldown - since))
			return Decision{
				Outcome: Block,
				Code:    "COOLDOWN_ACTIVE",
				Message: fmt.Sprintf("wait %ds", wait),
				Reasons: []string{"transactions.cooldownSeconds", "ctx.secondsSinceLastBroadcast"},
			}, true
		}
	}
	maxPerMin := cfg.Transactions.MaxTxPerMinute
	if maxPerMin > 0 && ctx.BroadcastsLastMinute != nil && *ctx.BroadcastsLastMinute >= maxPerMin {
		return Decision{
			Outcome: Block,
			Code:    "RATE_LIMIT",
			Message: "broadcast rate limit exceeded",
			Reasons: []string{"transactions.maxTxPerMinute", "ctx.broadcastsLastMinute"},
		}, true
	}
	return Decision{}, false
}

func checkSizeLimits(cfg Config, ctx Context) (Decision, bool) {
	if cfg.Transactions.MaxSingleSol != nil && ctx.AmountSol != nil && *ctx.AmountSol > *cfg.Transactions.MaxSingleSol {
		return Decision{
			Outcome:         Confirm,
			Code:            "AMOUNT_SOL_LARGE",
			Message:         fmt.Sprintf("amount %.4f SOL exceeds single-transaction limit %.4f SOL", *ctx.AmountSol, *cfg.Transactions.MaxSingleSol),
			ConfirmationKey: "amount_sol_large",
			Reasons:         []string{"transactions.maxSingleSol", "ctx.amountSol"},
		}, true
	}
	if ctx.AmountUsd != nil && *ctx.AmountUsd > cfg.Transactions.MaxSingleAmountUsd {
		return Decision{
			Outcome:         Confirm,
			Code:            "AMOUNT_LARGE",
			Message:         fmt.Sprintf("amount $%.2f exceeds single-transaction limit $%.2f", *ctx.AmountUsd, cfg.Transactions.MaxSingleAmountUsd),
			ConfirmationKey: "amount_large",
			Reasons:         []string{"transactions.maxSingleAmountUsd", "ctx.amountUsd"},
		}, true
	}
	return Decision{}, false
}

func checkRequiredSimulatedSlippage(cfg Config, ctx Context) (Decision, bool) {
	if !cfg.Transactions.RequireSimulatedSlippageOnMainnet {
		return Decision{}, false
	}
	if ctx.Chain == "solana" && ctx.Network == "mainnet" && ctx.SideEffect == "broadcast" && ctx.Action == "swap" && ctx.SimulatedSlippageBps == nil {
		return Decision{
			Outcome: Block,
			Code:    "SIMULATED_SLIPPAGE_REQUIRED",
			Message: "simulated slippage is required for mainnet swaps",
			Reasons: []string{"transactions.requireSimulatedSlippageOnMainnet", "ctx.simulatedSlippageBps"},
		}, true
	}
	return Decision{}, false
}

func checkSlippageCeiling(cfg Config, ctx Context) (Decision, bool) {
	var s float64
	usedSimulated := false
	switch {
	case ctx.SimulatedSlippageBps != nil:
		s = *ctx.SimulatedSlippageBps
		usedSimulated = true
	case ctx.SlippageBps != nil:
		s = *ctx.SlippageBps
	default:
		return Decision{}, false
	}
	if s <= cfg.Transactions.MaxSlippageBps {
		return Decision{}, false
	}
	code := "SLIPPAGE_HIGH"
	label := "Requested"
	if usedSimulated {
		code = "SIMULATED_SLIPPAGE_HIGH"
		label = "Simulated"
	}
	return Decision{
		Outcome:         Confirm,
		Code:            code,
		Message:         fmt.Sprintf("%s slippage: %.2f%%", label, s/100),
		ConfirmationKey: "slippage_high",
		Reasons:         []string{"transactions.maxSlippageBps", "ctx.slippageBps", "ctx.simulatedSlippageBps"},
	}, true
}

func checkCustomRules(cfg Config, ctx Context) (Decision, bool) {
	if len(cfg.Rules) == 0 {
		return Decision{}, false
	}
	m := ctx.ToMap()
	for _, r := range cfg.Rules {
		if !ruleexpr.EvalString(r.Condition, m) {
			continue
		}
		if r.Action == Allow {
			continue
		}
		d := Decision{
			Outcome: r.Action,
			Code:    "RULE_" + strings.ToUpper(r.Name),
			Message: r.Message,
			Reasons: []string{"rules." + r.Name},
		}
		if r.Action == Confirm {
			d.ConfirmationKey = "rule_" + r.Name
		}
		return d, true
	}
	return Decision{}, false
}
