package engine

import (
	"context"
	"time"

	"w3rt.dev/core/internal/policy"
	"w3rt.dev/core/internal/ratewindow"
)

// ContextBuilder derives the policy.Context for one tool call from its
// rendered params and the run context. It leaves the rate-window fields
// zero; NewPolicyCheck fills them in.
type ContextBuilder func(toolName string, params, runCtx map[string]any) policy.Context

// NewPolicyCheck builds a PolicyCheckFunc that evaluates cfg via
// policy.Decide for every broadcast-side-effect tool call, sourcing
// secondsSinceLastBroadcast and broadcastsLastMinute from window rather than
// the policy engine itself (spec.md §5: the policy engine holds no shared
// mutable state; the caller supplies these two fields). An allow or warn
// outcome records the broadcast in window; confirm is treated the same as
// block, matching the engine's no-approval-callback behavior (spec.md §7).
func NewPolicyCheck(cfg policy.Config, window *ratewindow.Window, build ContextBuilder) PolicyCheckFunc {
	return func(ctx context.Context, toolName string, params map[string]any, runCtx map[string]any) (PolicyDecision, error) {
		pctx := build(toolName, params, runCtx)

		now := time.Now()
		since, perMinute := window.Snapshot(now)
		pctx.SecondsSinceLastBroadcast = since
		pctx.BroadcastsLastMinute = &perMinute

		decision := policy.Decide(cfg, pctx)
		switch decision.Outcome {
		case policy.Allow, policy.Warn:
			window.RecordBroadcast(now)
			return PolicyDecision{Allowed: true, Reason: decision.Message}, nil
		default:
			return PolicyDecision{Allowed: false, Reason: decision.Message}, nil
		}
	}
}
