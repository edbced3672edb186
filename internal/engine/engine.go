// Package engine implements the workflow engine (spec.md §4.5): it executes
// a compiled stage-based workflow sequentially, evaluating gating
// expressions, rendering templated parameters, dispatching tool calls, and
// mediating approval and policy checks through caller-supplied callbacks.
// Grounded on the teacher's runtime/agent/run execution-context shape,
// generalized from a durable agent-run record to a single sequential
// in-process run loop.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"w3rt.dev/core/internal/ctxtree"
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/ruleexpr"
	"w3rt.dev/core/internal/telemetry"
	"w3rt.dev/core/internal/tools"
	"w3rt.dev/core/internal/trace"
	"w3rt.dev/core/internal/w3rterr"
)

// ApprovalFunc is the external approval callback consumed by the engine
// (spec.md §6): given the gating stage and the engine's live run context
// map (not a copy), it reports whether execution may proceed.
type ApprovalFunc func(ctx context.Context, stage plan.Stage, runCtx map[string]any) (bool, error)

// PolicyDecision is the result of a policy-check callback invocation
// (spec.md §6).
type PolicyDecision struct {
	Allowed bool
	Reason  string
}

// PolicyCheckFunc is the policy-check callback consumed by the engine
// (spec.md §6), invoked before any tool whose Meta.SideEffect is
// "broadcast".
type PolicyCheckFunc func(ctx context.Context, toolName string, params map[string]any, runCtx map[string]any) (PolicyDecision, error)

// Result is the outcome of a single Run invocation (spec.md §4.5).
type Result struct {
	OK      bool
	RunID   string
	Context map[string]any
	Error   error
}

// Hooks are optional observation callbacks fired around stage/action
// boundaries, in addition to the trace events the engine always emits.
type Hooks struct {
	OnStageStart  func(stage plan.Stage)
	OnStageEnd    func(stage plan.Stage, err error)
	OnActionStart func(stage plan.Stage, action plan.Action)
	OnActionEnd   func(stage plan.Stage, action plan.Action, result any, err error)
}

// Engine executes stage-based workflows against an explicit tool registry
// and a set of caller-supplied callbacks (spec.md §9: "no global mutable
// registry; the engine receives it explicitly").
type Engine struct {
	tools       *tools.Registry
	approval    ApprovalFunc
	policyCheck PolicyCheckFunc
	trace       *trace.Store
	telemetry   telemetry.Set
	hooks       Hooks
}

// Option configures an Engine.
type Option func(*Engine)

// WithApproval sets the approval callback consulted for `approval` stages.
func WithApproval(fn ApprovalFunc) Option { return func(e *Engine) { e.approval = fn } }

// WithPolicyCheck sets the policy-check callback consulted before
// broadcast-side-effect tools.
func WithPolicyCheck(fn PolicyCheckFunc) Option { return func(e *Engine) { e.policyCheck = fn } }

// WithTrace attaches a trace store the engine emits lifecycle events to.
// Without one, the engine runs but emits no trace.
func WithTrace(store *trace.Store) Option { return func(e *Engine) { e.trace = store } }

// WithTelemetry attaches a logger/metrics/tracer set; defaults to
// telemetry.NoopSet().
func WithTelemetry(set telemetry.Set) Option { return func(e *Engine) { e.telemetry = set } }

// WithHooks attaches observation callbacks.
func WithHooks(h Hooks) Option { return func(e *Engine) { e.hooks = h } }

// New constructs an Engine dispatching against registry.
func New(registry *tools.Registry, opts ...Option) *Engine {
	e := &Engine{tools: registry, telemetry: telemetry.NoopSet()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes workflow sequentially against a fresh run id, starting from
// initialCtx (spec.md §4.5). Stages and actions execute strictly in source
// order; cancellation delivered via ctx is observed only between actions,
// never mid-tool-call (spec.md §5).
func (e *Engine) Run(ctx context.Context, workflow *plan.StageWorkflow, initialCtx map[string]any) (Result, error) {
	runID := uuid.NewString()
	runCtx := cloneMap(initialCtx)
	runCtx["__runId"] = runID
	runCtx["__workflow"] = workflow.Name

	ctx, runSpan := e.telemetry.Tracer.Start(ctx, "engine.run")
	defer runSpan.End()
	e.telemetry.Logger.Info(ctx, "run started", "runId", runID, "workflow", workflow.Name)
	e.telemetry.Metrics.IncCounter("engine.runs", 1, "workflow", workflow.Name)

	e.emit(ctx, runID, trace.Event{Type: trace.RunStarted})

	var runErr error
	for i, stage := range workflow.Stages {
		if stage.When != "" && !ruleexpr.EvalString(stage.When, runCtx) {
			continue
		}

		if err := ctx.Err(); err != nil {
			runErr = w3rterr.New("CANCELLED", "run cancelled")
			break
		}

		if e.hooks.OnStageStart != nil {
			e.hooks.OnStageStart(stage)
		}
		e.telemetry.Metrics.RecordGauge("engine.run.stage_index", float64(i), "workflow", workflow.Name)
		stageCtx, stageSpan := e.telemetry.Tracer.Start(ctx, "engine.stage:"+stage.Name)
		e.telemetry.Logger.Debug(stageCtx, "stage started", "runId", runID, "stage", stage.Name)
		started := time.Now()
		e.emit(ctx, runID, trace.Event{Type: trace.StepStarted, StepID: stage.Name})

		var stageErr error
		if stage.Type == plan.StageApproval {
			stageErr = e.runApproval(stageCtx, runID, stage, runCtx)
		} else {
			stageErr = e.runActions(stageCtx, runID, stage, runCtx)
		}

		e.telemetry.Metrics.RecordTimer("engine.stage.duration", time.Since(started), "stage", stage.Name)
		if stageErr != nil {
			stageSpan.RecordError(stageErr)
			stageSpan.SetStatus(codes.Error, stageErr.Error())
			e.telemetry.Logger.Warn(stageCtx, "stage failed", "runId", runID, "stage", stage.Name, "error", stageErr.Error())
		}
		stageSpan.End()

		if e.hooks.OnStageEnd != nil {
			e.hooks.OnStageEnd(stage, stageErr)
		}
		e.emit(ctx, runID, trace.Event{Type: trace.StepFinished, StepID: stage.Name})

		if stageErr != nil {
			runErr = stageErr
			break
		}
	}

	ok := runErr == nil
	if !ok {
		runSpan.RecordError(runErr)
		runSpan.SetStatus(codes.Error, runErr.Error())
		e.telemetry.Logger.Error(ctx, "run failed", "runId", runID, "error", runErr.Error())
	} else {
		e.telemetry.Logger.Info(ctx, "run finished", "runId", runID)
	}
	e.telemetry.Metrics.IncCounter("engine.runs.finished", 1, "workflow", workflow.Name, "ok", boolTag(ok))
	e.emit(ctx, runID, trace.Event{Type: trace.RunFinished, Data: finishedData(ok, runErr)})

	return Result{OK: ok, RunID: runID, Context: runCtx, Error: runErr}, runErr
}

func boolTag(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}

func (e *Engine) runApproval(ctx context.Context, runID string, stage plan.Stage, runCtx map[string]any) error {
	block := stage.Approval
	if block == nil || !block.Required {
		return nil
	}
	for _, cond := range block.Conditions {
		if !ruleexpr.EvalString(cond, runCtx) {
			return w3rterr.New("APPROVAL_CONDITIONS_FAILED", "approval conditions failed for stage: "+stage.Name)
		}
	}
	if e.approval == nil {
		return w3rterr.New("NO_APPROVAL_HANDLER", "no approval handler configured")
	}
	approved, err := e.approval(ctx, stage, runCtx)
	if err != nil {
		return err
	}
	e.telemetry.Logger.Info(ctx, "approval decided", "runId", runID, "stage", stage.Name, "approved", approved)
	if !approved {
		return w3rterr.New("APPROVAL_REJECTED", "approval rejected for stage: "+stage.Name)
	}
	return nil
}

func (e *Engine) runActions(ctx context.Context, runID string, stage plan.Stage, runCtx map[string]any) error {
	for _, action := range stage.Actions {
		if err := ctx.Err(); err != nil {
			return w3rterr.New("CANCELLED", "run cancelled")
		}

		tool, ok := e.tools.Lookup(action.Tool)
		if !ok {
			return w3rterr.Newf("UNKNOWN_TOOL", "Unknown tool: %s", action.Tool)
		}

		params := renderParams(action.Params, runCtx)

		if e.hooks.OnActionStart != nil {
			e.hooks.OnActionStart(stage, action)
		}
		e.emit(ctx, runID, trace.Event{Type: trace.ToolCalled, StepID: stage.Name, Tool: action.Tool, Chain: tool.Meta.Chain})
		e.telemetry.Metrics.IncCounter("engine.tool.calls", 1, "tool", action.Tool)
		actionStarted := time.Now()

		if tool.Meta.SideEffect == "broadcast" && e.policyCheck != nil {
			decision, err := e.policyCheck(ctx, action.Tool, params, runCtx)
			if err != nil {
				return err
			}
			if !decision.Allowed {
				err := w3rterr.New("POLICY_BLOCKED", "Policy blocked: "+decision.Reason)
				e.telemetry.Logger.Warn(ctx, "tool blocked by policy", "runId", runID, "tool", action.Tool, "reason", decision.Reason)
				e.telemetry.Metrics.IncCounter("engine.tool.errors", 1, "tool", action.Tool, "reason", "policy_blocked")
				e.emit(ctx, runID, trace.Event{Type: trace.ToolError, StepID: stage.Name, Tool: action.Tool})
				if e.hooks.OnActionEnd != nil {
					e.hooks.OnActionEnd(stage, action, nil, err)
				}
				return err
			}
		}

		result, err := tool.Execute(ctx, params, runCtx)
		e.telemetry.Metrics.RecordTimer("engine.tool.duration", time.Since(actionStarted), "tool", action.Tool)
		if err != nil {
			e.telemetry.Logger.Error(ctx, "tool failed", "runId", runID, "tool", action.Tool, "error", err.Error())
			e.telemetry.Metrics.IncCounter("engine.tool.errors", 1, "tool", action.Tool, "reason", "execute")
			e.emit(ctx, runID, trace.Event{Type: trace.ToolError, StepID: stage.Name, Tool: action.Tool})
			if e.hooks.OnActionEnd != nil {
				e.hooks.OnActionEnd(stage, action, nil, err)
			}
			return w3rterr.Wrap("TOOL_FAILURE", "tool "+action.Tool+" failed", err)
		}

		storeAliases(runCtx, stage.Name, action.Tool, result)

		e.emit(ctx, runID, trace.Event{Type: trace.ToolResult, StepID: stage.Name, Tool: action.Tool})
		if e.hooks.OnActionEnd != nil {
			e.hooks.OnActionEnd(stage, action, result, nil)
		}
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, runID string, evt trace.Event) {
	if e.trace == nil {
		return
	}
	_, _ = e.trace.Emit(ctx, runID, evt)
}

func renderParams(params map[string]any, runCtx map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	rendered := make(map[string]any, len(params))
	for k, v := range params {
		rendered[k] = ctxtree.RenderValue(v, runCtx)
	}
	return rendered
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func finishedData(ok bool, err error) []byte {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b, marshalErr := marshalFinished(ok, msg)
	if marshalErr != nil {
		return nil
	}
	return b
}
