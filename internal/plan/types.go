// Package plan hosts the data model shared by the workflow compiler and
// engine: the flat DAG workflow form consumed by the DAG validator and
// compiler, the stage-based workflow document consumed by the engine, and
// the compiled Plan artifact (spec.md §3, §6).
package plan

// StageType enumerates the stage kinds a workflow document may declare.
type StageType string

// Trigger enumerates how a stage-based workflow is started.
type Trigger string

const (
	StageAnalysis   StageType = "analysis"
	StageSimulation StageType = "simulation"
	StageApproval   StageType = "approval"
	StageExecution  StageType = "execution"
	StageMonitor    StageType = "monitor"

	TriggerManual Trigger = "manual"
	TriggerCron   Trigger = "cron"
)

// ValidStageType reports whether t is one of the five declared stage types.
func ValidStageType(t StageType) bool {
	switch t {
	case StageAnalysis, StageSimulation, StageApproval, StageExecution, StageMonitor:
		return true
	default:
		return false
	}
}

// ValidTrigger reports whether t is a declared trigger kind.
func ValidTrigger(t Trigger) bool {
	switch t {
	case TriggerManual, TriggerCron:
		return true
	default:
		return false
	}
}

type (
	// StageWorkflow is the stage-based workflow document the engine
	// executes (spec.md §6, first form).
	StageWorkflow struct {
		Name        string  `json:"name" yaml:"name"`
		Version     string  `json:"version" yaml:"version"`
		Trigger     Trigger `json:"trigger" yaml:"trigger"`
		Description string  `json:"description,omitempty" yaml:"description,omitempty"`
		Stages      []Stage `json:"stages" yaml:"stages"`
	}

	// Stage is one named group of actions sharing a gating expression and
	// (optionally) an approval block.
	Stage struct {
		Name     string         `json:"name" yaml:"name"`
		Type     StageType      `json:"type" yaml:"type"`
		When     string         `json:"when,omitempty" yaml:"when,omitempty"`
		Actions  []Action       `json:"actions,omitempty" yaml:"actions,omitempty"`
		Approval *ApprovalBlock `json:"approval,omitempty" yaml:"approval,omitempty"`
	}

	// Action is one unit of work: a tool name and its template-bearing
	// parameters.
	Action struct {
		Tool   string         `json:"tool" yaml:"tool"`
		Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	}

	// ApprovalBlock gates a stage on an external approval callback, after
	// all of Conditions evaluate true.
	ApprovalBlock struct {
		Required   bool     `json:"required" yaml:"required"`
		Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	}
)

type (
	// DAGWorkflow is the flat, id/dependsOn-addressed workflow form
	// consumed by the DAG validator and plan compiler (spec.md §6,
	// "Alternative workflow form").
	DAGWorkflow struct {
		Name    string      `json:"name"`
		Actions []DAGAction `json:"actions"`
	}

	// DAGAction is one node in the dependency graph.
	DAGAction struct {
		ID        string         `json:"id"`
		Tool      string         `json:"tool"`
		Params    map[string]any `json:"params,omitempty"`
		DependsOn []string       `json:"dependsOn,omitempty"`
	}
)

type (
	// Plan is the canonical, hashable form of a DAGWorkflow (spec.md §3).
	Plan struct {
		Schema   string     `json:"schema"`
		Workflow string     `json:"workflow"`
		Steps    []PlanStep `json:"steps"`
		Meta     *PlanMeta  `json:"meta,omitempty"`
	}

	// PlanStep is one step of a compiled plan.
	PlanStep struct {
		ID        string         `json:"id"`
		Tool      string         `json:"tool"`
		Params    map[string]any `json:"params,omitempty"`
		DependsOn []string       `json:"dependsOn,omitempty"`
	}

	// PlanMeta carries the hashes and (optionally) the attached policy.
	PlanMeta struct {
		PlanHash   string         `json:"planHash,omitempty"`
		PolicyHash string         `json:"policyHash,omitempty"`
		Policy     map[string]any `json:"policy,omitempty"`
	}
)

// SchemaV1 is the plan artifact schema string, spec.md §3/§6.
const SchemaV1 = "w3rt.plan.v1"
