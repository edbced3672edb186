package plan

import (
	"encoding/json"
	"fmt"

	"w3rt.dev/core/internal/w3rterr"
)

// ParseDAGWorkflow parses the flat, id/dependsOn-addressed workflow form
// (spec.md §6, "Alternative workflow form") from JSON. Schema errors use the
// parser codes from spec.md §7.
func ParseDAGWorkflow(data []byte) (*DAGWorkflow, error) {
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, w3rterr.Wrap("INVALID_TYPE", "invalid JSON workflow document", err)
	}

	name, ok := generic["name"]
	if !ok {
		return nil, w3rterr.New("MISSING_FIELD", "missing field: name")
	}
	if _, ok := name.(string); !ok {
		return nil, w3rterr.New("INVALID_TYPE", "field name must be a string")
	}

	rawActions, ok := generic["actions"]
	if !ok {
		return nil, w3rterr.New("MISSING_FIELD", "missing field: actions")
	}
	actionsList, ok := rawActions.([]any)
	if !ok {
		return nil, w3rterr.New("INVALID_TYPE", "field actions must be an array")
	}
	if len(actionsList) == 0 {
		return nil, w3rterr.New("EMPTY_ACTIONS", "workflow has no actions")
	}
	for i, rawAction := range actionsList {
		action, ok := rawAction.(map[string]any)
		if !ok {
			return nil, w3rterr.Newf("INVALID_TYPE", "actions[%d] must be an object", i)
		}
		id, ok := action["id"]
		if !ok {
			return nil, w3rterr.Newf("MISSING_FIELD", "actions[%d] missing field: id", i)
		}
		if _, ok := id.(string); !ok {
			return nil, w3rterr.Newf("INVALID_TYPE", "actions[%d].id must be a string", i)
		}
		tool, ok := action["tool"]
		if !ok {
			return nil, w3rterr.Newf("MISSING_FIELD", "actions[%d] missing field: tool", i)
		}
		if _, ok := tool.(string); !ok {
			return nil, w3rterr.Newf("INVALID_TYPE", "actions[%d].tool must be a string", i)
		}
		if dep, present := action["dependsOn"]; present {
			if _, ok := dep.([]any); !ok {
				return nil, w3rterr.Newf("INVALID_TYPE", "actions[%d].dependsOn must be an array", i)
			}
		}
	}

	var wf DAGWorkflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, w3rterr.Wrap("INVALID_TYPE", "invalid JSON workflow document", err)
	}
	return &wf, nil
}

// MarshalDAGWorkflow renders wf as indented JSON.
func MarshalDAGWorkflow(wf *DAGWorkflow) ([]byte, error) {
	b, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("plan: marshal dag workflow: %w", err)
	}
	return b, nil
}
