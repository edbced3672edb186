package plan

import (
	"gopkg.in/yaml.v3"

	"w3rt.dev/core/internal/w3rterr"
)

// ParseStageWorkflow parses the stage-based workflow document (spec.md §6,
// first form) from either YAML or JSON — yaml.v3 accepts both syntaxes,
// matching the document's "YAML or JSON" requirement without a second
// parser. Schema errors use the parser codes from spec.md §7.
func ParseStageWorkflow(data []byte) (*StageWorkflow, error) {
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, w3rterr.Wrap("INVALID_TYPE", "invalid workflow document", err)
	}

	if err := requireString(generic, "name"); err != nil {
		return nil, err
	}
	if err := requireString(generic, "version"); err != nil {
		return nil, err
	}

	rawTrigger, ok := generic["trigger"]
	if !ok {
		return nil, w3rterr.New("MISSING_FIELD", "missing field: trigger")
	}
	triggerStr, ok := rawTrigger.(string)
	if !ok {
		return nil, w3rterr.New("INVALID_TYPE", "field trigger must be a string")
	}
	if !ValidTrigger(Trigger(triggerStr)) {
		return nil, w3rterr.Newf("INVALID_TRIGGER", "invalid trigger: %s", triggerStr)
	}

	rawStages, ok := generic["stages"]
	if !ok {
		return nil, w3rterr.New("MISSING_FIELD", "missing field: stages")
	}
	stagesList, ok := rawStages.([]any)
	if !ok {
		return nil, w3rterr.New("INVALID_TYPE", "field stages must be an array")
	}
	if len(stagesList) == 0 {
		return nil, w3rterr.New("EMPTY_STAGES", "workflow has no stages")
	}

	for i, rawStage := range stagesList {
		stage, ok := rawStage.(map[string]any)
		if !ok {
			return nil, w3rterr.Newf("INVALID_TYPE", "stages[%d] must be an object", i)
		}
		if err := requireString(stage, "name"); err != nil {
			return nil, prefixStage(err, i)
		}
		rawType, ok := stage["type"]
		if !ok {
			return nil, w3rterr.Newf("MISSING_FIELD", "stages[%d] missing field: type", i)
		}
		typeStr, ok := rawType.(string)
		if !ok {
			return nil, w3rterr.Newf("INVALID_TYPE", "stages[%d].type must be a string", i)
		}
		if !ValidStageType(StageType(typeStr)) {
			return nil, w3rterr.Newf("INVALID_STAGE_TYPE", "stages[%d] invalid stage type: %s", i, typeStr)
		}
		if typeStr == string(StageApproval) {
			continue
		}
		rawActions, ok := stage["actions"]
		if !ok {
			return nil, w3rterr.Newf("EMPTY_ACTIONS", "stages[%d] has no actions", i)
		}
		actionsList, ok := rawActions.([]any)
		if !ok {
			return nil, w3rterr.Newf("INVALID_TYPE", "stages[%d].actions must be an array", i)
		}
		if len(actionsList) == 0 {
			return nil, w3rterr.Newf("EMPTY_ACTIONS", "stages[%d] has no actions", i)
		}
	}

	var wf StageWorkflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, w3rterr.Wrap("INVALID_TYPE", "invalid workflow document", err)
	}
	return &wf, nil
}

func requireString(m map[string]any, field string) error {
	v, ok := m[field]
	if !ok {
		return w3rterr.Newf("MISSING_FIELD", "missing field: %s", field)
	}
	if _, ok := v.(string); !ok {
		return w3rterr.Newf("INVALID_TYPE", "field %s must be a string", field)
	}
	return nil
}

func prefixStage(err error, i int) error {
	// requireString already names the bare field; re-wrap with the stage
	// index for a precise message while preserving the code.
	code, _ := w3rterr.CodeOf(err)
	return w3rterr.Newf(code, "stages[%d] %s", i, err.Error())
}
