// Package config loads and validates the policy configuration document
// (SPEC_FULL.md §4.8): YAML or JSON parsing, struct-tag validation,
// defaults-merging, and optional JSON Schema cross-validation ahead of the
// typed decode. Grounded on other_examples/compozy's config loader for the
// mergo/validator pairing and on the teacher's go.mod for the jsonschema
// pair.
package config

import (
	"bytes"
	"fmt"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"w3rt.dev/core/internal/policy"
	"w3rt.dev/core/internal/w3rterr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPolicy is the conservative baseline every loaded policy document is
// merged onto: mainnet disabled, simulation required once enabled, no
// allowlisted actions or programs (SPEC_FULL.md §4.8).
func DefaultPolicy() policy.Config {
	return policy.Config{
		Networks: map[string]policy.NetworkConfig{
			"mainnet": {Enabled: false, RequireApproval: true, RequireSimulation: true},
			"testnet": {Enabled: true, RequireApproval: false, RequireSimulation: false},
		},
		Transactions: policy.TransactionsConfig{
			MaxSingleAmountUsd: 100,
			MaxSlippageBps:     50,
			CooldownSeconds:    30,
			MaxTxPerMinute:     5,
		},
	}
}

// LoadPolicy parses data (YAML or JSON — YAML is a superset, so one decode
// path handles both), merges it onto DefaultPolicy, and validates the
// result's struct tags. Schema validation runs first when schema is
// non-nil.
func LoadPolicy(data []byte, schema *Schema) (policy.Config, error) {
	if schema != nil {
		if err := schema.Validate(data); err != nil {
			return policy.Config{}, err
		}
	}

	var override policy.Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return policy.Config{}, w3rterr.Wrap("MISSING_FIELD", "parse policy document", err)
	}

	cfg := DefaultPolicy()
	// mergo replaces a map's struct entries wholesale, so each overridden
	// network is first merged onto its default entry to keep unset flags.
	for name, net := range override.Networks {
		base, ok := cfg.Networks[name]
		if !ok {
			continue
		}
		if err := mergo.Merge(&base, net, mergo.WithOverride); err != nil {
			return policy.Config{}, w3rterr.Wrap("MISSING_FIELD", "merge policy defaults", err)
		}
		override.Networks[name] = base
	}
	if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
		return policy.Config{}, w3rterr.Wrap("MISSING_FIELD", "merge policy defaults", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return policy.Config{}, w3rterr.Wrap("INVALID_TYPE", "policy document failed validation", err)
	}

	return cfg, nil
}

// Schema compiles and validates raw policy documents against a JSON Schema
// generated from policy.Config, producing schema-shaped diagnostics
// distinct from the workflow-document MISSING_FIELD/INVALID_TYPE codes
// (SPEC_FULL.md §4.8).
type Schema struct {
	compiled *jsonschema.Schema
}

// NewSchema generates a JSON Schema from policy.Config via
// github.com/invopop/jsonschema and compiles it with
// github.com/santhosh-tekuri/jsonschema/v6.
func NewSchema() (*Schema, error) {
	reflector := &jsonschema.Reflector{DoNotReference: true, RequiredFromJSONSchemaTags: true}
	doc := reflector.Reflect(&policy.Config{})
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, w3rterr.Wrap("MISSING_FIELD", "marshal generated policy schema", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("policy.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, w3rterr.Wrap("MISSING_FIELD", "add policy schema resource", err)
	}
	compiled, err := compiler.Compile("policy.schema.json")
	if err != nil {
		return nil, w3rterr.Wrap("MISSING_FIELD", "compile policy schema", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks raw JSON/YAML policy data against the compiled schema.
// The data is first decoded into Go values with yaml.v3 (which also reads
// JSON), since jsonschema/v6 validates decoded Go values rather than raw
// bytes.
func (s *Schema) Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return w3rterr.Wrap("MISSING_FIELD", "parse policy document for schema check", err)
	}
	doc = normalizeForSchema(doc)
	if err := s.compiled.Validate(doc); err != nil {
		return w3rterr.Wrap("INVALID_TYPE", fmt.Sprintf("policy document failed schema validation: %v", err), err)
	}
	return nil
}

// normalizeForSchema converts yaml.v3's map[string]interface{} decode
// output (already the case for pure-JSON input) into the
// map[string]any/[]any shapes jsonschema/v6 expects.
func normalizeForSchema(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeForSchema(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeForSchema(vv)
		}
		return out
	default:
		return v
	}
}
