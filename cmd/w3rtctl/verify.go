package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"w3rt.dev/core/internal/compiler"
	"w3rt.dev/core/internal/plan"
	"w3rt.dev/core/internal/w3rterr"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify PLAN.json ARTIFACT.json",
		Short: "Recompute a plan's hash and check it against a result artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			artifact, err := loadHashRef(args[1])
			if err != nil {
				return err
			}

			recomputed, err := compiler.HashPlanSteps(p)
			if err != nil {
				return err
			}

			planHash := ""
			policyHash := ""
			if p.Meta != nil {
				planHash = p.Meta.PlanHash
				policyHash = p.Meta.PolicyHash
			}

			if recomputed != planHash {
				return w3rterr.Newf("HASH_MISMATCH", "recomputed plan hash %s does not match plan meta.planHash %s", recomputed, planHash)
			}
			if recomputed != artifact.PlanHash {
				return w3rterr.Newf("HASH_MISMATCH", "recomputed plan hash %s does not match artifact planHash %s", recomputed, artifact.PlanHash)
			}
			if policyHash != "" || artifact.PolicyHash != "" {
				if policyHash != artifact.PolicyHash {
					return w3rterr.Newf("HASH_MISMATCH", "plan policyHash %s does not match artifact policyHash %s", policyHash, artifact.PolicyHash)
				}
			}

			fmt.Printf("OK: %s matches %s\n", args[0], args[1])
			return nil
		},
	}
}

func loadPlan(path string) (*plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan artifact: %w", err)
	}
	return &p, nil
}

type hashRef struct {
	PlanHash   string
	PolicyHash string
}

// loadHashRef reads a result artifact's hash fields, accepting either a
// top-level {planHash, policyHash} shape or a nested {meta:{...}} shape
// (the plan artifact's own layout), since spec.md §6 leaves the result
// artifact's exact envelope to the caller.
func loadHashRef(path string) (hashRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return hashRef{}, err
	}
	var doc struct {
		PlanHash   string `json:"planHash"`
		PolicyHash string `json:"policyHash"`
		Meta       *struct {
			PlanHash   string `json:"planHash"`
			PolicyHash string `json:"policyHash"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return hashRef{}, fmt.Errorf("parse result artifact: %w", err)
	}
	if doc.Meta != nil {
		return hashRef{PlanHash: doc.Meta.PlanHash, PolicyHash: doc.Meta.PolicyHash}, nil
	}
	return hashRef{PlanHash: doc.PlanHash, PolicyHash: doc.PolicyHash}, nil
}
