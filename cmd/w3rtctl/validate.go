package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"w3rt.dev/core/internal/dag"
	"w3rt.dev/core/internal/plan"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate WORKFLOW.json",
		Short: "Validate a DAG workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := loadDAGWorkflow(args[0])
			if err != nil {
				return err
			}
			if err := dag.Validate(wf); err != nil {
				return err
			}
			fmt.Printf("OK: %s (%d actions)\n", wf.Name, len(wf.Actions))
			return nil
		},
	}
}

func loadDAGWorkflow(path string) (*plan.DAGWorkflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return plan.ParseDAGWorkflow(data)
}
