package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"w3rt.dev/core/internal/compiler"
)

func newCompileCmd() *cobra.Command {
	var outPath, policyPath string
	cmd := &cobra.Command{
		Use:   "compile WORKFLOW.json",
		Short: "Compile a workflow document into a plan artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := loadDAGWorkflow(args[0])
			if err != nil {
				return err
			}

			var policy map[string]any
			if policyPath != "" {
				data, err := os.ReadFile(policyPath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &policy); err != nil {
					return fmt.Errorf("parse policy document: %w", err)
				}
			}

			p, err := compiler.Compile(wf, policy)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Println(string(out))
				return nil
			}
			return os.WriteFile(outPath, append(out, '\n'), 0o644)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the plan artifact to this path instead of stdout")
	cmd.Flags().StringVar(&policyPath, "policy", "", "attach this policy document to the plan's meta")
	return cmd
}
