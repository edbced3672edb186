package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"w3rt.dev/core/internal/compiler"
)

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain WORKFLOW.json",
		Short: "Print source actions and compiled plan steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := loadDAGWorkflow(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Source actions (%s):\n", wf.Name)
			for _, a := range wf.Actions {
				fmt.Printf("  %s [%s] dependsOn=%v\n", a.ID, a.Tool, a.DependsOn)
			}

			p, err := compiler.Compile(wf, nil)
			if err != nil {
				return err
			}
			injected := make(map[string]bool)
			for _, id := range compiler.InjectedStepIDs(wf, p) {
				injected[id] = true
			}

			fmt.Println("Compiled plan steps:")
			for _, s := range p.Steps {
				tag := ""
				if injected[s.ID] {
					tag = " (injected)"
				}
				fmt.Printf("  %s [%s] dependsOn=%v%s\n", s.ID, s.Tool, s.DependsOn, tag)
			}
			return nil
		},
	}
}
