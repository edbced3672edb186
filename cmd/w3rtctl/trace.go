package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"w3rt.dev/core/internal/trace"
)

// newTraceCmd exposes internal/trace's read-only query API from the CLI
// (SPEC_FULL.md supplemented feature: spec.md §4.7 describes a full
// read-only query surface but only the plan-compiler subcommands are
// mandated explicitly, so this family gives it an external entry point).
func newTraceCmd() *cobra.Command {
	var baseDir string
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect the trace store",
	}
	cmd.PersistentFlags().StringVar(&baseDir, "base-dir", ".", "trace store base directory")

	cmd.AddCommand(
		newTraceListRunsCmd(&baseDir),
		newTraceShowRunCmd(&baseDir),
		newTraceAuditCmd(&baseDir),
	)
	return cmd
}

func newTraceListRunsCmd(baseDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list-runs",
		Short: "List known run ids in reverse lexicographic order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := trace.NewQuery(*baseDir)
			if err != nil {
				return err
			}
			runs, err := q.ListRuns()
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Println(r)
			}
			return nil
		},
	}
}

func newTraceShowRunCmd(baseDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show-run RUN_ID",
		Short: "Print every event recorded for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := trace.NewQuery(*baseDir)
			if err != nil {
				return err
			}
			events, err := q.LoadRunEvents(args[0])
			if err != nil {
				return err
			}
			for _, e := range events {
				b, err := json.Marshal(e)
				if err != nil {
					return err
				}
				fmt.Println(string(b))
			}
			return nil
		},
	}
}

func newTraceAuditCmd(baseDir *string) *cobra.Command {
	var from, to int64
	var table bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Generate an audit report across runs in a time window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := trace.NewQuery(*baseDir)
			if err != nil {
				return err
			}
			toTs := to
			if toTs == 0 {
				toTs = 1<<62 - 1
			}
			report, err := q.GenerateAuditReport(from, toTs)
			if err != nil {
				return err
			}
			if table {
				printAuditTable(report)
				return nil
			}
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		},
	}
	cmd.Flags().Int64Var(&from, "from", 0, "window start, unix ms")
	cmd.Flags().Int64Var(&to, "to", 0, "window end, unix ms (default: no upper bound)")
	cmd.Flags().BoolVar(&table, "table", false, "render as a human-readable table instead of JSON")
	return cmd
}

// printAuditTable renders an AuditReport as a human-readable table,
// matching the teacher pack's pattern of offering both machine (JSON) and
// human (table) output for the same aggregate result.
func printAuditTable(report *trace.AuditReport) {
	fmt.Printf("%-24s %-6s %-20s %s\n", "RUN", "OK", "CHAINS", "TRANSACTIONS")
	for _, run := range report.Runs {
		txs := ""
		for i, tx := range run.Transactions {
			if i > 0 {
				txs += ", "
			}
			txs += tx.Signature
		}
		fmt.Printf("%-24s %-6t %-20s %s\n", run.RunID, run.OK, joinChains(run.Chains), txs)
	}
	fmt.Printf("\nTotal: %d  Success: %d  Fail: %d  Chains: %s\n",
		report.TotalRuns, report.SuccessCount, report.FailCount, joinChains(report.Chains))
}

func joinChains(chains []string) string {
	out := ""
	for i, c := range chains {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}
