// Package chain defines the Driver capability consumed by tool
// implementations (spec.md §1, §6). No concrete chain driver ships in this
// module — transaction construction, signing, and RPC I/O are external
// collaborators.
package chain

import "context"

// SimulateResult is the outcome of a dry-run transaction simulation.
type SimulateResult struct {
	OK             bool
	Err            string
	Logs           []string
	UnitsConsumed  int64
	SlippageBps    *float64
	ProgramIds     []string
}

// ExtractResult reports which on-chain program ids a transaction touches.
type ExtractResult struct {
	Known bool
	IDs   []string
}

// Driver is the consumed chain capability (spec.md §6): simulate a
// base64-encoded transaction, and extract the program ids it touches.
type Driver interface {
	Chain() string
	SimulateTxB64(ctx context.Context, txB64 string, rpcURL string) (SimulateResult, error)
	ExtractIDsFromTxB64(ctx context.Context, txB64 string, rpcURL string) (ExtractResult, error)
}
