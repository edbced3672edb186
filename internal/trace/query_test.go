package trace_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"w3rt.dev/core/internal/trace"
)

func seedRun(t *testing.T, store *trace.Store, runID string, ok bool, sig string) {
	t.Helper()
	ctx := context.Background()
	_, err := store.Emit(ctx, runID, trace.Event{Type: trace.RunStarted})
	require.NoError(t, err)
	_, err = store.Emit(ctx, runID, trace.Event{
		Type:  trace.TxSubmitted,
		Chain: "solana",
		Data:  json.RawMessage(`{"signature":"` + sig + `"}`),
	})
	require.NoError(t, err)
	_, err = store.Emit(ctx, runID, trace.Event{
		Type:  trace.TxConfirmed,
		Chain: "solana",
		Data:  json.RawMessage(`{"signature":"` + sig + `"}`),
	})
	require.NoError(t, err)
	_, err = store.Emit(ctx, runID, trace.Event{
		Type: trace.RunFinished,
		Data: json.RawMessage(`{"ok":` + boolStr(ok) + `}`),
	})
	require.NoError(t, err)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestListRunsReverseLexicographic(t *testing.T) {
	dir := t.TempDir()
	store := trace.NewStore(dir)
	seedRun(t, store, "run-001", true, "sigA")
	seedRun(t, store, "run-002", true, "sigB")

	q, err := trace.NewQuery(dir)
	require.NoError(t, err)
	runs, err := q.ListRuns()
	require.NoError(t, err)
	assert.Equal(t, []string{"run-002", "run-001"}, runs)
}

func TestQueryEventsFiltersByTypeAndLimit(t *testing.T) {
	dir := t.TempDir()
	store := trace.NewStore(dir)
	seedRun(t, store, "run-001", true, "sigA")
	seedRun(t, store, "run-002", false, "sigB")

	q, err := trace.NewQuery(dir)
	require.NoError(t, err)

	events, err := q.QueryEvents(trace.Filter{Types: []trace.EventType{trace.TxSubmitted}})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	limited, err := q.QueryEvents(trace.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGenerateAuditReportCorrelatesTransactions(t *testing.T) {
	dir := t.TempDir()
	store := trace.NewStore(dir)
	seedRun(t, store, "run-001", true, "sigA")
	seedRun(t, store, "run-002", false, "sigB")

	q, err := trace.NewQuery(dir)
	require.NoError(t, err)

	report, err := q.GenerateAuditReport(0, 1<<62)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRuns)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.FailCount)
	assert.Contains(t, report.Chains, "solana")

	for _, run := range report.Runs {
		require.Len(t, run.Transactions, 1)
		assert.True(t, run.Transactions[0].Submitted)
		assert.True(t, run.Transactions[0].Confirmed)
	}
}
