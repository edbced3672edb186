package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"w3rt.dev/core/internal/w3rterr"
)

// Query provides read-only views over a Store's on-disk layout, caching
// parsed per-run event slices so repeated CLI/audit queries against the
// same run avoid re-reading and re-parsing trace.jsonl.
type Query struct {
	baseDir string
	cache   *lru.Cache[string, []Event]
}

// NewQuery constructs a Query rooted at baseDir, caching up to 64 runs'
// parsed event slices.
func NewQuery(baseDir string) (*Query, error) {
	cache, err := lru.New[string, []Event](64)
	if err != nil {
		return nil, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "create trace query cache", err)
	}
	return &Query{baseDir: baseDir, cache: cache}, nil
}

// ListRuns returns run ids found under the base directory, in reverse
// lexicographic order. That order is newest first only when run ids begin
// with a time-ordered prefix; the random UUIDv4 ids engine.Run assigns do
// not, so for them the order is unrelated to start time.
func (q *Query) ListRuns() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(q.baseDir, "runs"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "list runs", err)
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	return runs, nil
}

// LoadRunEvents returns every event recorded for runID, in append order.
func (q *Query) LoadRunEvents(runID string) ([]Event, error) {
	if events, ok := q.cache.Get(runID); ok {
		return events, nil
	}

	path := filepath.Join(q.baseDir, "runs", runID, "trace.jsonl")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, w3rterr.Newf("ARTIFACT_NOT_FOUND", "no trace recorded for run %s", runID)
	}
	if err != nil {
		return nil, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "read trace.jsonl", err)
	}

	var events []Event
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return nil, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "parse trace event", err)
		}
		events = append(events, evt)
	}

	q.cache.Add(runID, events)
	return events, nil
}

// Filter selects events across one or more runs for QueryEvents.
type Filter struct {
	RunIDs []string
	Types  []EventType
	Chain  string
	Tool   string
	FromTs *int64
	ToTs   *int64
	Limit  int
}

func (f Filter) matches(e Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Chain != "" && e.Chain != f.Chain {
		return false
	}
	if f.Tool != "" && e.Tool != f.Tool {
		return false
	}
	if f.FromTs != nil && e.Ts < *f.FromTs {
		return false
	}
	if f.ToTs != nil && e.Ts > *f.ToTs {
		return false
	}
	return true
}

// QueryEvents returns events matching filter across filter.RunIDs (or every
// known run, if RunIDs is empty), in run-then-append order, stopping once
// Limit matches are found (Limit <= 0 means unlimited).
func (q *Query) QueryEvents(filter Filter) ([]Event, error) {
	runIDs := filter.RunIDs
	if len(runIDs) == 0 {
		var err error
		runIDs, err = q.ListRuns()
		if err != nil {
			return nil, err
		}
	}

	var out []Event
	for _, runID := range runIDs {
		events, err := q.LoadRunEvents(runID)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if !filter.matches(e) {
				continue
			}
			out = append(out, e)
			if filter.Limit > 0 && len(out) >= filter.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// TxSummary correlates a submitted transaction with its eventual
// confirmation, keyed by the signature/hash embedded in each event's Data.
type TxSummary struct {
	Signature string `json:"signature"`
	Chain     string `json:"chain,omitempty"`
	Submitted bool   `json:"submitted"`
	Confirmed bool   `json:"confirmed"`
}

// RunSummary summarizes one run for an audit report.
type RunSummary struct {
	RunID        string      `json:"runId"`
	OK           bool        `json:"ok"`
	Chains       []string    `json:"chains,omitempty"`
	Transactions []TxSummary `json:"transactions,omitempty"`
}

// AuditReport aggregates run summaries over a time window (spec.md §4.7).
type AuditReport struct {
	TotalRuns    int          `json:"totalRuns"`
	SuccessCount int          `json:"successCount"`
	FailCount    int          `json:"failCount"`
	Chains       []string     `json:"chains,omitempty"`
	Runs         []RunSummary `json:"runs"`
}

type txData struct {
	Signature string `json:"signature"`
}

// GenerateAuditReport builds an AuditReport over every run that has at
// least one event in [from, to] (inclusive, unix ms). Each selected run is
// summarized from all of its run.finished and tx.submitted/tx.confirmed
// events, including ones outside the window.
func (q *Query) GenerateAuditReport(from, to int64) (*AuditReport, error) {
	runIDs, err := q.ListRuns()
	if err != nil {
		return nil, err
	}

	report := &AuditReport{}
	chainSet := make(map[string]bool)

	for _, runID := range runIDs {
		events, err := q.LoadRunEvents(runID)
		if err != nil {
			return nil, err
		}

		inWindow := false
		for _, e := range events {
			if e.Ts >= from && e.Ts <= to {
				inWindow = true
				break
			}
		}
		if !inWindow {
			continue
		}

		summary := RunSummary{RunID: runID, OK: true}
		chains := make(map[string]bool)
		txs := make(map[string]*TxSummary)
		var txOrder []string

		for _, e := range events {
			if e.Chain != "" {
				chains[e.Chain] = true
				chainSet[e.Chain] = true
			}
			switch e.Type {
			case RunFinished:
				var data struct {
					OK bool `json:"ok"`
				}
				if json.Unmarshal(e.Data, &data) == nil {
					summary.OK = data.OK
				}
			case TxSubmitted, TxConfirmed:
				var d txData
				if err := json.Unmarshal(e.Data, &d); err != nil || d.Signature == "" {
					continue
				}
				tx, ok := txs[d.Signature]
				if !ok {
					tx = &TxSummary{Signature: d.Signature, Chain: e.Chain}
					txs[d.Signature] = tx
					txOrder = append(txOrder, d.Signature)
				}
				if e.Type == TxSubmitted {
					tx.Submitted = true
				} else {
					tx.Confirmed = true
				}
			}
		}

		for name := range chains {
			summary.Chains = append(summary.Chains, name)
		}
		sort.Strings(summary.Chains)
		for _, sig := range txOrder {
			summary.Transactions = append(summary.Transactions, *txs[sig])
		}

		if summary.OK {
			report.SuccessCount++
		} else {
			report.FailCount++
		}
		report.TotalRuns++
		report.Runs = append(report.Runs, summary)
	}

	for name := range chainSet {
		report.Chains = append(report.Chains, name)
	}
	sort.Strings(report.Chains)

	return report, nil
}
