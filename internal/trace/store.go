package trace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"w3rt.dev/core/internal/w3rterr"
)

// Store is the append-only per-run event log and content-addressed artifact
// directory (spec.md §4.6), rooted at a caller-supplied base directory.
type Store struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore constructs a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, "runs", runID)
}

func (s *Store) traceFile(runID string) string {
	return filepath.Join(s.runDir(runID), "trace.jsonl")
}

func (s *Store) artifactsDir(runID string) string {
	return filepath.Join(s.runDir(runID), "artifacts")
}

func (s *Store) runMutex(runID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[runID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[runID] = l
	}
	return l
}

// Emit assigns a fresh id (and timestamp, if unset) and appends evt as a
// single JSON line. It serializes writes per run id with an in-process
// mutex plus a gofrs/flock file lock scoped to the run directory, so a
// stray second process sharing the base directory fails loudly instead of
// interleaving partial lines (spec.md §4.13, §5).
func (s *Store) Emit(ctx context.Context, runID string, evt Event) (Event, error) {
	mu := s.runMutex(runID)
	mu.Lock()
	defer mu.Unlock()

	evt.ID = uuid.NewString()
	evt.RunID = runID
	if evt.Ts == 0 {
		evt.Ts = time.Now().UnixMilli()
	}

	dir := s.runDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Event{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "create run directory", err)
	}

	fl := flock.New(filepath.Join(dir, ".trace.lock"))
	locked, err := fl.TryLock()
	if err != nil || !locked {
		return Event{}, w3rterr.Newf("ARTIFACT_NOT_FOUND", "trace.jsonl is locked by another process for run %s", runID)
	}
	defer fl.Unlock()

	line, err := json.Marshal(evt)
	if err != nil {
		return Event{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "marshal trace event", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(s.traceFile(runID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Event{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "open trace.jsonl", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return Event{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "append trace event", err)
	}
	if err := f.Sync(); err != nil {
		return Event{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "flush trace event", err)
	}
	return evt, nil
}

// WriteArtifact serializes obj as pretty-printed JSON under
// runs/<runId>/artifacts/<name>.json, replacing any prior contents for the
// same name, and returns its ArtifactRef.
func (s *Store) WriteArtifact(runID, name string, obj any) (ArtifactRef, error) {
	dir := s.artifactsDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ArtifactRef{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "create artifacts directory", err)
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return ArtifactRef{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "marshal artifact", err)
	}

	path := filepath.Join(dir, name+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return ArtifactRef{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "write artifact", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return ArtifactRef{}, w3rterr.Wrap("ARTIFACT_NOT_FOUND", "finalize artifact", err)
	}

	sum := sha256.Sum256(b)
	return ArtifactRef{
		RunID:  runID,
		Name:   name,
		Path:   path,
		SHA256: "sha256:" + hex.EncodeToString(sum[:]),
		Bytes:  int64(len(b)),
	}, nil
}
