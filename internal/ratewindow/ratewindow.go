// Package ratewindow is a caller-side helper for tracking broadcast
// timestamps and computing the two rate-limit fields spec.md §5 requires
// the caller (not the policy engine) to supply: secondsSinceLastBroadcast
// and broadcastsLastMinute. It is never imported by internal/policy, which
// stays free of shared mutable state (spec.md §8 invariant 3).
//
// Grounded on golang.org/x/time/rate from the teacher's go.mod: a
// rate.Limiter sized to the caller's configured max-tx-per-minute backs an
// auxiliary pre-admission check a host can use before even reaching the
// policy engine, alongside the trailing-60s broadcast history this package
// tracks directly.
package ratewindow

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Window tracks recent broadcast timestamps for one (wallet, chain) pair or
// other caller-defined scope.
type Window struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	history []time.Time
	last    time.Time
}

// New constructs a Window. maxPerMinute <= 0 disables the auxiliary
// rate.Limiter (the trailing-60s history is still tracked).
func New(maxPerMinute float64) *Window {
	w := &Window{}
	if maxPerMinute > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(maxPerMinute/60.0), int(maxPerMinute))
	}
	return w
}

// Allow reports whether the auxiliary limiter would admit a broadcast at
// now. When no limiter is configured, Allow always returns true.
func (w *Window) Allow(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.limiter == nil {
		return true
	}
	return w.limiter.AllowN(now, 1)
}

// RecordBroadcast records a broadcast at now.
func (w *Window) RecordBroadcast(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = now
	w.history = append(w.history, now)
	w.prune(now)
}

// Snapshot computes the policy.Context rate fields as of now. secondsSince
// is nil until the first recorded broadcast.
func (w *Window) Snapshot(now time.Time) (secondsSince *float64, broadcastsLastMinute float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(now)
	broadcastsLastMinute = float64(len(w.history))
	if !w.last.IsZero() {
		s := now.Sub(w.last).Seconds()
		secondsSince = &s
	}
	return secondsSince, broadcastsLastMinute
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(w.history) && w.history[i].Before(cutoff) {
		i++
	}
	w.history = w.history[i:]
}
