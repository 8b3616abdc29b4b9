package crawler

import (
	"context"
	"fmt"
	"repocrawler/pkg/hostapi"
	"repocrawler/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Governor tracks the remote API's call budget and gates dispatch so that no
// worker issues a call once the budget is exhausted. It is shared by every
// Worker goroutine, unlike the single-worker rate limiting this logic was
// generalized from: the budget belongs to the process, not to one worker.
//
// State is a single Rate-Limit Snapshot (remaining/limit/resetAt) plus an
// outstanding-reservations counter for calls dispatched but not yet observed.
// Reserve computes effective remaining budget as lastSnapshot.Remaining (or
// Limit, once resetAt has passed) minus outstanding, and either grants a
// reservation immediately or waits — non-busy, woken by either the reset
// timer or any other reservation completing — and retries.
//
// Bootstrap: before any real snapshot has been observed, a synthetic
// snapshot with Limit=1, Remaining=1 and a far-future resetAt allows exactly
// one probe call through so the first response can supply real headers.
type Governor struct {
	mu          sync.Mutex
	last        *hostapi.RateLimitSnapshot
	outstanding int
	// observed is false while last is still the synthetic bootstrap snapshot.
	observed bool
	// finished is a wake-up channel holding at most one pending signal: a send
	// wakes one waiter that a reservation completed, or is kept for the next
	// waiter, so a release between Reserve's check and its wait is not lost.
	finished chan struct{}
}

// NewGovernor constructs a Governor with no prior rate-limit observation.
func NewGovernor() *Governor {
	return &Governor{finished: make(chan struct{}, 1)}
}

// Reserve acquires one unit of call budget, suspending the caller until a
// unit becomes available. It returns an error only if ctx is cancelled while
// waiting.
func (g *Governor) Reserve(ctx context.Context) error {
	for {
		g.mu.Lock()

		if g.last == nil {
			g.last = &hostapi.RateLimitSnapshot{
				Limit:     1,
				Remaining: 1,
				ResetAt:   time.Now().Add(365 * 24 * time.Hour),
			}
		}

		remaining := g.last.Remaining
		if time.Now().After(g.last.ResetAt) {
			remaining = g.last.Limit
		}

		if remaining-g.outstanding > 0 {
			g.outstanding++
			logger.Debug(ctx, "reserved rate limit slot",
				zap.Int("remaining", remaining),
				zap.Int("outstanding", g.outstanding))
			g.mu.Unlock()

			return nil
		}

		resetAt := g.last.ResetAt
		g.mu.Unlock()

		logger.Debug(ctx, "waiting for rate limit budget",
			zap.Int("remaining", remaining),
			zap.Time("resetAt", resetAt))

		// once resetAt has passed only a completing reservation can free budget.
		var resetTimer <-chan time.Time
		if wait := time.Until(resetAt); wait > 0 {
			resetTimer = time.After(wait)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for rate limit budget: %w", ctx.Err())
		case <-g.finished:
			continue
		case <-resetTimer:
			continue
		}
	}
}

// Observe updates internal state from a response's rate-limit snapshot and
// decrements the outstanding-reservations counter. The first real snapshot
// always replaces the synthetic bootstrap one. After that, if the snapshot's ResetAt
// is strictly later than the one currently stored, it is adopted
// unconditionally, since that means the window has rolled over; an equal or
// earlier ResetAt is an out-of-order response for the same or a stale
// window, so it only replaces the stored snapshot when it reports a lower
// Remaining, a conservative merge that avoids overuse when concurrent
// workers observe slightly different views of the same window.
func (g *Governor) Observe(snapshot hostapi.RateLimitSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.release()

	if snapshot.ResetAt.IsZero() {
		return
	}

	switch {
	case g.last == nil, !g.observed:
		g.last = &snapshot
	case snapshot.ResetAt.After(g.last.ResetAt):
		g.last = &snapshot
	case snapshot.Remaining < g.last.Remaining:
		g.last = &snapshot
	}
	g.observed = true
}

// ReleaseWithoutCall releases a reservation that was acquired but never used
// to issue a call, e.g. because the queue closed while the worker held the
// reservation.
func (g *Governor) ReleaseWithoutCall() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.release()
}

// release decrements outstanding and signals one waiter in Reserve, leaving
// the signal pending if none is waiting yet. Caller must hold mu.
func (g *Governor) release() {
	if g.outstanding > 0 {
		g.outstanding--
	}

	select {
	case g.finished <- struct{}{}:
	default:
	}
}
