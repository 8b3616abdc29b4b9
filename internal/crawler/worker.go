package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"repocrawler/pkg/hostapi"
	"repocrawler/pkg/logger"
	"repocrawler/pkg/metrics"
	"repocrawler/pkg/serrors"
	"repocrawler/pkg/storage"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	maxCallAttempts  = 3
	initialBackoff   = 500 * time.Millisecond
	backoffFactor    = 2
	backoffJitterPct = 0.2
)

// Worker is a single concurrent unit of the crawl engine: it dequeues a
// request, waits for rate-limit budget, calls the host API, and delegates
// the response to Expansion. All fields are shared capability handles owned
// by the Supervisor; a Worker holds no state of its own beyond its ID.
type Worker struct {
	ID             int
	Queue          Queue
	Governor       *Governor
	Client         hostapi.Client
	Sink           storage.Sink
	Seen           *SeenSet
	Progress       *Progress
	RequestTimeout time.Duration
}

// Run executes the worker loop described by the crawl engine's design until
// the queue is closed and drained, the context is cancelled, or a fatal
// error (auth denial, any Sink failure, an unclassified client error)
// occurs. A push rejected because the queue has closed also ends the worker
// cleanly. A nil return means clean termination; a non-nil return signals
// the Supervisor to abort.
func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithFields(ctx, zap.Int("workerID", w.ID))

	for {
		req, err := w.Queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, serrors.ErrQueueClosed) {
				return nil
			}

			return fmt.Errorf("worker %d: could not dequeue request: %w", w.ID, err)
		}

		w.Progress.requestStarted()
		err = w.processOnce(ctx, req)
		w.Progress.requestFinished()

		if err != nil {
			if errors.Is(err, serrors.ErrQueueClosed) {
				return nil
			}

			return fmt.Errorf("worker %d: %w", w.ID, err)
		}

		// the target is tracked via the same counter Upsert increments, which
		// mirrors Sink.CountUnique without a round trip on every request.
		if w.Progress.Snapshot().ReachedTarget {
			w.Queue.Close()

			return nil
		}
	}
}

// processOnce dispatches a single request by kind and runs it through the
// reserve/call/expand cycle, including retry and error-policy handling.
func (w *Worker) processOnce(ctx context.Context, req Request) error {
	switch req.Kind {
	case RequestSearchOrganization:
		return w.processSearch(ctx, req)
	case RequestListRepositoriesOfOrganization:
		return w.processList(ctx, req)
	default:
		return fmt.Errorf("unknown request kind %d", req.Kind)
	}
}

func (w *Worker) processSearch(ctx context.Context, req Request) error {
	var resp hostapi.SearchOrganizationsResponse
	ok, err := w.attempt(ctx, req, func(ctx context.Context) (hostapi.RateLimitSnapshot, error) {
		r, callErr := w.Client.SearchOrganizations(ctx, hostapi.SearchOrganizationsRequest{
			Query:    req.Query,
			PageSize: req.PageSize,
			Cursor:   req.Cursor,
		})
		resp = r

		return r.RateLimit, callErr
	})
	if err != nil || !ok {
		return err
	}

	return ExpandSearchOrganizations(ctx, req, resp, w.Queue)
}

func (w *Worker) processList(ctx context.Context, req Request) error {
	var resp hostapi.ListRepositoriesResponse
	ok, err := w.attempt(ctx, req, func(ctx context.Context) (hostapi.RateLimitSnapshot, error) {
		r, callErr := w.Client.ListRepositoriesOfOrganization(ctx, hostapi.ListRepositoriesRequest{
			Owner:    req.Owner,
			PageSize: req.PageSize,
			Cursor:   req.Cursor,
		})
		resp = r

		return r.RateLimit, callErr
	})
	if err != nil || !ok {
		return err
	}

	return ExpandListRepositoriesOfOrganization(ctx, req, resp, w.Seen, w.Sink, w.Queue, w.Progress)
}

// attempt reserves budget and invokes callFn, applying the error-kind retry
// policy. It returns (true, nil) when the call ultimately succeeded and the
// caller should proceed to expansion; (false, nil) when the request was
// terminally handled here (re-enqueued as rate-limited, treated as an empty
// NotFound page, or dropped after exhausting retries); and (false, err) when
// the request cannot be handled here (auth denial, an unclassified error, a
// failed re-enqueue, or context cancellation) and the error must propagate
// to Run. Each call to callFn is bounded by RequestTimeout when it is set.
func (w *Worker) attempt(
	ctx context.Context,
	req Request,
	callFn func(ctx context.Context) (hostapi.RateLimitSnapshot, error),
) (bool, error) {
	backoff := initialBackoff

	for try := 0; ; try++ {
		if err := w.Governor.Reserve(ctx); err != nil {
			return false, fmt.Errorf("could not reserve rate limit budget: %w", err)
		}

		callCtx, cancelCall := ctx, context.CancelFunc(func() {})
		if w.RequestTimeout > 0 {
			callCtx, cancelCall = context.WithTimeout(ctx, w.RequestTimeout)
		}

		callStart := time.Now()
		rl, callErr := callFn(callCtx)
		cancelCall()
		metrics.HostAPICallDuration.Record(ctx, time.Since(callStart).Seconds(),
			metric.WithAttributes(attribute.String("kind", req.Kind.String())))
		w.Governor.Observe(rl)
		metrics.RateLimitRemaining.Set(float64(rl.Remaining))

		if callErr == nil {
			metrics.RequestsTotal.WithLabelValues(req.Kind.String(), "ok").Inc()

			return true, nil
		}

		switch {
		case errors.Is(callErr, serrors.ErrRateLimited):
			metrics.RequestsTotal.WithLabelValues(req.Kind.String(), "rate_limited").Inc()

			if err := w.Queue.Push(ctx, req); err != nil {
				return false, fmt.Errorf("could not re-enqueue rate-limited request: %w", err)
			}

			return false, nil

		case errors.Is(callErr, serrors.ErrAuthDenied):
			metrics.RequestsTotal.WithLabelValues(req.Kind.String(), "auth_denied").Inc()

			return false, fmt.Errorf("host denied credentials: %w", callErr)

		case errors.Is(callErr, serrors.ErrNotFound):
			metrics.RequestsTotal.WithLabelValues(req.Kind.String(), "not_found").Inc()

			// treat as an empty terminal page: no expansion, no error.
			return false, nil

		case errors.Is(callErr, serrors.ErrTransport), errors.Is(callErr, serrors.ErrUpstream):
			metrics.RequestsTotal.WithLabelValues(req.Kind.String(), "retryable_error").Inc()
			if try >= maxCallAttempts-1 {
				logger.Warn(ctx, "dropping request after exhausting retries", zap.Error(callErr))

				return false, nil
			}

			if err := sleepWithJitter(ctx, backoff); err != nil {
				return false, fmt.Errorf("interrupted while backing off: %w", err)
			}
			backoff *= backoffFactor

			continue

		default:
			return false, fmt.Errorf("unclassified host client error: %w", callErr)
		}
	}
}

// sleepWithJitter sleeps for d ± backoffJitterPct, returning early with an
// error if ctx is cancelled first.
func sleepWithJitter(ctx context.Context, d time.Duration) error {
	jitter := time.Duration((rand.Float64()*2 - 1) * backoffJitterPct * float64(d)) //nolint: gosec

	select {
	case <-time.After(d + jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint: wrapcheck
	}
}
