package crawler

import (
	"context"
	"fmt"
	"repocrawler/pkg/hostapi"
	"repocrawler/pkg/logger"
	"repocrawler/pkg/metrics"
	"repocrawler/pkg/storage"
	"sync"
	"time"

	"go.uber.org/zap"
)

// stallLimit is how many consecutive idle progress ticks (no in-flight
// requests, nothing buffered) the Supervisor tolerates before concluding the
// frontier has been exhausted and closing the queue itself. This implements
// termination condition (ii): the target was never reached but no worker can
// make further progress.
const stallLimit = 3

// Options configures a Supervisor's run.
type Options struct {
	TotalRepositories int
	SeedQueries       []string
	NumberWorkers     int
	PageSize          int
	QueueCapacity     int
	WorkerStagger     time.Duration
	ProgressInterval  time.Duration
	RequestTimeout    time.Duration
}

// Supervisor owns every piece of shared state in the crawl engine — the
// Queue, Seen-Set, Rate Governor, and Progress Counters — and hands Workers
// capability handles to them explicitly. It seeds the frontier, spawns
// workers on a stagger, reports progress, and watches for termination.
type Supervisor struct {
	opts Options

	client hostapi.Client
	sink   storage.Sink

	queue    Queue
	governor *Governor
	seen     *SeenSet
	progress *Progress
}

// NewSupervisor constructs a Supervisor backed by the default in-memory
// chanqueue. Use NewSupervisorWithQueue to substitute a durable queue.
func NewSupervisor(opts Options, client hostapi.Client, sink storage.Sink) *Supervisor {
	return NewSupervisorWithQueue(opts, client, sink, NewChanQueue(opts.QueueCapacity))
}

// NewSupervisorWithQueue constructs a Supervisor with an explicit Queue
// implementation, e.g. the riverqueue-backed durable alternative.
func NewSupervisorWithQueue(opts Options, client hostapi.Client, sink storage.Sink, queue Queue) *Supervisor {
	return &Supervisor{
		opts:     opts,
		client:   client,
		sink:     sink,
		queue:    queue,
		governor: NewGovernor(),
		seen:     NewSeenSet(),
		progress: NewProgress(opts.TotalRepositories),
	}
}

// Progress returns a point-in-time snapshot of the crawl's progress, used by
// the admin server's /healthz endpoint.
func (s *Supervisor) Progress() ProgressSnapshot {
	snap := s.progress.Snapshot()
	snap.RequestsBuffered = s.queue.Buffered()

	return snap
}

// Run seeds the queue, spawns workers on a stagger, reports progress
// periodically, and blocks until the crawl reaches its target, the frontier
// is exhausted, a fatal error occurs, or ctx is cancelled. It returns nil on
// clean termination (including the target==0 boundary case, which writes
// nothing and exits immediately) or the first fatal error observed.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.opts.TotalRepositories <= 0 {
		logger.Info(ctx, "target is zero, nothing to do")
		s.queue.Close()

		return nil
	}

	already, err := s.sink.CountUnique(ctx)
	if err != nil {
		return fmt.Errorf("could not read starting unique count: %w", err)
	}
	if already >= s.opts.TotalRepositories {
		logger.Info(ctx, "target already reached by a previous run", zap.Int("count", already))
		s.queue.Close()

		return nil
	}
	// repositories stored by a previous run count toward the target.
	s.progress.done.Store(int64(already))

	if err := s.seed(ctx); err != nil {
		return fmt.Errorf("could not seed frontier: %w", err)
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	errs := make(chan error, s.opts.NumberWorkers)
	var wg sync.WaitGroup
	for id := 0; id < s.opts.NumberWorkers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			if id > 0 && s.opts.WorkerStagger > 0 {
				select {
				case <-time.After(time.Duration(id) * s.opts.WorkerStagger):
				case <-workerCtx.Done():
					return
				}
			}

			w := &Worker{
				ID:             id,
				Queue:          s.queue,
				Governor:       s.governor,
				Client:         s.client,
				Sink:           s.sink,
				Seen:           s.seen,
				Progress:       s.progress,
				RequestTimeout: s.opts.RequestTimeout,
			}
			if err := w.Run(workerCtx); err != nil {
				errs <- err
			}
		}(id)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	reportInterval := s.opts.ProgressInterval
	if reportInterval <= 0 {
		reportInterval = time.Second
	}
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	var fatalErr error
	stall := 0

loop:
	for {
		select {
		case <-done:
			break loop

		case err := <-errs:
			if fatalErr == nil {
				fatalErr = err
				logger.Error(ctx, "worker reported a fatal error, closing queue", zap.Error(err))
				s.queue.Close()
			}

		case <-ticker.C:
			snap := s.Progress()
			metrics.QueueBuffered.Set(float64(snap.RequestsBuffered))
			logger.Info(ctx, "crawl progress",
				zap.Int("done", snap.Done),
				zap.Int("target", snap.Target),
				zap.Int("collisions", snap.Collisions),
				zap.Int("requestsDone", snap.RequestsDone),
				zap.Int("requestsInFlight", snap.RequestsInFlight),
				zap.Int("requestsBuffered", snap.RequestsBuffered))

			if snap.RequestsInFlight == 0 && snap.RequestsBuffered == 0 {
				stall++
				if stall >= stallLimit {
					logger.Warn(ctx, "frontier exhausted before reaching target, closing queue")
					s.queue.Close()
				}
			} else {
				stall = 0
			}

		case <-ctx.Done():
			s.queue.Close()
		}
	}

	wg.Wait()

	if fatalErr != nil {
		return fmt.Errorf("crawl aborted: %w", fatalErr)
	}

	return nil
}

// seed populates the queue with one SearchOrganization request per seed
// query before any worker starts, so expansion never races the frontier's
// initial population.
func (s *Supervisor) seed(ctx context.Context) error {
	for _, query := range s.opts.SeedQueries {
		req := Request{
			Kind:     RequestSearchOrganization,
			Query:    query,
			PageSize: s.opts.PageSize,
		}
		if err := s.queue.Push(ctx, req); err != nil {
			return fmt.Errorf("could not seed query %q: %w", query, err)
		}
	}

	return nil
}
