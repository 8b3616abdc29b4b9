package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"repocrawler/pkg/logger"
	"repocrawler/pkg/serrors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap/exp/zapslog"
)

// crawlJobArgs is the river.JobArgs encoding of a Request, used by the
// durable queue implementation below.
type crawlJobArgs struct {
	Kind     RequestKind `json:"kind"`
	Query    string      `json:"query,omitempty"`
	Owner    string      `json:"owner,omitempty"`
	PageSize int         `json:"pageSize,omitempty"`
	Cursor   string      `json:"cursor,omitempty"`
}

// Kind identifies this job type in river's jobs table.
func (crawlJobArgs) Kind() string { return "crawl_request" }

func toJobArgs(req Request) crawlJobArgs {
	return crawlJobArgs{
		Kind:     req.Kind,
		Query:    req.Query,
		Owner:    req.Owner,
		PageSize: req.PageSize,
		Cursor:   req.Cursor,
	}
}

func (a crawlJobArgs) toRequest() Request {
	return Request{Kind: a.Kind, Query: a.Query, Owner: a.Owner, PageSize: a.PageSize, Cursor: a.Cursor}
}

// delivery carries a Request decoded from a river job from crawlWorker.Work
// to RiverQueue.Pop.
type delivery struct {
	req Request
}

// crawlWorker is a river.Worker that simply forwards decoded jobs onto an
// internal channel for RiverQueue.Pop to consume, then acknowledges the job
// as complete. Durability in this design covers requests from the moment
// they're inserted until they're handed off to Pop: once delivered, a crash
// can still lose an in-flight request, exactly like the default chanqueue.
// What the durable queue buys over chanqueue is that anything still sitting
// in river's jobs table survives a process restart.
type crawlWorker struct {
	river.WorkerDefaults[crawlJobArgs]

	inbox chan delivery
}

// Work decodes the job's arguments, hands them to Pop, and immediately
// reports success so river dequeues the next job.
func (w *crawlWorker) Work(ctx context.Context, job *river.Job[crawlJobArgs]) error {
	select {
	case w.inbox <- delivery{req: job.Args.toRequest()}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled delivering job %d: %w", job.ID, ctx.Err())
	}
}

// RiverQueue is a Queue implementation backed by riverqueue/river, giving the
// frontier a postgres-persisted job table instead of an in-process channel.
// Selected via Config.Crawler.DurableQueue.
type RiverQueue struct {
	client *river.Client[pgx.Tx]
	worker *crawlWorker

	closeOnce sync.Once
	stopped   chan struct{}
}

// NewRiverQueue starts a river client and worker pool bound to dbPool, and
// returns a Queue that forwards pushed requests through river's durable job
// table. concurrency bounds how many jobs river delivers in parallel, which
// should match the crawler's worker count.
func NewRiverQueue(ctx context.Context, dbPool *pgxpool.Pool, concurrency int) (*RiverQueue, error) {
	worker := &crawlWorker{inbox: make(chan delivery)}

	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	client, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: concurrency},
		},
		Workers: workers,
		Logger:  slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return &RiverQueue{client: client, worker: worker, stopped: make(chan struct{})}, nil
}

// Push inserts req as a new river job.
func (q *RiverQueue) Push(ctx context.Context, req Request) error {
	select {
	case <-q.stopped:
		return serrors.KindOnly(serrors.ErrQueueClosed)
	default:
	}

	if _, err := q.client.Insert(ctx, toJobArgs(req), nil); err != nil {
		return fmt.Errorf("could not insert crawl request job: %w", err)
	}

	return nil
}

// Pop waits for the next job river delivers to this process.
func (q *RiverQueue) Pop(ctx context.Context) (Request, error) {
	select {
	case d := <-q.worker.inbox:
		return d.req, nil
	case <-q.stopped:
		return Request{}, serrors.KindOnly(serrors.ErrQueueClosed)
	case <-ctx.Done():
		return Request{}, ctx.Err() //nolint: wrapcheck
	}
}

// Close stops the river client, after which Pop and Push both return
// serrors.ErrQueueClosed. Close is idempotent.
func (q *RiverQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.stopped)
		_ = q.client.Stop(context.Background())
	})
}

// Buffered is not tracked by this implementation: queue depth for a durable
// queue is best observed through river's own jobs table rather than an
// in-process counter.
func (q *RiverQueue) Buffered() int {
	return 0
}

// Ensure RiverQueue conforms to the Queue interface at compile time.
var _ Queue = (*RiverQueue)(nil)
