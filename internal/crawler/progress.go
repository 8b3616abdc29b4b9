package crawler

import (
	"repocrawler/pkg/metrics"
	"sync/atomic"
)

// Progress holds the monotonic (mostly) counters tracked across a crawl run.
// Done, Collisions and RequestsDone only ever increase; InFlight may also
// decrease as requests complete. The buffered-request count is not tracked
// here: Snapshot leaves RequestsBuffered at zero and Supervisor.Progress
// fills it from the queue. All fields are safe for concurrent use from
// multiple workers.
type Progress struct {
	done             atomic.Int64
	target           int64
	collisions       atomic.Int64
	requestsDone     atomic.Int64
	requestsInFlight atomic.Int64
}

// NewProgress constructs a Progress tracker for the given target unique
// repository count.
func NewProgress(target int) *Progress {
	p := &Progress{}
	p.target = int64(target)

	return p
}

// ProgressSnapshot is an immutable point-in-time view of Progress, suitable
// for logging or serving over /healthz.
type ProgressSnapshot struct {
	Done             int  `json:"done"`
	Target           int  `json:"target"`
	Collisions       int  `json:"collisions"`
	RequestsDone     int  `json:"requestsDone"`
	RequestsInFlight int  `json:"requestsInFlight"`
	RequestsBuffered int  `json:"requestsBuffered"`
	ReachedTarget    bool `json:"reachedTarget"`
}

// Snapshot returns a consistent-enough point-in-time view of all counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	done := p.done.Load()

	return ProgressSnapshot{
		Done:             int(done),
		Target:           int(p.target),
		Collisions:       int(p.collisions.Load()),
		RequestsDone:     int(p.requestsDone.Load()),
		RequestsInFlight: int(p.requestsInFlight.Load()),
		ReachedTarget:    p.target > 0 && done >= p.target,
	}
}

func (p *Progress) recordInserted() {
	p.done.Add(1)
	metrics.RepositoriesCollected.Inc()
}

func (p *Progress) recordCollision() {
	p.collisions.Add(1)
	metrics.RepositoryCollisions.Inc()
}
func (p *Progress) requestStarted()  { p.requestsInFlight.Add(1) }

func (p *Progress) requestFinished() {
	p.requestsInFlight.Add(-1)
	p.requestsDone.Add(1)
}
