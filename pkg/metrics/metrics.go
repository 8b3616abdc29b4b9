// Package metrics declares the Prometheus instruments shared across the
// crawler, and a reusable bucket set for histogram construction.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

//nolint: gochecknoglobals
var (
	// RequestsTotal counts host API calls by request kind and outcome
	// (ok, rate_limited, not_found, auth_denied, and retryable_error for
	// transport and upstream failures).
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repocrawler",
		Name:      "requests_total",
		Help:      "Total host API calls made by the crawl engine, by request kind and outcome.",
	}, []string{"kind", "outcome"})

	// RepositoriesCollected counts repositories newly persisted by Upsert.
	RepositoriesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "repocrawler",
		Name:      "repositories_collected_total",
		Help:      "Total distinct repositories persisted to the sink.",
	})

	// RepositoryCollisions counts repositories observed more than once.
	RepositoryCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "repocrawler",
		Name:      "repository_collisions_total",
		Help:      "Total repository observations that were already seen.",
	})

	// RateLimitRemaining reports the most recently observed remaining call
	// budget from the host API.
	RateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "repocrawler",
		Name:      "rate_limit_remaining",
		Help:      "Remaining host API call budget as of the last observed response.",
	})

	// QueueBuffered reports the instantaneous number of requests sitting in
	// the frontier.
	QueueBuffered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "repocrawler",
		Name:      "queue_buffered",
		Help:      "Number of requests currently buffered in the frontier.",
	})

	// otelMeter is bound to the global MeterProvider. Instruments created from
	// it resolve against whatever provider internal/api.NewServer registers
	// via otel.SetMeterProvider, even though that registration happens after
	// package initialization: the global otel proxy defers delegation until
	// the provider is actually set.
	otelMeter = otel.Meter("repocrawler")

	// HostAPICallDuration records how long each host API call took, tagged by
	// request kind, and is exported through the otel-to-Prometheus bridge
	// wired in internal/api.NewServer.
	HostAPICallDuration, _ = otelMeter.Float64Histogram(
		"repocrawler.host_api.call.duration",
		metric.WithDescription("Duration of host API calls made by the crawl engine, in seconds."),
		metric.WithUnit("s"),
	)
)
