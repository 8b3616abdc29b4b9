// Package storage defines the core storage interfaces that the application relies on.
// It abstracts persistence of crawled repositories so that different backends
// (e.g. PostgreSQL) can provide concrete implementations.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go Sink
package storage

import (
	"context"
	"repocrawler/pkg/domain"
)

// Sink is the durable destination for repositories discovered by the crawl
// engine. Implementations must make Upsert safe to call concurrently from
// multiple workers and idempotent under retry.
type Sink interface {
	// Upsert persists the given repository record. If a record with the same
	// organization and repository name already exists, the call is a no-op:
	// the star count recorded on first observation is never overwritten.
	// Upsert reports whether the call inserted a brand new row, which callers
	// use to drive the unique-repository counter toward the crawl target.
	Upsert(ctx context.Context, record domain.RepositoryRecord) (inserted bool, err error)

	// CountUnique returns the number of distinct repositories currently
	// persisted. It is used at startup to resume a crawl against its target
	// without double counting repositories collected in a previous run.
	CountUnique(ctx context.Context) (int, error)

	// Close releases any resources held by the storage implementation (e.g.
	// the underlying connection pool). After Close, the instance should not
	// be used.
	Close() error
}
