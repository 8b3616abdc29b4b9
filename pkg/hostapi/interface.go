// Package hostapi defines the typed façade over the remote repository-hosting
// service's search and listing operations. It carries no retry, backoff, or
// deduplication logic of its own — callers in internal/crawler own that.
//
//go:generate mockgen -package mockhostapi -source=interface.go -destination=mock/mockhostapi.go Client
package hostapi

import (
	"context"
	"time"
)

// RateLimitSnapshot is a point-in-time view of the remote API's call budget.
type RateLimitSnapshot struct {
	// Remaining is the number of calls left in the current window.
	Remaining int
	// Limit is the total number of calls allowed per window.
	Limit int
	// ResetAt is when the current window's budget replenishes to Limit.
	ResetAt time.Time
}

// RepositoryItem is a single repository entry returned by
// ListRepositoriesOfOrganization, prior to being turned into a domain record.
type RepositoryItem struct {
	// Name is the repository's own name, unique within its owner.
	Name string
	// Stars is the repository's star count at observation time.
	Stars int
}

// SearchOrganizationsRequest enumerates owners (organizations or users)
// matching a free-text host query.
type SearchOrganizationsRequest struct {
	// Query is the free-text search expression.
	Query string
	// PageSize bounds how many owners are returned per call.
	PageSize int
	// Cursor continues a previous search; empty means the first page.
	Cursor string
}

// SearchOrganizationsResponse is the result of a SearchOrganizations call.
type SearchOrganizationsResponse struct {
	// Owners are the organization/user login names matched by the query.
	Owners []string
	// NextCursor continues this search if non-empty.
	NextCursor string
	// RateLimit reflects the budget observed alongside this response.
	RateLimit RateLimitSnapshot
}

// ListRepositoriesRequest enumerates a given owner's public repositories.
type ListRepositoriesRequest struct {
	// Owner is the organization or user login whose repositories are listed.
	Owner string
	// PageSize bounds how many repositories are returned per call.
	PageSize int
	// Cursor continues a previous listing; empty means the first page.
	Cursor string
}

// ListRepositoriesResponse is the result of a ListRepositoriesOfOrganization call.
type ListRepositoriesResponse struct {
	// Repositories are the items found on this page.
	Repositories []RepositoryItem
	// NextCursor continues this listing if non-empty.
	NextCursor string
	// RateLimit reflects the budget observed alongside this response.
	RateLimit RateLimitSnapshot
}

// Client is the abstraction over the two host operations the crawler needs.
// Implementations MUST classify every failure into one of serrors'
// ErrTransport/ErrUpstream/ErrRateLimited/ErrAuthDenied/ErrNotFound kinds, and
// MUST surface whatever rate-limit snapshot is available even on failure.
// Implementations follow pagination only by echoing the cursor they are
// given; they never loop over pages themselves.
type Client interface {
	// SearchOrganizations enumerates owners matching a free-text query.
	SearchOrganizations(ctx context.Context, req SearchOrganizationsRequest) (SearchOrganizationsResponse, error)
	// ListRepositoriesOfOrganization enumerates a given owner's repositories.
	ListRepositoriesOfOrganization(ctx context.Context, req ListRepositoriesRequest) (ListRepositoriesResponse, error)
}
