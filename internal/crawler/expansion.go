package crawler

import (
	"context"
	"fmt"
	"repocrawler/pkg/domain"
	"repocrawler/pkg/hostapi"
	"repocrawler/pkg/logger"
	"repocrawler/pkg/storage"

	"go.uber.org/zap"
)

// ExpandSearchOrganizations handles the response to a SearchOrganization
// request: every owner found is turned into a follow-up
// ListRepositoriesOfOrganization request, and a non-empty next cursor is
// turned into a successor SearchOrganization request. Owners are not
// deduplicated here — the same owner may be enqueued more than once across
// distinct seed queries; per-repository deduplication in
// ExpandListRepositoriesOfOrganization is what bounds the resulting work.
func ExpandSearchOrganizations(
	ctx context.Context,
	req Request,
	resp hostapi.SearchOrganizationsResponse,
	queue Queue,
) error {
	for _, owner := range resp.Owners {
		follow := Request{
			Kind:     RequestListRepositoriesOfOrganization,
			Owner:    owner,
			PageSize: req.PageSize,
		}
		if err := queue.Push(ctx, follow); err != nil {
			return fmt.Errorf("could not enqueue repository listing for %q: %w", owner, err)
		}
	}

	if resp.NextCursor != "" {
		next := req
		next.Cursor = resp.NextCursor
		if err := queue.Push(ctx, next); err != nil {
			return fmt.Errorf("could not enqueue next search page: %w", err)
		}
	}

	return nil
}

// ExpandListRepositoriesOfOrganization handles the response to a
// ListRepositoriesOfOrganization request: every repository item is checked
// against the Seen-Set, and Fresh identities are written to the Sink before
// any follow-up request is enqueued, so a crash mid-expansion never leaves
// an unaccounted record stuck behind a queued continuation. A non-empty
// next cursor is turned into a continuation request.
func ExpandListRepositoriesOfOrganization(
	ctx context.Context,
	req Request,
	resp hostapi.ListRepositoriesResponse,
	seen *SeenSet,
	sink storage.Sink,
	queue Queue,
	progress *Progress,
) error {
	for _, item := range resp.Repositories {
		identity := domain.RepositoryIdentity{Organization: req.Owner, Repository: item.Name}
		if !identity.Valid() {
			continue
		}

		if seen.Observe(identity) == SeenDuplicate {
			progress.recordCollision()

			continue
		}

		inserted, err := sink.Upsert(ctx, domain.RepositoryRecord{Identity: identity, TotalStars: item.Stars})
		if err != nil {
			return fmt.Errorf("could not store repository %s: %w", identity, err)
		}

		if inserted {
			progress.recordInserted()
		} else {
			// Lost the race against another worker between Observe and Upsert;
			// the Sink's unique constraint is the authoritative guard.
			progress.recordCollision()
			logger.Debug(ctx, "repository already stored by a concurrent worker", zap.Stringer("identity", identity))
		}
	}

	if resp.NextCursor != "" {
		next := req
		next.Cursor = resp.NextCursor
		if err := queue.Push(ctx, next); err != nil {
			return fmt.Errorf("could not enqueue next repository listing page: %w", err)
		}
	}

	return nil
}
