package crawler_test

import (
	"context"
	"repocrawler/internal/crawler"
	"repocrawler/pkg/domain"
	"repocrawler/pkg/hostapi"
	mockstorage "repocrawler/pkg/storage/mock"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestExpandSearchOrganizations_EnqueuesFollowUpsAndNextPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)

	req := crawler.Request{Kind: crawler.RequestSearchOrganization, Query: "is:public", PageSize: 10}
	resp := hostapi.SearchOrganizationsResponse{
		Owners:     []string{"acme", "globex"},
		NextCursor: "cursor-2",
	}

	require.NoError(t, crawler.ExpandSearchOrganizations(ctx, req, resp, queue))
	require.Equal(t, 3, queue.Buffered())

	first, err := queue.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, crawler.RequestListRepositoriesOfOrganization, first.Kind)
	require.Equal(t, "acme", first.Owner)

	second, err := queue.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, "globex", second.Owner)

	third, err := queue.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, crawler.RequestSearchOrganization, third.Kind)
	require.Equal(t, "cursor-2", third.Cursor)
}

func TestExpandSearchOrganizations_NoNextCursorStopsPagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)

	req := crawler.Request{Kind: crawler.RequestSearchOrganization, Query: "is:public"}
	resp := hostapi.SearchOrganizationsResponse{Owners: []string{"acme"}}

	require.NoError(t, crawler.ExpandSearchOrganizations(ctx, req, resp, queue))
	require.Equal(t, 1, queue.Buffered())
}

func TestExpandListRepositories_FreshItemIsStoredAndCounted(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)
	seen := crawler.NewSeenSet()
	sink := mockstorage.NewMockSink(ctrl)
	progress := crawler.NewProgress(100)

	req := crawler.Request{Kind: crawler.RequestListRepositoriesOfOrganization, Owner: "acme"}
	resp := hostapi.ListRepositoriesResponse{
		Repositories: []hostapi.RepositoryItem{{Name: "widgets", Stars: 42}},
	}

	sink.EXPECT().
		Upsert(gomock.Any(), domain.RepositoryRecord{
			Identity:   domain.RepositoryIdentity{Organization: "acme", Repository: "widgets"},
			TotalStars: 42,
		}).
		Return(true, nil)

	require.NoError(t, crawler.ExpandListRepositoriesOfOrganization(ctx, req, resp, seen, sink, queue, progress))
	require.Equal(t, 1, progress.Snapshot().Done)
	require.Equal(t, 0, progress.Snapshot().Collisions)
}

func TestExpandListRepositories_DuplicateIdentitySkipsSink(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)
	seen := crawler.NewSeenSet()
	sink := mockstorage.NewMockSink(ctrl)
	progress := crawler.NewProgress(100)

	identity := domain.RepositoryIdentity{Organization: "acme", Repository: "widgets"}
	require.Equal(t, crawler.SeenFresh, seen.Observe(identity))

	req := crawler.Request{Kind: crawler.RequestListRepositoriesOfOrganization, Owner: "acme"}
	resp := hostapi.ListRepositoriesResponse{
		Repositories: []hostapi.RepositoryItem{{Name: "widgets", Stars: 1}},
	}

	// no Upsert expectation: the call must never reach the sink.
	require.NoError(t, crawler.ExpandListRepositoriesOfOrganization(ctx, req, resp, seen, sink, queue, progress))
	require.Equal(t, 0, progress.Snapshot().Done)
	require.Equal(t, 1, progress.Snapshot().Collisions)
}

func TestExpandListRepositories_InvalidIdentitySkipped(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)
	seen := crawler.NewSeenSet()
	sink := mockstorage.NewMockSink(ctrl)
	progress := crawler.NewProgress(100)

	req := crawler.Request{Kind: crawler.RequestListRepositoriesOfOrganization, Owner: ""}
	resp := hostapi.ListRepositoriesResponse{
		Repositories: []hostapi.RepositoryItem{{Name: "widgets", Stars: 1}},
	}

	require.NoError(t, crawler.ExpandListRepositoriesOfOrganization(ctx, req, resp, seen, sink, queue, progress))
	require.Equal(t, 0, progress.Snapshot().Done)
	require.Equal(t, 0, progress.Snapshot().Collisions)
}

func TestExpandListRepositories_SinkCollisionStillCountsAsCollision(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)
	seen := crawler.NewSeenSet()
	sink := mockstorage.NewMockSink(ctrl)
	progress := crawler.NewProgress(100)

	req := crawler.Request{Kind: crawler.RequestListRepositoriesOfOrganization, Owner: "acme"}
	resp := hostapi.ListRepositoriesResponse{
		Repositories: []hostapi.RepositoryItem{{Name: "widgets", Stars: 1}},
	}

	sink.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, nil)

	require.NoError(t, crawler.ExpandListRepositoriesOfOrganization(ctx, req, resp, seen, sink, queue, progress))
	require.Equal(t, 0, progress.Snapshot().Done)
	require.Equal(t, 1, progress.Snapshot().Collisions)
}

func TestExpandListRepositories_NextCursorEnqueuesContinuation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queue := crawler.NewChanQueue(8)
	seen := crawler.NewSeenSet()
	sink := mockstorage.NewMockSink(ctrl)
	progress := crawler.NewProgress(100)

	req := crawler.Request{Kind: crawler.RequestListRepositoriesOfOrganization, Owner: "acme", Cursor: "p1"}
	resp := hostapi.ListRepositoriesResponse{NextCursor: "p2"}

	require.NoError(t, crawler.ExpandListRepositoriesOfOrganization(ctx, req, resp, seen, sink, queue, progress))
	require.Equal(t, 1, queue.Buffered())

	next, err := queue.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, "p2", next.Cursor)
	require.Equal(t, "acme", next.Owner)
}
