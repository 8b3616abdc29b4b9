package crawler_test

import (
	"context"
	"repocrawler/internal/crawler"
	"repocrawler/pkg/hostapi"
	mockhostapi "repocrawler/pkg/hostapi/mock"
	mockstorage "repocrawler/pkg/storage/mock"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSupervisor_Run_ZeroTargetExitsImmediately(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mockhostapi.NewMockClient(ctrl)
	sink := mockstorage.NewMockSink(ctrl)

	sup := crawler.NewSupervisor(crawler.Options{TotalRepositories: 0, NumberWorkers: 1}, client, sink)

	require.NoError(t, sup.Run(context.Background()))
}

func TestSupervisor_Run_TargetAlreadyReachedByPreviousRun(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mockhostapi.NewMockClient(ctrl)
	sink := mockstorage.NewMockSink(ctrl)
	sink.EXPECT().CountUnique(gomock.Any()).Return(10, nil)

	sup := crawler.NewSupervisor(
		crawler.Options{TotalRepositories: 10, NumberWorkers: 1, SeedQueries: []string{"is:public"}}, client, sink)

	require.NoError(t, sup.Run(context.Background()))
}

func TestSupervisor_Run_ReachesTargetAndStops(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mockhostapi.NewMockClient(ctrl)
	sink := mockstorage.NewMockSink(ctrl)

	rl := hostapi.RateLimitSnapshot{Limit: 100, Remaining: 99, ResetAt: time.Now().Add(time.Hour)}

	sink.EXPECT().CountUnique(gomock.Any()).Return(0, nil)
	client.EXPECT().
		SearchOrganizations(gomock.Any(), gomock.Any()).
		Return(hostapi.SearchOrganizationsResponse{Owners: []string{"acme"}, RateLimit: rl}, nil).
		AnyTimes()
	client.EXPECT().
		ListRepositoriesOfOrganization(gomock.Any(), gomock.Any()).
		Return(hostapi.ListRepositoriesResponse{
			Repositories: []hostapi.RepositoryItem{{Name: "widgets", Stars: 1}},
			RateLimit:    rl,
		}, nil).
		AnyTimes()
	sink.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	opts := crawler.Options{
		TotalRepositories: 1,
		SeedQueries:       []string{"is:public"},
		NumberWorkers:     1,
		QueueCapacity:     8,
		ProgressInterval:  10 * time.Millisecond,
	}
	sup := crawler.NewSupervisor(opts, client, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sup.Run(ctx))
	require.True(t, sup.Progress().ReachedTarget)
}

func TestSupervisor_Run_StallDetectionExitsWhenFrontierExhausted(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mockhostapi.NewMockClient(ctrl)
	sink := mockstorage.NewMockSink(ctrl)

	rl := hostapi.RateLimitSnapshot{Limit: 100, Remaining: 99, ResetAt: time.Now().Add(time.Hour)}

	sink.EXPECT().CountUnique(gomock.Any()).Return(0, nil)
	client.EXPECT().
		SearchOrganizations(gomock.Any(), gomock.Any()).
		Return(hostapi.SearchOrganizationsResponse{Owners: nil, RateLimit: rl}, nil)

	opts := crawler.Options{
		TotalRepositories: 1000,
		SeedQueries:       []string{"is:public"},
		NumberWorkers:     1,
		QueueCapacity:     8,
		ProgressInterval:  10 * time.Millisecond,
	}
	sup := crawler.NewSupervisor(opts, client, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sup.Run(ctx))
	require.False(t, sup.Progress().ReachedTarget)
}
