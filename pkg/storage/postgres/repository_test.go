package postgres_test

import (
	"context"
	"repocrawler/pkg/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPgSQL_Upsert(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()

	t.Run("first insert reports inserted", func(t *testing.T) {
		t.Parallel()

		record := domain.RepositoryRecord{
			Identity:   domain.RepositoryIdentity{Organization: "golang", Repository: "go"},
			TotalStars: 123,
		}

		inserted, err := pgSQL.Upsert(ctx, record)
		require.NoError(t, err)
		require.True(t, inserted)
	})

	t.Run("duplicate insert is a no-op", func(t *testing.T) {
		t.Parallel()

		record := domain.RepositoryRecord{
			Identity:   domain.RepositoryIdentity{Organization: "golang", Repository: "tools"},
			TotalStars: 123,
		}

		inserted, err := pgSQL.Upsert(ctx, record)
		require.NoError(t, err)
		require.True(t, inserted)

		dup := record
		dup.TotalStars = 999

		inserted, err = pgSQL.Upsert(ctx, dup)
		require.NoError(t, err)
		require.False(t, inserted)
	})
}

func TestPgSQL_CountUnique(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()

	before, err := pgSQL.CountUnique(ctx)
	require.NoError(t, err)

	records := []domain.RepositoryRecord{
		{Identity: domain.RepositoryIdentity{Organization: "kubernetes", Repository: "kubernetes"}, TotalStars: 1},
		{Identity: domain.RepositoryIdentity{Organization: "kubernetes", Repository: "minikube"}, TotalStars: 2},
	}
	for _, r := range records {
		_, err := pgSQL.Upsert(ctx, r)
		require.NoError(t, err)
	}

	after, err := pgSQL.CountUnique(ctx)
	require.NoError(t, err)
	require.Equal(t, before+len(records), after)
}
