package postgres

import (
	"context"
	"fmt"
	"repocrawler/pkg/domain"
	"time"

	"github.com/doug-martin/goqu/v9"
)

const repositoryTable = "github.repository"

// pgRepository is the row shape of github.repository, used both for inserts
// (via goqu struct tags) and for scanning query results back out.
type pgRepository struct {
	ID               int64     `db:"id"                goqu:"skipinsert"`
	RepositoryName   string    `db:"repository_name"`
	OrganizationName string    `db:"organization_name"`
	TotalStars       int       `db:"total_stars"`
	CreatedAt        time.Time `db:"created_at"        goqu:"skipinsert"`
}

func fromDomain(record domain.RepositoryRecord) pgRepository {
	return pgRepository{
		RepositoryName:   record.Identity.Repository,
		OrganizationName: record.Identity.Organization,
		TotalStars:       record.TotalStars,
	}
}

// Upsert persists a repository record, reporting whether a new row was
// created. A conflict on (repository_name, organization_name) is a no-op:
// the previously stored star count wins over a later observation.
func (p *PgSQL) Upsert(ctx context.Context, record domain.RepositoryRecord) (bool, error) {
	var inserted []pgRepository
	if err := p.Builder.Insert(repositoryTable).
		Rows(fromDomain(record)).
		OnConflict(goqu.DoNothing()).
		Returning("id").
		Executor().ScanStructsContext(ctx, &inserted); err != nil {
		return false, fmt.Errorf("could not upsert repository into pg: %w", err)
	}

	return len(inserted) > 0, nil
}

// CountUnique returns the number of distinct repositories currently stored.
func (p *PgSQL) CountUnique(ctx context.Context) (int, error) {
	count, err := p.Builder.From(repositoryTable).CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count repositories in pg: %w", err)
	}

	return int(count), nil
}
