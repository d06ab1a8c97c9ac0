package postgres

import (
	"context"
	"fmt"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository instance.
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ExistsByIDs returns the subset of ids present in the categories table.
func (r *CategoryRepository) ExistsByIDs(ctx context.Context, ids []model.CategoryID) ([]model.CategoryID, error) {
	return existingIDs(ctx, r.db, metrics.TableCategories, ids)
}

// GenreRepository implements repository.GenreRepository using PostgreSQL.
type GenreRepository struct {
	db DBTX
}

// NewGenreRepository creates a new GenreRepository instance.
func NewGenreRepository(db DBTX) *GenreRepository {
	return &GenreRepository{db: db}
}

// ExistsByIDs returns the subset of ids present in the genres table.
func (r *GenreRepository) ExistsByIDs(ctx context.Context, ids []model.GenreID) ([]model.GenreID, error) {
	return existingIDs(ctx, r.db, metrics.TableGenres, ids)
}

// CastMemberRepository implements repository.CastMemberRepository using PostgreSQL.
type CastMemberRepository struct {
	db DBTX
}

// NewCastMemberRepository creates a new CastMemberRepository instance.
func NewCastMemberRepository(db DBTX) *CastMemberRepository {
	return &CastMemberRepository{db: db}
}

// ExistsByIDs returns the subset of ids present in the cast_members table.
func (r *CastMemberRepository) ExistsByIDs(ctx context.Context, ids []model.CastMemberID) ([]model.CastMemberID, error) {
	return existingIDs(ctx, r.db, metrics.TableCastMembers, ids)
}

// existingIDs queries table for the given ids. The table name comes from a
// package constant, never from input.
func existingIDs[T ~string](ctx context.Context, db DBTX, table string, ids []T) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, string(id))
	}

	rows, err := db.Query(ctx, "SELECT id FROM "+table+" WHERE id = ANY($1)", args)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, table).Inc()

	found := make([]T, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		found = append(found, T(id))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}

	return found, nil
}

var (
	_ repository.CategoryRepository   = (*CategoryRepository)(nil)
	_ repository.GenreRepository      = (*GenreRepository)(nil)
	_ repository.CastMemberRepository = (*CastMemberRepository)(nil)
)
