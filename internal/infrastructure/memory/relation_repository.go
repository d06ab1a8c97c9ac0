package memory

import (
	"context"
	"sync"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

// IDRepository is an in-memory set of known identifiers. It serves as the
// category, genre and cast member existence lookup.
type IDRepository[T ~string] struct {
	mu  sync.RWMutex
	ids map[T]struct{}
}

// NewIDRepository creates a repository seeded with ids.
func NewIDRepository[T ~string](ids ...T) *IDRepository[T] {
	r := &IDRepository[T]{ids: make(map[T]struct{}, len(ids))}
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
	return r
}

// Add registers id as existing.
func (r *IDRepository[T]) Add(id T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}

// ExistsByIDs returns the known subset of ids, in input order.
func (r *IDRepository[T]) ExistsByIDs(_ context.Context, ids []T) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.ids[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

var (
	_ repository.CategoryRepository   = (*IDRepository[model.CategoryID])(nil)
	_ repository.GenreRepository      = (*IDRepository[model.GenreID])(nil)
	_ repository.CastMemberRepository = (*IDRepository[model.CastMemberID])(nil)
)
