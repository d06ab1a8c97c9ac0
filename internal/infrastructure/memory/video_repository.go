// Package memory provides in-process implementations of the repository
// interfaces for local development and tests.
package memory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
)

// VideoRepository is an in-memory implementation of repository.VideoRepository.
// Stored videos are private copies; callers never share state with the store.
type VideoRepository struct {
	mu        sync.RWMutex
	videos    map[model.VideoID]*model.Video
	publisher repository.EventPublisher
}

// NewVideoRepository creates an empty in-memory video repository.
func NewVideoRepository(publisher repository.EventPublisher) *VideoRepository {
	return &VideoRepository{
		videos:    make(map[model.VideoID]*model.Video),
		publisher: publisher,
	}
}

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) (*model.Video, error) {
	r.mu.Lock()
	if _, exists := r.videos[video.ID]; exists {
		r.mu.Unlock()
		return nil, repository.ErrDuplicateVideo
	}
	r.videos[video.ID] = stored(video)
	r.mu.Unlock()

	r.publishEvents(ctx, video)
	return video, nil
}

func (r *VideoRepository) Update(ctx context.Context, video *model.Video) (*model.Video, error) {
	r.mu.Lock()
	current, exists := r.videos[video.ID]
	if !exists {
		r.mu.Unlock()
		return nil, repository.ErrVideoNotFound
	}
	if current.Version != video.Version {
		r.mu.Unlock()
		return nil, repository.ErrConcurrentUpdate
	}
	video.Version++
	r.videos[video.ID] = stored(video)
	r.mu.Unlock()

	r.publishEvents(ctx, video)
	return video, nil
}

func (r *VideoRepository) DeleteByID(_ context.Context, id model.VideoID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.videos, id)
	return nil
}

func (r *VideoRepository) FindByID(_ context.Context, id model.VideoID) (*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, exists := r.videos[id]
	if !exists {
		return nil, repository.ErrVideoNotFound
	}
	return video.Clone(), nil
}

// FindAll filters, sorts and pages the stored videos the same way the
// PostgreSQL repository does.
func (r *VideoRepository) FindAll(_ context.Context, q model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error) {
	r.mu.RLock()
	matches := make([]*model.Video, 0, len(r.videos))
	for _, v := range r.videos {
		if matchesQuery(v, q) {
			matches = append(matches, v)
		}
	}
	r.mu.RUnlock()

	compare := comparatorFor(q.SortColumn())
	slices.SortFunc(matches, func(a, b *model.Video) int {
		c := compare(a, b)
		if q.SortDirection() == model.SortDesc {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		return c
	})

	items := make([]model.VideoPreview, 0)
	offset := q.Offset()
	if q.PerPage > 0 && offset < len(matches) {
		end := min(offset+q.PerPage, len(matches))
		for _, v := range matches[offset:end] {
			items = append(items, v.Preview())
		}
	}

	return &model.Pagination[model.VideoPreview]{
		CurrentPage: q.Page,
		PerPage:     q.PerPage,
		Total:       int64(len(matches)),
		Items:       items,
	}, nil
}

func matchesQuery(v *model.Video, q model.VideoSearchQuery) bool {
	if terms := q.NormalizedTerms(); terms != "" {
		title := ""
		if v.Title != nil {
			title = *v.Title
		}
		if !strings.Contains(strings.ToLower(title), strings.ToLower(terms)) {
			return false
		}
	}
	if !q.Categories.IsEmpty() && !v.Categories.Intersects(q.Categories) {
		return false
	}
	if !q.Genres.IsEmpty() && !v.Genres.Intersects(q.Genres) {
		return false
	}
	if !q.CastMembers.IsEmpty() && !v.CastMembers.Intersects(q.CastMembers) {
		return false
	}
	return true
}

func comparatorFor(column string) func(a, b *model.Video) int {
	switch column {
	case model.SortByTitle:
		return func(a, b *model.Video) int { return compareTitles(a.Preview().Title, b.Preview().Title) }
	case model.SortByUpdatedAt:
		return func(a, b *model.Video) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case model.SortByLaunchedAt:
		return func(a, b *model.Video) int { return cmp.Compare(a.LaunchedAt, b.LaunchedAt) }
	case model.SortByDuration:
		return func(a, b *model.Video) int { return cmp.Compare(a.Duration, b.Duration) }
	default:
		return func(a, b *model.Video) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// compareTitles orders case-insensitively, falling back to byte order on ties.
func compareTitles(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// stored returns the copy kept by the repository, without pending events.
func stored(v *model.Video) *model.Video {
	out := v.Clone()
	out.PullDomainEvents()
	return out
}

func (r *VideoRepository) publishEvents(ctx context.Context, video *model.Video) {
	for _, event := range video.PullDomainEvents() {
		if err := r.publisher.Send(ctx, event); err != nil {
			metrics.EventsPublishedTotal.WithLabelValues(event.EventType(), metrics.StatusError).Inc()
			slog.Error("failed to publish domain event",
				"video_id", video.ID,
				"event_type", event.EventType(),
				"error", err,
			)
			continue
		}
		metrics.EventsPublishedTotal.WithLabelValues(event.EventType(), metrics.StatusSuccess).Inc()
	}
}

var _ repository.VideoRepository = (*VideoRepository)(nil)
