package repository

import (
	"context"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
)

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type VideoRepository interface {
	// Create persists a new video aggregate together with its relations and media.
	// Pending domain events are drained and published after a successful write.
	Create(ctx context.Context, video *model.Video) (*model.Video, error)

	// Update persists changes to an existing video aggregate.
	// Returns ErrVideoNotFound if the video does not exist and
	// ErrConcurrentUpdate if video.Version is stale.
	Update(ctx context.Context, video *model.Video) (*model.Video, error)

	// DeleteByID removes a video. Deleting a missing video is not an error.
	DeleteByID(ctx context.Context, id model.VideoID) error

	// FindByID retrieves a video by its identifier.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	FindByID(ctx context.Context, id model.VideoID) (*model.Video, error)

	// FindAll returns one page of video previews matching the query.
	FindAll(ctx context.Context, query model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error)
}

// CategoryRepository is the part of the category store the video use cases depend on.
type CategoryRepository interface {
	// ExistsByIDs returns the subset of ids that exist.
	ExistsByIDs(ctx context.Context, ids []model.CategoryID) ([]model.CategoryID, error)
}

// GenreRepository is the part of the genre store the video use cases depend on.
type GenreRepository interface {
	ExistsByIDs(ctx context.Context, ids []model.GenreID) ([]model.GenreID, error)
}

// CastMemberRepository is the part of the cast member store the video use cases depend on.
type CastMemberRepository interface {
	ExistsByIDs(ctx context.Context, ids []model.CastMemberID) ([]model.CastMemberID, error)
}
