package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
)

// VideoCache stores whole Video aggregates, media and version included.
// Cached copies never carry pending domain events.
type VideoCache interface {
	// Get returns nil, nil on a miss. An undecodable entry is reported as an
	// error so the caller falls back to the repository.
	Get(ctx context.Context, videoID model.VideoID) (*model.Video, error)

	Set(ctx context.Context, video *model.Video, ttl time.Duration) error

	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, videoID model.VideoID) error
}
