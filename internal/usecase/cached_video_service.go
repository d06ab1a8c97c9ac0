package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/cache"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// CacheTTL is the TTL for cached video aggregates.
	CacheTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// cachedVideoService wraps VideoService with caching capabilities.
// It implements the decorator pattern to add caching without modifying the original service.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
func NewCachedVideoService(
	delegate VideoService,
	videoCache cache.VideoCache,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate: delegate,
		cache:    videoCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// CreateVideo delegates to the underlying service.
// No caching for create operations.
func (s *cachedVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*CreateVideoOutput, error) {
	return s.delegate.CreateVideo(ctx, input)
}

// UpdateVideo delegates and then invalidates the cached aggregate.
func (s *cachedVideoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*UpdateVideoOutput, error) {
	defer s.invalidate(ctx, model.VideoIDFrom(input.ID), "update video")
	return s.delegate.UpdateVideo(ctx, input)
}

// DeleteVideo delegates and then invalidates the cached aggregate.
func (s *cachedVideoService) DeleteVideo(ctx context.Context, videoID model.VideoID) error {
	defer s.invalidate(ctx, videoID, "delete video")
	return s.delegate.DeleteVideo(ctx, videoID)
}

// ListVideos delegates to the underlying service without caching.
func (s *cachedVideoService) ListVideos(ctx context.Context, query model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error) {
	return s.delegate.ListVideos(ctx, query)
}

// UploadMedia delegates and then invalidates the cached aggregate.
func (s *cachedVideoService) UploadMedia(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error) {
	defer s.invalidate(ctx, model.VideoIDFrom(input.VideoID), "upload media")
	return s.delegate.UploadMedia(ctx, input)
}

// UpdateMediaStatus delegates and then invalidates the cached aggregate.
func (s *cachedVideoService) UpdateMediaStatus(ctx context.Context, input UpdateMediaStatusInput) error {
	defer s.invalidate(ctx, model.VideoIDFrom(input.VideoID), "update media status")
	return s.delegate.UpdateMediaStatus(ctx, input)
}

// GetMedia delegates to the underlying service.
func (s *cachedVideoService) GetMedia(ctx context.Context, videoID model.VideoID, mediaType model.MediaType) (*model.Resource, error) {
	return s.delegate.GetMedia(ctx, videoID, mediaType)
}

// GetMediaURL delegates to the underlying service. URLs expire and are not cached.
func (s *cachedVideoService) GetMediaURL(ctx context.Context, videoID model.VideoID, mediaType model.MediaType) (*MediaURLOutput, error) {
	return s.delegate.GetMediaURL(ctx, videoID, mediaType)
}

// GetVideo retrieves a video with caching.
// Uses singleflight to prevent cache stampede on concurrent requests for the same video.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID model.VideoID) (*model.Video, error) {
	// Use singleflight to coalesce concurrent requests
	result, err, shared := s.sfGroup.Do(videoID.String(), func() (any, error) {
		return s.getVideoWithCache(ctx, videoID)
	})

	// Record singleflight metrics
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	// Every caller gets its own copy; the singleflight result is shared.
	return result.(*model.Video).Clone(), nil
}

// getVideoWithCache implements the cache-aside pattern.
func (s *cachedVideoService) getVideoWithCache(ctx context.Context, videoID model.VideoID) (*model.Video, error) {
	// Try cache first
	video, err := s.cache.Get(ctx, videoID)
	if err != nil {
		// Log cache error but continue to database
		slog.WarnContext(ctx, "cache get failed, falling back to database",
			"video_id", videoID,
			"error", err,
		)
	}

	if video != nil {
		return video, nil // Cache hit
	}

	// Cache miss - fetch from database
	video, err = s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, video, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "failed to cache video",
			"video_id", videoID,
			"error", err,
		)
	}

	return video, nil
}

// invalidate removes a video from the cache. Failures are logged only.
func (s *cachedVideoService) invalidate(ctx context.Context, videoID model.VideoID, op string) {
	if err := s.cache.Delete(ctx, videoID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate cache",
			"video_id", videoID,
			"operation", op,
			"error", err,
		)
	}
}
