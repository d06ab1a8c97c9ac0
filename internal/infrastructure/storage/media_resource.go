package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

// MediaResourceRepository stores video media files in an ObjectStorage under
// the key layout videoId-<id>/type-<MEDIA_TYPE>.
type MediaResourceRepository struct {
	storage repository.ObjectStorage
}

// NewMediaResourceRepository creates a new MediaResourceRepository.
func NewMediaResourceRepository(storage repository.ObjectStorage) *MediaResourceRepository {
	return &MediaResourceRepository{storage: storage}
}

// MediaKey returns the object key of one media slot.
func MediaKey(id model.VideoID, mediaType model.MediaType) string {
	return videoPrefix(id) + "type-" + mediaType.String()
}

func videoPrefix(id model.VideoID) string {
	return "videoId-" + id.String() + "/"
}

// StoreAudioVideo uploads the raw file and returns PENDING media pointing at it.
func (r *MediaResourceRepository) StoreAudioVideo(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.AudioVideoMedia, error) {
	if !mediaType.IsAudioVideo() {
		return nil, fmt.Errorf("media type %s is not audio/video", mediaType)
	}

	key, err := r.store(ctx, id, mediaType, resource)
	if err != nil {
		return nil, err
	}

	media, err := model.NewAudioVideoMedia(resource.Checksum, resource.Name, key)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s media: %w", mediaType, err)
	}
	return media, nil
}

// StoreImage uploads an image and returns media pointing at it.
func (r *MediaResourceRepository) StoreImage(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.ImageMedia, error) {
	if mediaType.IsAudioVideo() {
		return nil, fmt.Errorf("media type %s is not an image", mediaType)
	}

	key, err := r.store(ctx, id, mediaType, resource)
	if err != nil {
		return nil, err
	}

	media, err := model.NewImageMedia(resource.Checksum, resource.Name, key)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s media: %w", mediaType, err)
	}
	return media, nil
}

func (r *MediaResourceRepository) store(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (string, error) {
	key := MediaKey(id, mediaType)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(resource.Content), resource.ContentType); err != nil {
		return "", fmt.Errorf("failed to store %s resource: %w", mediaType, err)
	}
	return key, nil
}

// GetResource downloads the stored file of one slot.
// The returned Name is the last segment of the object key.
func (r *MediaResourceRepository) GetResource(ctx context.Context, id model.VideoID, mediaType model.MediaType) (*model.Resource, error) {
	key := MediaKey(id, mediaType)

	info, err := r.storage.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to stat %s resource: %w", mediaType, err)
	}

	body, err := r.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to download %s resource: %w", mediaType, err)
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s resource: %w", mediaType, err)
	}

	resource := model.NewResource(content, info.ContentType, path.Base(key))
	return &resource, nil
}

// DownloadURL presigns a GET for the stored file of one slot.
func (r *MediaResourceRepository) DownloadURL(ctx context.Context, id model.VideoID, mediaType model.MediaType, expiry time.Duration) (string, error) {
	key := MediaKey(id, mediaType)

	if _, err := r.storage.Stat(ctx, key); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to stat %s resource: %w", mediaType, err)
	}

	u, err := r.storage.GeneratePresignedDownloadURL(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s resource: %w", mediaType, err)
	}
	return u, nil
}

// ClearResources deletes every object stored for the video.
// It keeps going past individual failures and reports them joined.
func (r *MediaResourceRepository) ClearResources(ctx context.Context, id model.VideoID) error {
	keys, err := r.storage.List(ctx, videoPrefix(id))
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	var errs []error
	for _, key := range keys {
		if err := r.storage.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete media resource",
				"video_id", id,
				"key", key,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to clear resources: %w", err)
	}
	return nil
}

var _ repository.MediaResourceRepository = (*MediaResourceRepository)(nil)
