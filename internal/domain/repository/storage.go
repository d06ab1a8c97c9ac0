package repository

import (
	"context"
	"io"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type ObjectStorage interface {
	// GeneratePresignedDownloadURL creates a presigned URL for downloading an object.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Upload stores an object in the storage.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download retrieves an object from the storage.
	// Caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns object metadata, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// List returns the keys of every object under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes an object from the storage.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// MediaResourceRepository stores the raw media files of videos.
type MediaResourceRepository interface {
	// StoreAudioVideo stores the raw bytes of a VIDEO or TRAILER and returns
	// a PENDING media pointing at them.
	StoreAudioVideo(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.AudioVideoMedia, error)

	// StoreImage stores a BANNER, THUMBNAIL or THUMBNAIL_HALF image.
	StoreImage(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.ImageMedia, error)

	// GetResource loads the stored media of one slot.
	// Returns ErrObjectNotFound if nothing is stored for the slot.
	GetResource(ctx context.Context, id model.VideoID, mediaType model.MediaType) (*model.Resource, error)

	// DownloadURL returns a time-limited URL for the stored media of one slot.
	// Returns ErrObjectNotFound if nothing is stored for the slot.
	DownloadURL(ctx context.Context, id model.VideoID, mediaType model.MediaType, expiry time.Duration) (string, error)

	// ClearResources removes every stored media of a video.
	ClearResources(ctx context.Context, id model.VideoID) error
}
