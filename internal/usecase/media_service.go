package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

var (
	// ErrInvalidMediaType is returned when a media type name is not recognized.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrInvalidMediaStatus is returned when an encoder reports an unknown status.
	ErrInvalidMediaStatus = errors.New("invalid media status")
)

// UploadMediaInput contains the input parameters for uploading a single media file.
type UploadMediaInput struct {
	VideoID  string
	Type     model.MediaType
	Resource model.Resource
}

// UploadMediaOutput contains the result of uploading a media file.
type UploadMediaOutput struct {
	VideoID model.VideoID
	Type    model.MediaType
}

// MediaURLExpiry is how long a presigned media URL stays valid.
const MediaURLExpiry = 15 * time.Minute

// MediaURLOutput is a presigned download URL for one media slot.
type MediaURLOutput struct {
	VideoID   model.VideoID
	Type      model.MediaType
	URL       string
	ExpiresAt time.Time
}

// UpdateMediaStatusInput is an encoder callback for one audio/video media.
type UpdateMediaStatusInput struct {
	Status     string
	VideoID    string
	ResourceID string
	Folder     string
	FileName   string
}

// UploadMedia stores the resource, attaches it to its slot and persists the video.
func (s *videoService) UploadMedia(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error) {
	mediaType, ok := model.ParseMediaType(string(input.Type))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMediaType, input.Type)
	}

	current, err := s.findVideo(ctx, model.VideoIDFrom(input.VideoID))
	if err != nil {
		return nil, err
	}

	video := current.Clone()
	if err := s.storeMedia(ctx, video, mediaType, input.Resource); err != nil {
		return nil, err
	}

	if _, err := s.videos.Update(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}

	return &UploadMediaOutput{VideoID: video.ID, Type: mediaType}, nil
}

// UpdateMediaStatus moves the media whose ID equals input.ResourceID to the
// reported status. Callbacks for deleted videos, unknown resources or stale
// statuses leave the video untouched.
func (s *videoService) UpdateMediaStatus(ctx context.Context, input UpdateMediaStatusInput) error {
	status, ok := model.ParseMediaStatus(input.Status)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidMediaStatus, input.Status)
	}

	id := model.VideoIDFrom(input.VideoID)
	current, err := s.videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			slog.InfoContext(ctx, "ignoring media status for missing video", "video_id", id)
			return nil
		}
		return fmt.Errorf("find video: %w", err)
	}

	mediaType, media := matchAudioVideo(current, input.ResourceID)
	if media == nil {
		slog.InfoContext(ctx, "ignoring media status for unknown resource",
			"video_id", id,
			"resource_id", input.ResourceID,
		)
		return nil
	}

	next, err := transitionMedia(media, status, encodedLocation(input.Folder, input.FileName))
	if err != nil {
		slog.InfoContext(ctx, "ignoring media status transition",
			"video_id", id,
			"resource_id", input.ResourceID,
			"from", media.Status,
			"to", status,
		)
		return nil
	}

	video := current.Clone().SetAudioVideo(mediaType, next)
	if _, err := s.videos.Update(ctx, video); err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	return nil
}

// GetMedia loads the stored file of one media slot.
func (s *videoService) GetMedia(ctx context.Context, videoID model.VideoID, mediaType model.MediaType) (*model.Resource, error) {
	resource, err := s.media.GetResource(ctx, videoID, mediaType)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, &repository.NotFoundError{
				Aggregate: "Media",
				ID:        fmt.Sprintf("%s/%s", videoID, mediaType),
			}
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return resource, nil
}

// GetMediaURL presigns a download of one media slot. Storages that cannot
// sign URLs return repository.ErrPresignNotSupported.
func (s *videoService) GetMediaURL(ctx context.Context, videoID model.VideoID, mediaType model.MediaType) (*MediaURLOutput, error) {
	expiresAt := time.Now().Add(MediaURLExpiry)

	u, err := s.media.DownloadURL(ctx, videoID, mediaType, MediaURLExpiry)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, &repository.NotFoundError{
				Aggregate: "Media",
				ID:        fmt.Sprintf("%s/%s", videoID, mediaType),
			}
		}
		return nil, fmt.Errorf("sign resource: %w", err)
	}

	return &MediaURLOutput{
		VideoID:   videoID,
		Type:      mediaType,
		URL:       u,
		ExpiresAt: expiresAt,
	}, nil
}

// matchAudioVideo returns the VIDEO or TRAILER media with the given ID.
func matchAudioVideo(video *model.Video, resourceID string) (model.MediaType, *model.AudioVideoMedia) {
	for _, t := range []model.MediaType{model.MediaTypeVideo, model.MediaTypeTrailer} {
		if m := video.AudioVideo(t); m != nil && m.ID == resourceID {
			return t, m
		}
	}
	return "", nil
}

func transitionMedia(m *model.AudioVideoMedia, status model.MediaStatus, location string) (*model.AudioVideoMedia, error) {
	switch status {
	case model.MediaStatusProcessing:
		return m.Processing()
	case model.MediaStatusCompleted:
		return m.Completed(location)
	case model.MediaStatusError:
		return m.Failed()
	default:
		return nil, model.ErrInvalidMediaTransition
	}
}

// encodedLocation joins folder and file name, or returns "" when either is blank.
func encodedLocation(folder, fileName string) string {
	folder, fileName = strings.TrimSpace(folder), strings.TrimSpace(fileName)
	if folder == "" || fileName == "" {
		return ""
	}
	return folder + "/" + fileName
}
