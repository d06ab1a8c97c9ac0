package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/domain/validation"
)

// VideoAttributes are the scalar and relation fields accepted by create and update.
// Relation IDs and Rating are raw strings; an unknown rating is treated as absent.
type VideoAttributes struct {
	Title       *string
	Description string
	LaunchedAt  int
	Duration    float64
	Opened      bool
	Published   bool
	Rating      string
	Categories  []string
	Genres      []string
	CastMembers []string
}

// VideoResources holds the optional media files sent with a create or update.
type VideoResources struct {
	Video         *model.Resource
	Trailer       *model.Resource
	Banner        *model.Resource
	Thumbnail     *model.Resource
	ThumbnailHalf *model.Resource
}

// CreateVideoInput contains the input parameters for creating a video.
type CreateVideoInput struct {
	VideoAttributes
	Resources VideoResources
}

// CreateVideoOutput contains the result of creating a video.
type CreateVideoOutput struct {
	ID model.VideoID
}

// UpdateVideoInput contains the input parameters for updating a video.
// Media slots without a resource keep their current value.
type UpdateVideoInput struct {
	ID string
	VideoAttributes
	Resources VideoResources
}

// UpdateVideoOutput contains the result of updating a video.
type UpdateVideoOutput struct {
	ID model.VideoID
}

// VideoService defines the interface for video business logic operations.
type VideoService interface {
	// CreateVideo validates and persists a new video with its media.
	CreateVideo(ctx context.Context, input CreateVideoInput) (*CreateVideoOutput, error)

	// UpdateVideo replaces the attributes of an existing video.
	UpdateVideo(ctx context.Context, input UpdateVideoInput) (*UpdateVideoOutput, error)

	// DeleteVideo removes a video and its stored media.
	DeleteVideo(ctx context.Context, videoID model.VideoID) error

	// GetVideo retrieves video information by ID.
	GetVideo(ctx context.Context, videoID model.VideoID) (*model.Video, error)

	// ListVideos returns one page of previews matching the query.
	ListVideos(ctx context.Context, query model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error)

	// UploadMedia stores a single media file and attaches it to its slot.
	UploadMedia(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error)

	// UpdateMediaStatus applies an encoder callback to the matching media.
	// Unknown videos, unmatched resources and disallowed transitions are ignored.
	UpdateMediaStatus(ctx context.Context, input UpdateMediaStatusInput) error

	// GetMedia loads the stored file of one media slot.
	GetMedia(ctx context.Context, videoID model.VideoID, mediaType model.MediaType) (*model.Resource, error)

	// GetMediaURL returns a time-limited download URL for one media slot.
	GetMediaURL(ctx context.Context, videoID model.VideoID, mediaType model.MediaType) (*MediaURLOutput, error)
}

// InternalError wraps a failure of the store-then-persist phase with the
// affected video ID.
type InternalError struct {
	Op      string
	VideoID model.VideoID
	Err     error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("An error on %s video was observed [videoId:%s]", e.Op, e.VideoID)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

type videoService struct {
	videos      repository.VideoRepository
	categories  repository.CategoryRepository
	genres      repository.GenreRepository
	castMembers repository.CastMemberRepository
	media       repository.MediaResourceRepository
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	videos repository.VideoRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
	castMembers repository.CastMemberRepository,
	media repository.MediaResourceRepository,
) VideoService {
	return &videoService{
		videos:      videos,
		categories:  categories,
		genres:      genres,
		castMembers: castMembers,
		media:       media,
	}
}

// CreateVideo validates relations and fields, stores the media and persists the video.
// Media stored before a failed persist are cleared on a best-effort basis.
func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*CreateVideoOutput, error) {
	video := model.NewVideo(input.fields())

	notification := validation.NewNotification()
	if err := s.validateRelations(ctx, video, notification); err != nil {
		return nil, err
	}
	video.Validate(notification)

	if notification.HasErrors() {
		return nil, validation.NewNotificationError("Could not create Aggregate Video", notification)
	}

	created, err := s.storeAndPersist(ctx, video, input.Resources, s.videos.Create)
	if err != nil {
		s.clearResources(ctx, video.ID)
		return nil, &InternalError{Op: "create", VideoID: video.ID, Err: err}
	}

	return &CreateVideoOutput{ID: created.ID}, nil
}

// UpdateVideo loads the video, applies the new attributes on a copy and persists it.
func (s *videoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*UpdateVideoOutput, error) {
	id := model.VideoIDFrom(input.ID)

	current, err := s.findVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	video := current.Clone().Update(input.fields())

	notification := validation.NewNotification()
	if err := s.validateRelations(ctx, video, notification); err != nil {
		return nil, err
	}
	video.Validate(notification)

	if notification.HasErrors() {
		return nil, validation.NewNotificationError("Could not update Aggregate Video", notification)
	}

	updated, err := s.storeAndPersist(ctx, video, input.Resources, s.videos.Update)
	if err != nil {
		return nil, &InternalError{Op: "update", VideoID: video.ID, Err: err}
	}

	return &UpdateVideoOutput{ID: updated.ID}, nil
}

// DeleteVideo deletes the row, then the stored media.
func (s *videoService) DeleteVideo(ctx context.Context, videoID model.VideoID) error {
	if err := s.videos.DeleteByID(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if err := s.media.ClearResources(ctx, videoID); err != nil {
		return fmt.Errorf("clear video resources: %w", err)
	}

	return nil
}

// GetVideo retrieves video information by ID.
func (s *videoService) GetVideo(ctx context.Context, videoID model.VideoID) (*model.Video, error) {
	return s.findVideo(ctx, videoID)
}

// ListVideos returns one page of previews matching the query.
func (s *videoService) ListVideos(ctx context.Context, query model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error) {
	page, err := s.videos.FindAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find videos: %w", err)
	}
	return page, nil
}

// findVideo converts the repository sentinel into a typed NotFoundError.
func (s *videoService) findVideo(ctx context.Context, id model.VideoID) (*model.Video, error) {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, repository.NewVideoNotFoundError(id.String())
		}
		return nil, fmt.Errorf("find video: %w", err)
	}
	return video, nil
}

// validateRelations appends one error per relation kind with missing IDs.
// Only lookup failures are returned as errors.
func (s *videoService) validateRelations(ctx context.Context, video *model.Video, h validation.Handler) error {
	if err := checkExistence(ctx, h, "categories", video.Categories.Values(), s.categories.ExistsByIDs); err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if err := checkExistence(ctx, h, "genres", video.Genres.Values(), s.genres.ExistsByIDs); err != nil {
		return fmt.Errorf("check genres: %w", err)
	}
	if err := checkExistence(ctx, h, "cast members", video.CastMembers.Values(), s.castMembers.ExistsByIDs); err != nil {
		return fmt.Errorf("check cast members: %w", err)
	}
	return nil
}

func checkExistence[T ~string](
	ctx context.Context,
	h validation.Handler,
	label string,
	requested []T,
	exists func(context.Context, []T) ([]T, error),
) error {
	if len(requested) == 0 {
		return nil
	}

	found, err := exists(ctx, requested)
	if err != nil {
		return err
	}

	missing := missingIDs(requested, found)
	if len(missing) == 0 {
		return nil
	}

	h.Append(validation.NewError(fmt.Sprintf("Some %s could not be found: %s", label, strings.Join(missing, ", "))))
	return nil
}

// missingIDs returns the requested IDs absent from found, in request order.
func missingIDs[T ~string](requested, found []T) []string {
	present := make(map[T]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []string
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, string(id))
		}
	}
	return missing
}

// storeAndPersist uploads every provided resource, attaches the resulting
// media and hands the video to persist.
func (s *videoService) storeAndPersist(
	ctx context.Context,
	video *model.Video,
	resources VideoResources,
	persist func(context.Context, *model.Video) (*model.Video, error),
) (*model.Video, error) {
	for _, item := range resources.items() {
		if err := s.storeMedia(ctx, video, item.mediaType, *item.resource); err != nil {
			return nil, err
		}
	}

	return persist(ctx, video)
}

// storeMedia stores one resource and attaches it to the slot of mediaType.
func (s *videoService) storeMedia(ctx context.Context, video *model.Video, mediaType model.MediaType, resource model.Resource) error {
	if mediaType.IsAudioVideo() {
		media, err := s.media.StoreAudioVideo(ctx, video.ID, mediaType, resource)
		if err != nil {
			return fmt.Errorf("store %s: %w", mediaType, err)
		}
		video.SetAudioVideo(mediaType, media)
		return nil
	}

	media, err := s.media.StoreImage(ctx, video.ID, mediaType, resource)
	if err != nil {
		return fmt.Errorf("store %s: %w", mediaType, err)
	}
	video.SetImage(mediaType, media)
	return nil
}

func (s *videoService) clearResources(ctx context.Context, id model.VideoID) {
	if err := s.media.ClearResources(ctx, id); err != nil {
		slog.ErrorContext(ctx, "failed to clear resources of rejected video",
			"video_id", id,
			"error", err,
		)
	}
}

func (a VideoAttributes) fields() model.VideoFields {
	rating, _ := model.ParseRating(a.Rating)
	return model.VideoFields{
		Title:       a.Title,
		Description: a.Description,
		LaunchedAt:  a.LaunchedAt,
		Duration:    a.Duration,
		Opened:      a.Opened,
		Published:   a.Published,
		Rating:      rating,
		Categories:  model.IDsFrom[model.CategoryID](a.Categories),
		Genres:      model.IDsFrom[model.GenreID](a.Genres),
		CastMembers: model.IDsFrom[model.CastMemberID](a.CastMembers),
	}
}

type resourceItem struct {
	mediaType model.MediaType
	resource  *model.Resource
}

// items lists the present resources in slot order.
func (r VideoResources) items() []resourceItem {
	all := []resourceItem{
		{model.MediaTypeVideo, r.Video},
		{model.MediaTypeTrailer, r.Trailer},
		{model.MediaTypeBanner, r.Banner},
		{model.MediaTypeThumbnail, r.Thumbnail},
		{model.MediaTypeThumbnailHalf, r.ThumbnailHalf},
	}

	out := make([]resourceItem, 0, len(all))
	for _, item := range all {
		if item.resource != nil {
			out = append(out, item)
		}
	}
	return out
}
