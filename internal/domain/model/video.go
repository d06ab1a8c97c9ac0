package model

import (
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/validation"
)

// AggregateVideo is the aggregate name used in error reporting.
const AggregateVideo = "Video"

// VideoFields holds the scalar and relation attributes of a Video.
// Title is a pointer so that an absent title can be told apart from an empty one.
type VideoFields struct {
	Title       *string
	Description string
	LaunchedAt  int
	Duration    float64
	Opened      bool
	Published   bool
	Rating      Rating
	Categories  []CategoryID
	Genres      []GenreID
	CastMembers []CastMemberID
}

// Video is the catalog aggregate root.
// Relation sets hold foreign identifiers only; their existence is checked by
// the caller before the aggregate is persisted.
type Video struct {
	ID          VideoID
	Title       *string
	Description string
	LaunchedAt  int
	Duration    float64
	Opened      bool
	Published   bool
	Rating      Rating

	Categories  IDSet[CategoryID]
	Genres      IDSet[GenreID]
	CastMembers IDSet[CastMemberID]

	Video         *AudioVideoMedia
	Trailer       *AudioVideoMedia
	Banner        *ImageMedia
	Thumbnail     *ImageMedia
	ThumbnailHalf *ImageMedia

	// Version is the optimistic concurrency token of the persisted row.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time

	events []DomainEvent
}

// NewVideo creates a Video with a fresh ID and no media.
// It does not validate; call Validate before persisting.
func NewVideo(f VideoFields) *Video {
	now := time.Now()
	v := &Video{
		ID:        NewVideoID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.assign(f)
	return v
}

// Update replaces every scalar and relation attribute and returns the receiver.
func (v *Video) Update(f VideoFields) *Video {
	v.assign(f)
	v.touch()
	return v
}

func (v *Video) assign(f VideoFields) {
	v.Title = f.Title
	v.Description = f.Description
	v.LaunchedAt = f.LaunchedAt
	v.Duration = f.Duration
	v.Opened = f.Opened
	v.Published = f.Published
	v.Rating = f.Rating
	v.Categories = NewIDSet(f.Categories...)
	v.Genres = NewIDSet(f.Genres...)
	v.CastMembers = NewIDSet(f.CastMembers...)
}

// touch advances UpdatedAt, never reusing or going behind the previous value.
func (v *Video) touch() {
	now := time.Now()
	if !now.After(v.UpdatedAt) {
		now = v.UpdatedAt.Add(time.Microsecond)
	}
	v.UpdatedAt = now
}

// SetVideo replaces the main video media. A nil media clears the slot.
func (v *Video) SetVideo(m *AudioVideoMedia) *Video {
	v.registerPendingEncode(m)
	v.Video = m
	v.touch()
	return v
}

// SetTrailer replaces the trailer media. A nil media clears the slot.
func (v *Video) SetTrailer(m *AudioVideoMedia) *Video {
	v.registerPendingEncode(m)
	v.Trailer = m
	v.touch()
	return v
}

// registerPendingEncode raises VideoMediaCreated for a media waiting to be encoded.
func (v *Video) registerPendingEncode(m *AudioVideoMedia) {
	if m != nil && m.Status == MediaStatusPending {
		v.registerEvent(NewVideoMediaCreated(v.ID, m.ID, m.RawLocation))
	}
}

func (v *Video) SetBanner(m *ImageMedia) *Video {
	v.Banner = m
	v.touch()
	return v
}

func (v *Video) SetThumbnail(m *ImageMedia) *Video {
	v.Thumbnail = m
	v.touch()
	return v
}

func (v *Video) SetThumbnailHalf(m *ImageMedia) *Video {
	v.ThumbnailHalf = m
	v.touch()
	return v
}

// SetAudioVideo stores m in the VIDEO or TRAILER slot.
func (v *Video) SetAudioVideo(t MediaType, m *AudioVideoMedia) *Video {
	switch t {
	case MediaTypeVideo:
		return v.SetVideo(m)
	case MediaTypeTrailer:
		return v.SetTrailer(m)
	}
	return v
}

// SetImage stores m in the BANNER, THUMBNAIL or THUMBNAIL_HALF slot.
func (v *Video) SetImage(t MediaType, m *ImageMedia) *Video {
	switch t {
	case MediaTypeBanner:
		return v.SetBanner(m)
	case MediaTypeThumbnail:
		return v.SetThumbnail(m)
	case MediaTypeThumbnailHalf:
		return v.SetThumbnailHalf(m)
	}
	return v
}

// AudioVideo returns the media held by the VIDEO or TRAILER slot.
func (v *Video) AudioVideo(t MediaType) *AudioVideoMedia {
	switch t {
	case MediaTypeVideo:
		return v.Video
	case MediaTypeTrailer:
		return v.Trailer
	}
	return nil
}

// Validate reports every rule violation to h.
func (v *Video) Validate(h validation.Handler) {
	NewVideoValidator(v, h).Validate()
}

// Clone returns an independent copy. Relation sets and the event buffer are
// copied; media values are immutable and shared.
func (v *Video) Clone() *Video {
	out := *v
	out.Categories = v.Categories.Clone()
	out.Genres = v.Genres.Clone()
	out.CastMembers = v.CastMembers.Clone()
	out.events = append([]DomainEvent(nil), v.events...)
	return &out
}

// Preview projects the video for list views.
func (v *Video) Preview() VideoPreview {
	var title string
	if v.Title != nil {
		title = *v.Title
	}
	return VideoPreview{
		ID:          v.ID,
		Title:       title,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func (v *Video) registerEvent(e DomainEvent) {
	v.events = append(v.events, e)
}

// DomainEvents returns the pending events without clearing them.
func (v *Video) DomainEvents() []DomainEvent {
	return append([]DomainEvent(nil), v.events...)
}

// PullDomainEvents returns the pending events and clears the buffer.
func (v *Video) PullDomainEvents() []DomainEvent {
	events := v.events
	v.events = nil
	return events
}
