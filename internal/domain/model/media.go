package model

import (
	"errors"
	"strings"
)

// MediaStatus represents the encoding state of an audio/video media.
type MediaStatus string

const (
	MediaStatusPending    MediaStatus = "PENDING"
	MediaStatusProcessing MediaStatus = "PROCESSING"
	MediaStatusCompleted  MediaStatus = "COMPLETED"
	MediaStatusError      MediaStatus = "ERROR"
)

// Valid status transitions:
// PENDING -> PROCESSING -> COMPLETED
//    |            \-> ERROR
//    \-> COMPLETED | ERROR (encoder may skip the PROCESSING callback)
var validMediaTransitions = map[MediaStatus][]MediaStatus{
	MediaStatusPending:    {MediaStatusProcessing, MediaStatusCompleted, MediaStatusError},
	MediaStatusProcessing: {MediaStatusCompleted, MediaStatusError},
	MediaStatusCompleted:  {},
	MediaStatusError:      {},
}

// ParseMediaStatus resolves a status by name, ignoring case.
func ParseMediaStatus(s string) (MediaStatus, bool) {
	status := MediaStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", false
	}
	return status, true
}

func (s MediaStatus) IsValid() bool {
	switch s {
	case MediaStatusPending, MediaStatusProcessing, MediaStatusCompleted, MediaStatusError:
		return true
	default:
		return false
	}
}

func (s MediaStatus) CanTransitionTo(next MediaStatus) bool {
	for _, status := range validMediaTransitions[s] {
		if status == next {
			return true
		}
	}
	return false
}

func (s MediaStatus) String() string {
	return string(s)
}

// MediaType names one of the five media slots of a Video.
type MediaType string

const (
	MediaTypeVideo         MediaType = "VIDEO"
	MediaTypeTrailer       MediaType = "TRAILER"
	MediaTypeBanner        MediaType = "BANNER"
	MediaTypeThumbnail     MediaType = "THUMBNAIL"
	MediaTypeThumbnailHalf MediaType = "THUMBNAIL_HALF"
)

// ParseMediaType resolves a media type by name, ignoring case.
func ParseMediaType(s string) (MediaType, bool) {
	t := MediaType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case MediaTypeVideo, MediaTypeTrailer, MediaTypeBanner, MediaTypeThumbnail, MediaTypeThumbnailHalf:
		return t, true
	default:
		return "", false
	}
}

// IsAudioVideo reports whether the slot holds an AudioVideoMedia.
func (t MediaType) IsAudioVideo() bool {
	return t == MediaTypeVideo || t == MediaTypeTrailer
}

func (t MediaType) String() string {
	return string(t)
}

var (
	ErrMissingMediaField      = errors.New("media field must not be empty")
	ErrInvalidMediaTransition = errors.New("invalid media status transition")
)

// ImageMedia is an immutable reference to a stored image.
// Two images are equal when they hold the same bytes at the same place.
type ImageMedia struct {
	ID       string
	Checksum string
	Name     string
	Location string
}

// NewImageMedia creates an ImageMedia with a fresh ID.
func NewImageMedia(checksum, name, location string) (*ImageMedia, error) {
	return ImageMediaWith(newToken(), checksum, name, location)
}

// ImageMediaWith rebuilds an ImageMedia from persisted values.
func ImageMediaWith(id, checksum, name, location string) (*ImageMedia, error) {
	if id == "" || checksum == "" || name == "" || location == "" {
		return nil, ErrMissingMediaField
	}
	return &ImageMedia{
		ID:       id,
		Checksum: checksum,
		Name:     name,
		Location: location,
	}, nil
}

// Equal compares checksum and location only.
func (m *ImageMedia) Equal(other *ImageMedia) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Checksum == other.Checksum && m.Location == other.Location
}

// AudioVideoMedia is an immutable reference to a stored audio/video file and
// its encoding progress. EncodedLocation stays empty until encoding completes.
type AudioVideoMedia struct {
	ID              string
	Checksum        string
	Name            string
	RawLocation     string
	EncodedLocation string
	Status          MediaStatus
}

// NewAudioVideoMedia creates a PENDING media with a fresh ID.
func NewAudioVideoMedia(checksum, name, rawLocation string) (*AudioVideoMedia, error) {
	return AudioVideoMediaWith(newToken(), checksum, name, rawLocation, "", MediaStatusPending)
}

// AudioVideoMediaWith rebuilds an AudioVideoMedia from persisted values.
func AudioVideoMediaWith(id, checksum, name, rawLocation, encodedLocation string, status MediaStatus) (*AudioVideoMedia, error) {
	if id == "" || checksum == "" || name == "" || rawLocation == "" || !status.IsValid() {
		return nil, ErrMissingMediaField
	}
	return &AudioVideoMedia{
		ID:              id,
		Checksum:        checksum,
		Name:            name,
		RawLocation:     rawLocation,
		EncodedLocation: encodedLocation,
		Status:          status,
	}, nil
}

// Processing returns a copy in PROCESSING status.
func (m *AudioVideoMedia) Processing() (*AudioVideoMedia, error) {
	return m.transition(MediaStatusProcessing, "")
}

// Completed returns a copy in COMPLETED status pointing at the encoded output.
func (m *AudioVideoMedia) Completed(encodedLocation string) (*AudioVideoMedia, error) {
	return m.transition(MediaStatusCompleted, encodedLocation)
}

// Failed returns a copy in ERROR status.
func (m *AudioVideoMedia) Failed() (*AudioVideoMedia, error) {
	return m.transition(MediaStatusError, "")
}

func (m *AudioVideoMedia) transition(next MediaStatus, encodedLocation string) (*AudioVideoMedia, error) {
	if !m.Status.CanTransitionTo(next) {
		return nil, ErrInvalidMediaTransition
	}
	out := *m
	out.Status = next
	out.EncodedLocation = encodedLocation
	return &out, nil
}

// Equal compares checksum and raw location only.
func (m *AudioVideoMedia) Equal(other *AudioVideoMedia) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Checksum == other.Checksum && m.RawLocation == other.RawLocation
}
