package model

import "time"

// Event type names.
const (
	EventTypeVideoMediaCreated = "VideoMediaCreated"
)

// DomainEvent is something that happened to an aggregate and may interest
// other systems.
type DomainEvent interface {
	EventType() string
	OccurredOn() time.Time
}

// VideoMediaCreated is raised when a raw audio/video file is attached to a
// video and is ready to be picked up by the encoder.
type VideoMediaCreated struct {
	ResourceID string    `json:"resource_id"`
	VideoID    string    `json:"video_id"`
	FilePath   string    `json:"file_path"`
	OccurredAt time.Time `json:"occurred_on"`
}

// NewVideoMediaCreated creates the event for media mediaID of the given video.
// The encoder echoes ResourceID back when it reports a result.
func NewVideoMediaCreated(videoID VideoID, mediaID, filePath string) VideoMediaCreated {
	return VideoMediaCreated{
		ResourceID: mediaID,
		VideoID:    videoID.String(),
		FilePath:   filePath,
		OccurredAt: time.Now(),
	}
}

func (e VideoMediaCreated) EventType() string     { return EventTypeVideoMediaCreated }
func (e VideoMediaCreated) OccurredOn() time.Time { return e.OccurredAt }
