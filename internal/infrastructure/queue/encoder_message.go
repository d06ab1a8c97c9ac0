package queue

import (
	"errors"
	"fmt"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

var errIncompleteResult = errors.New("encoder result is missing required fields")

// encoderMessage is the JSON document the encoder publishes.
//
// Success:
//
//	{"status":"COMPLETED","id":"<videoId>","output_bucket":"...",
//	 "video":{"resource_id":"...","encoded_video_folder":"...","file_path":"..."}}
//
// Failure:
//
//	{"status":"ERROR","video_id":"<videoId>","error":"...",
//	 "message":{"resource_id":"...","file_path":"..."}}
type encoderMessage struct {
	Status       string          `json:"status"`
	ID           string          `json:"id,omitempty"`
	OutputBucket string          `json:"output_bucket,omitempty"`
	Video        *encodedVideo   `json:"video,omitempty"`
	VideoID      string          `json:"video_id,omitempty"`
	Message      *encoderRequest `json:"message,omitempty"`
	Error        string          `json:"error,omitempty"`
	RetryCount   int             `json:"retry_count,omitempty"`
}

type encodedVideo struct {
	ResourceID         string `json:"resource_id"`
	EncodedVideoFolder string `json:"encoded_video_folder"`
	FilePath           string `json:"file_path"`
}

type encoderRequest struct {
	ResourceID string `json:"resource_id"`
	FilePath   string `json:"file_path"`
}

func (m encoderMessage) videoID() string {
	if m.ID != "" {
		return m.ID
	}
	return m.VideoID
}

// toResult validates the message and flattens it into an EncoderResult.
func (m encoderMessage) toResult() (repository.EncoderResult, error) {
	status, ok := model.ParseMediaStatus(m.Status)
	if !ok || status == model.MediaStatusPending {
		return repository.EncoderResult{}, fmt.Errorf("unknown encoder status %q", m.Status)
	}

	result := repository.EncoderResult{
		Status:     status.String(),
		VideoID:    m.videoID(),
		Error:      m.Error,
		RetryCount: m.RetryCount,
	}

	switch {
	case m.Video != nil:
		result.ResourceID = m.Video.ResourceID
		result.Folder = m.Video.EncodedVideoFolder
		result.FileName = m.Video.FilePath
	case m.Message != nil:
		result.ResourceID = m.Message.ResourceID
		result.FileName = m.Message.FilePath
	}

	if result.VideoID == "" || result.ResourceID == "" {
		return repository.EncoderResult{}, errIncompleteResult
	}
	if status == model.MediaStatusCompleted && m.Video == nil {
		return repository.EncoderResult{}, errIncompleteResult
	}

	return result, nil
}

// statusLabel bounds the metric label to known statuses.
func statusLabel(status string) string {
	if s, ok := model.ParseMediaStatus(status); ok {
		return s.String()
	}
	return "unknown"
}
