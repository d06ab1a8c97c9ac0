package model

import (
	"strings"
	"unicode/utf8"

	"github.com/hszk-dev/videocatalog/internal/domain/validation"
)

const (
	titleMaxLength       = 255
	descriptionMaxLength = 4000
)

// VideoValidator checks a Video and reports every violation to a handler.
// Checks always run to the end; it is up to the handler to keep one or all errors.
type VideoValidator struct {
	video   *Video
	handler validation.Handler
}

func NewVideoValidator(v *Video, h validation.Handler) *VideoValidator {
	return &VideoValidator{video: v, handler: h}
}

func (vv *VideoValidator) Validate() {
	vv.checkTitle()
	vv.checkDescription()
	vv.checkLaunchedAt()
	vv.checkRating()
}

func (vv *VideoValidator) checkTitle() {
	title := vv.video.Title
	if title == nil {
		vv.append("'title' should not be null")
		return
	}
	trimmed := strings.TrimSpace(*title)
	if trimmed == "" {
		vv.append("'title' should not be empty")
		return
	}
	if n := utf8.RuneCountInString(trimmed); n < 1 || n > titleMaxLength {
		vv.append("'title' must be between 1 and 255 characters")
	}
}

func (vv *VideoValidator) checkDescription() {
	trimmed := strings.TrimSpace(vv.video.Description)
	if trimmed == "" {
		vv.append("'description' should not be empty")
		return
	}
	if utf8.RuneCountInString(trimmed) > descriptionMaxLength {
		vv.append("'description' must be between 0 and 4000 characters")
	}
}

func (vv *VideoValidator) checkLaunchedAt() {
	if vv.video.LaunchedAt == 0 {
		vv.append("'launchedAt' should not be null")
	}
}

func (vv *VideoValidator) checkRating() {
	if !vv.video.Rating.IsValid() {
		vv.append("'rating' should not be null")
	}
}

func (vv *VideoValidator) append(msg string) {
	vv.handler.Append(validation.NewError(msg))
}
