package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrDuplicateVideo is returned when attempting to create a video that already exists.
	ErrDuplicateVideo = errors.New("video already exists")

	// ErrConcurrentUpdate is returned when the stored version of an aggregate
	// no longer matches the version that was loaded.
	ErrConcurrentUpdate = errors.New("aggregate was modified concurrently")

	// ErrObjectNotFound is returned when an object does not exist in storage.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPresignNotSupported is returned by storages that cannot sign URLs.
	ErrPresignNotSupported = errors.New("presigned URLs are not supported by this storage")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)

// NotFoundError reports a missing aggregate by name and ID.
type NotFoundError struct {
	Aggregate string
	ID        string
}

// NewVideoNotFoundError returns a NotFoundError for a Video.
func NewVideoNotFoundError(id string) *NotFoundError {
	return &NotFoundError{Aggregate: "Video", ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s was not found", e.Aggregate, e.ID)
}

// Is makes a Video NotFoundError match ErrVideoNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrVideoNotFound && e.Aggregate == "Video"
}
