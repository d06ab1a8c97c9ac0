package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

type object struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// ObjectStorage is an in-memory implementation of repository.ObjectStorage.
type ObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]object
}

// NewObjectStorage creates an empty in-memory object storage.
func NewObjectStorage() *ObjectStorage {
	return &ObjectStorage{objects: make(map[string]object)}
}

func (s *ObjectStorage) GeneratePresignedDownloadURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", repository.ErrPresignNotSupported
}

func (s *ObjectStorage) Upload(_ context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = object{data: data, contentType: contentType, lastModified: time.Now()}
	return nil
}

func (s *ObjectStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *ObjectStorage) Stat(_ context.Context, key string) (*repository.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &repository.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
	}, nil
}

// List returns the keys under prefix in lexical order.
func (s *ObjectStorage) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *ObjectStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

func (s *ObjectStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}

var _ repository.ObjectStorage = (*ObjectStorage)(nil)
