package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn     func(ctx context.Context, video *model.Video) (*model.Video, error)
	updateFn     func(ctx context.Context, video *model.Video) (*model.Video, error)
	deleteByIDFn func(ctx context.Context, id model.VideoID) error
	findByIDFn   func(ctx context.Context, id model.VideoID) (*model.Video, error)
	findAllFn    func(ctx context.Context, query model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error)

	createCalls atomic.Int32
	updateCalls atomic.Int32
}

var _ repository.VideoRepository = (*mockVideoRepository)(nil)

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) (*model.Video, error) {
	m.createCalls.Add(1)
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return video, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, video *model.Video) (*model.Video, error) {
	m.updateCalls.Add(1)
	if m.updateFn != nil {
		return m.updateFn(ctx, video)
	}
	return video, nil
}

func (m *mockVideoRepository) DeleteByID(ctx context.Context, id model.VideoID) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockVideoRepository) FindByID(ctx context.Context, id model.VideoID) (*model.Video, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) FindAll(ctx context.Context, query model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx, query)
	}
	return &model.Pagination[model.VideoPreview]{}, nil
}

// mockExistsRepository provides a configurable mock for the relation existence repositories.
// By default every requested ID exists.
type mockExistsRepository[T ~string] struct {
	existsByIDsFn func(ctx context.Context, ids []T) ([]T, error)
	calls         atomic.Int32
}

func (m *mockExistsRepository[T]) ExistsByIDs(ctx context.Context, ids []T) ([]T, error) {
	m.calls.Add(1)
	if m.existsByIDsFn != nil {
		return m.existsByIDsFn(ctx, ids)
	}
	return ids, nil
}

var (
	_ repository.CategoryRepository   = (*mockExistsRepository[model.CategoryID])(nil)
	_ repository.GenreRepository      = (*mockExistsRepository[model.GenreID])(nil)
	_ repository.CastMemberRepository = (*mockExistsRepository[model.CastMemberID])(nil)
)

// mockMediaResourceRepository provides a configurable mock for MediaResourceRepository.
type mockMediaResourceRepository struct {
	storeAudioVideoFn func(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.AudioVideoMedia, error)
	storeImageFn      func(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.ImageMedia, error)
	getResourceFn     func(ctx context.Context, id model.VideoID, mediaType model.MediaType) (*model.Resource, error)
	clearResourcesFn  func(ctx context.Context, id model.VideoID) error
	downloadURLFn     func(ctx context.Context, id model.VideoID, mediaType model.MediaType, expiry time.Duration) (string, error)

	clearCalls atomic.Int32
}

var _ repository.MediaResourceRepository = (*mockMediaResourceRepository)(nil)

func (m *mockMediaResourceRepository) StoreAudioVideo(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.AudioVideoMedia, error) {
	if m.storeAudioVideoFn != nil {
		return m.storeAudioVideoFn(ctx, id, mediaType, resource)
	}
	return model.NewAudioVideoMedia(resource.Checksum, resource.Name, "videoId-"+id.String()+"/type-"+mediaType.String())
}

func (m *mockMediaResourceRepository) StoreImage(ctx context.Context, id model.VideoID, mediaType model.MediaType, resource model.Resource) (*model.ImageMedia, error) {
	if m.storeImageFn != nil {
		return m.storeImageFn(ctx, id, mediaType, resource)
	}
	return model.NewImageMedia(resource.Checksum, resource.Name, "videoId-"+id.String()+"/type-"+mediaType.String())
}

func (m *mockMediaResourceRepository) GetResource(ctx context.Context, id model.VideoID, mediaType model.MediaType) (*model.Resource, error) {
	if m.getResourceFn != nil {
		return m.getResourceFn(ctx, id, mediaType)
	}
	return nil, repository.ErrObjectNotFound
}

func (m *mockMediaResourceRepository) DownloadURL(ctx context.Context, id model.VideoID, mediaType model.MediaType, expiry time.Duration) (string, error) {
	if m.downloadURLFn != nil {
		return m.downloadURLFn(ctx, id, mediaType, expiry)
	}
	return "", repository.ErrObjectNotFound
}

func (m *mockMediaResourceRepository) ClearResources(ctx context.Context, id model.VideoID) error {
	m.clearCalls.Add(1)
	if m.clearResourcesFn != nil {
		return m.clearResourcesFn(ctx, id)
	}
	return nil
}

// testDeps bundles the mocks behind a VideoService.
type testDeps struct {
	videos      *mockVideoRepository
	categories  *mockExistsRepository[model.CategoryID]
	genres      *mockExistsRepository[model.GenreID]
	castMembers *mockExistsRepository[model.CastMemberID]
	media       *mockMediaResourceRepository
}

func newTestDeps() *testDeps {
	return &testDeps{
		videos:      &mockVideoRepository{},
		categories:  &mockExistsRepository[model.CategoryID]{},
		genres:      &mockExistsRepository[model.GenreID]{},
		castMembers: &mockExistsRepository[model.CastMemberID]{},
		media:       &mockMediaResourceRepository{},
	}
}

func (d *testDeps) service() VideoService {
	return NewVideoService(d.videos, d.categories, d.genres, d.castMembers, d.media)
}
