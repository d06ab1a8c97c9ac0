package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/memory"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/queue"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/storage"
	"github.com/hszk-dev/videocatalog/internal/usecase"
)

// failingVideoRepository fails every lookup.
type failingVideoRepository struct {
	repository.VideoRepository
}

func (failingVideoRepository) FindByID(context.Context, model.VideoID) (*model.Video, error) {
	return nil, errors.New("connection reset")
}

// capturingPublisher keeps every VideoMediaCreated it is sent.
type capturingPublisher struct {
	mu      sync.Mutex
	created []model.VideoMediaCreated
}

func (p *capturingPublisher) Send(_ context.Context, event model.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(model.VideoMediaCreated); ok {
		p.created = append(p.created, e)
	}
	return nil
}

func (p *capturingPublisher) last(t *testing.T) model.VideoMediaCreated {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.created) == 0 {
		t.Fatal("no VideoMediaCreated published")
	}
	return p.created[len(p.created)-1]
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created)
}

func newTestService(t *testing.T, videos repository.VideoRepository) usecase.VideoService {
	t.Helper()
	return usecase.NewVideoService(
		videos,
		memory.NewIDRepository[model.CategoryID](),
		memory.NewIDRepository[model.GenreID](),
		memory.NewIDRepository[model.CastMemberID](),
		storage.NewMediaResourceRepository(memory.NewObjectStorage()),
	)
}

func TestEncoderResultHandler_Completed(t *testing.T) {
	ctx := context.Background()
	videos := memory.NewVideoRepository(queue.NopPublisher{})

	title := "Elite Squad"
	video := model.NewVideo(model.VideoFields{Title: &title, Description: "d", LaunchedAt: 2007, Rating: model.RatingAge16})
	media, err := model.NewAudioVideoMedia("sum", "raw.mp4", "videoId-"+video.ID.String()+"/type-VIDEO")
	if err != nil {
		t.Fatalf("NewAudioVideoMedia() error = %v", err)
	}
	video.SetVideo(media)
	if _, err := videos.Create(ctx, video); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	handle := encoderResultHandler(newTestService(t, videos))
	err = handle(ctx, repository.EncoderResult{
		Status:     "COMPLETED",
		VideoID:    video.ID.String(),
		ResourceID: media.ID,
		Folder:     "encoded",
		FileName:   "video.mpd",
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got, err := videos.FindByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Video.Status != model.MediaStatusCompleted || got.Video.EncodedLocation != "encoded/video.mpd" {
		t.Errorf("Video = %+v", got.Video)
	}
}

func TestEncoderResultHandler_Errors(t *testing.T) {
	ctx := context.Background()

	handle := encoderResultHandler(newTestService(t, memory.NewVideoRepository(queue.NopPublisher{})))
	if err := handle(ctx, repository.EncoderResult{Status: "DONE", VideoID: "v1", ResourceID: "m1"}); err != nil {
		t.Errorf("unknown status should be swallowed, got %v", err)
	}
	if err := handle(ctx, repository.EncoderResult{Status: "ERROR", VideoID: "missing", ResourceID: "m1", Error: "boom"}); err != nil {
		t.Errorf("missing video should be ignored, got %v", err)
	}

	handle = encoderResultHandler(newTestService(t, failingVideoRepository{}))
	if err := handle(ctx, repository.EncoderResult{Status: "ERROR", VideoID: "v1", ResourceID: "m1"}); err == nil {
		t.Errorf("repository failure should be returned for retry")
	}
}

func createVideoWithRaw(t *testing.T, svc usecase.VideoService, raw model.Resource) model.VideoID {
	t.Helper()
	title := "Tropa de Elite"
	out, err := svc.CreateVideo(context.Background(), usecase.CreateVideoInput{
		VideoAttributes: usecase.VideoAttributes{
			Title:       &title,
			Description: "d",
			LaunchedAt:  2007,
			Rating:      "16",
		},
		Resources: usecase.VideoResources{Video: &raw},
	})
	if err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}
	return out.ID
}

func TestEncoderResultHandler_PublishedEventRoundTrip(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}
	videos := memory.NewVideoRepository(publisher)
	svc := newTestService(t, videos)

	id := createVideoWithRaw(t, svc, model.NewResource([]byte("raw bytes"), "video/mp4", "raw.mp4"))
	event := publisher.last(t)
	if event.VideoID != id.String() {
		t.Fatalf("event VideoID = %s, want %s", event.VideoID, id)
	}

	handle := encoderResultHandler(svc)
	err := handle(ctx, repository.EncoderResult{
		Status:     "COMPLETED",
		VideoID:    event.VideoID,
		ResourceID: event.ResourceID,
		Folder:     "encoded",
		FileName:   "raw.mpd",
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got, err := videos.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Video.ID != event.ResourceID {
		t.Errorf("media ID = %s, event ResourceID = %s", got.Video.ID, event.ResourceID)
	}
	if got.Video.Status != model.MediaStatusCompleted || got.Video.EncodedLocation != "encoded/raw.mpd" {
		t.Errorf("Video = %+v", got.Video)
	}
}

func TestEncoderResultHandler_ReuploadAfterError(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}
	videos := memory.NewVideoRepository(publisher)
	svc := newTestService(t, videos)
	handle := encoderResultHandler(svc)

	raw := model.NewResource([]byte("raw bytes"), "video/mp4", "raw.mp4")
	id := createVideoWithRaw(t, svc, raw)
	first := publisher.last(t)

	if err := handle(ctx, repository.EncoderResult{
		Status:     "ERROR",
		VideoID:    first.VideoID,
		ResourceID: first.ResourceID,
		Error:      "codec not supported",
	}); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if _, err := svc.UploadMedia(ctx, usecase.UploadMediaInput{
		VideoID:  id.String(),
		Type:     model.MediaTypeVideo,
		Resource: raw,
	}); err != nil {
		t.Fatalf("UploadMedia() error = %v", err)
	}
	if publisher.count() != 2 {
		t.Fatalf("published %d events, want 2", publisher.count())
	}
	second := publisher.last(t)
	if second.ResourceID == first.ResourceID {
		t.Error("re-upload must publish the new media ID")
	}

	if err := handle(ctx, repository.EncoderResult{
		Status:     "COMPLETED",
		VideoID:    second.VideoID,
		ResourceID: second.ResourceID,
		Folder:     "encoded",
		FileName:   "raw.mpd",
	}); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got, err := videos.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Video.Status != model.MediaStatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", got.Video.Status)
	}
}
