package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
)

// recordingPublisher collects sent events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.DomainEvent
	err    error
}

func (p *recordingPublisher) Send(_ context.Context, event model.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func strPtr(s string) *string { return &s }

// newTestVideo returns a video with one category and a pending main media.
func newTestVideo(t *testing.T) *model.Video {
	t.Helper()

	video := model.NewVideo(model.VideoFields{
		Title:       strPtr("Narcos"),
		Description: "Cartel drama",
		LaunchedAt:  2015,
		Duration:    50,
		Published:   true,
		Rating:      model.RatingAge16,
		Categories:  []model.CategoryID{"c1"},
	})
	media, err := model.NewAudioVideoMedia("abc", "narcos.mp4", "videoId-"+video.ID.String()+"/type-VIDEO")
	if err != nil {
		t.Fatalf("failed to build media: %v", err)
	}
	return video.SetVideo(media)
}

func expectInsertAssociations(mock pgxmock.PgxPoolIface, video *model.Video) {
	mock.ExpectExec("INSERT INTO videos_categories").
		WithArgs(video.ID.String(), []string{"c1"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO videos_video_media").
		WithArgs(
			video.Video.ID,
			video.ID.String(),
			"VIDEO",
			"abc",
			"narcos.mp4",
			video.Video.RawLocation,
			pgxmock.AnyArg(),
			"PENDING",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestVideoRepository_Create(t *testing.T) {
	tests := []struct {
		name       string
		publishErr error
		mockFn     func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantErr    error
		wantEvents int
	}{
		{
			name: "successful creation",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO videos \\(").
					WithArgs(
						video.ID.String(),
						"Narcos",
						pgxmock.AnyArg(),
						2015,
						float64(50),
						false,
						true,
						pgxmock.AnyArg(),
						int64(0),
						pgxmock.AnyArg(),
						pgxmock.AnyArg(),
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				expectInsertAssociations(mock, video)
				mock.ExpectCommit()
			},
			wantEvents: 1,
		},
		{
			name:       "publisher failure does not fail the write",
			publishErr: errors.New("broker down"),
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO videos \\(").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				expectInsertAssociations(mock, video)
				mock.ExpectCommit()
			},
		},
		{
			name: "duplicate video error",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO videos \\(").
					WillReturnError(&pgconn.PgError{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr: repository.ErrDuplicateVideo,
		},
		{
			name: "relation insert fails",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO videos \\(").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("INSERT INTO videos_categories").
					WillReturnError(errors.New("connection refused"))
				mock.ExpectRollback()
			},
			wantErr: errors.New("failed to insert videos_categories"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			video := newTestVideo(t)
			tt.mockFn(mock, video)

			publisher := &recordingPublisher{err: tt.publishErr}
			repo := NewVideoRepository(mock, publisher)
			got, err := repo.Create(context.Background(), video)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("Create() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) && !containsError(err, tt.wantErr) {
					t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				}
				if publisher.sent() != 0 {
					t.Errorf("events published on failed write: %d", publisher.sent())
				}
				return
			}

			if err != nil {
				t.Fatalf("Create() unexpected error = %v", err)
			}
			if got != video {
				t.Errorf("Create() returned a different video")
			}
			if publisher.sent() != tt.wantEvents {
				t.Errorf("published %d events, want %d", publisher.sent(), tt.wantEvents)
			}
			if n := len(video.DomainEvents()); n != 0 {
				t.Errorf("pending events after create = %d, want 0", n)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_Update(t *testing.T) {
	expectClear := func(mock pgxmock.PgxPoolIface, id string) {
		for _, table := range []string{
			"videos_categories",
			"videos_genres",
			"videos_cast_members",
			"videos_video_media",
			"videos_image_media",
		} {
			mock.ExpectExec("DELETE FROM " + table + " WHERE video_id").
				WithArgs(id).
				WillReturnResult(pgxmock.NewResult("DELETE", 1))
		}
	}

	tests := []struct {
		name        string
		mockFn      func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantErr     error
		wantVersion int64
	}{
		{
			name: "successful update bumps version",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE videos").
					WithArgs(
						video.ID.String(),
						"Narcos",
						pgxmock.AnyArg(),
						2015,
						float64(50),
						false,
						true,
						pgxmock.AnyArg(),
						pgxmock.AnyArg(),
						int64(3),
					).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				expectClear(mock, video.ID.String())
				expectInsertAssociations(mock, video)
				mock.ExpectCommit()
			},
			wantVersion: 4,
		},
		{
			name: "stale version",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE videos").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(video.ID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			wantErr:     repository.ErrConcurrentUpdate,
			wantVersion: 3,
		},
		{
			name: "row deleted",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE videos").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(video.ID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectRollback()
			},
			wantErr:     repository.ErrVideoNotFound,
			wantVersion: 3,
		},
		{
			name: "begin fails",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))
			},
			wantErr:     errors.New("failed to begin transaction"),
			wantVersion: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			video := newTestVideo(t)
			video.Version = 3
			tt.mockFn(mock, video)

			publisher := &recordingPublisher{}
			repo := NewVideoRepository(mock, publisher)
			_, err = repo.Update(context.Background(), video)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) && !containsError(err, tt.wantErr) {
					t.Errorf("Update() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Update() unexpected error = %v", err)
			}

			if video.Version != tt.wantVersion {
				t.Errorf("Version = %d, want %d", video.Version, tt.wantVersion)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_DeleteByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM videos WHERE id").
		WithArgs("abc").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewVideoRepository(mock, &recordingPublisher{})
	if err := repo.DeleteByID(context.Background(), "abc"); err != nil {
		t.Errorf("DeleteByID() unexpected error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestVideoRepository_FindByID(t *testing.T) {
	now := time.Now()
	videoColumns := []string{
		"id", "title", "description", "year_launched", "duration", "opened", "published",
		"rating", "version", "created_at", "updated_at", "categories", "genres", "cast_members",
	}

	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface)
		check   func(t *testing.T, v *model.Video)
		wantErr error
	}{
		{
			name: "successful retrieval with media",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos v WHERE v.id").
					WithArgs("v1").
					WillReturnRows(pgxmock.NewRows(videoColumns).AddRow(
						"v1", "Narcos", strPtr("Cartel drama"), 2015, float64(50), false, true,
						strPtr("16"), int64(2), now, now,
						[]string{"c1", "c2"}, []string{"g1"}, []string{},
					))
				mock.ExpectQuery("FROM videos_video_media").
					WithArgs("v1").
					WillReturnRows(pgxmock.NewRows([]string{
						"id", "media_type", "checksum", "name", "file_path", "encoded_path", "media_status",
					}).AddRow(
						"m1", "VIDEO", "abc", "narcos.mp4", "videoId-v1/type-VIDEO", strPtr("encoded/narcos.mpd"), "COMPLETED",
					).AddRow(
						"m2", "TRAILER", "def", "trailer.mp4", "videoId-v1/type-TRAILER", nil, "PENDING",
					))
				mock.ExpectQuery("FROM videos_image_media").
					WithArgs("v1").
					WillReturnRows(pgxmock.NewRows([]string{
						"id", "media_type", "checksum", "name", "file_path",
					}).AddRow(
						"i1", "BANNER", "ghi", "banner.png", "videoId-v1/type-BANNER",
					))
			},
			check: func(t *testing.T, v *model.Video) {
				if v.ID != "v1" || v.Title == nil || *v.Title != "Narcos" {
					t.Errorf("unexpected identity: %+v", v)
				}
				if v.Rating != model.RatingAge16 || v.Version != 2 {
					t.Errorf("Rating = %q, Version = %d", v.Rating, v.Version)
				}
				if v.Categories.Len() != 2 || !v.Genres.Contains("g1") || !v.CastMembers.IsEmpty() {
					t.Errorf("unexpected relations: %v %v %v", v.Categories.Values(), v.Genres.Values(), v.CastMembers.Values())
				}
				if v.Video == nil || v.Video.Status != model.MediaStatusCompleted || v.Video.EncodedLocation != "encoded/narcos.mpd" {
					t.Errorf("unexpected video media: %+v", v.Video)
				}
				if v.Trailer == nil || v.Trailer.EncodedLocation != "" {
					t.Errorf("unexpected trailer media: %+v", v.Trailer)
				}
				if v.Banner == nil || v.Banner.Location != "videoId-v1/type-BANNER" {
					t.Errorf("unexpected banner: %+v", v.Banner)
				}
				if v.Thumbnail != nil || v.ThumbnailHalf != nil {
					t.Errorf("thumbnails should be empty")
				}
				if len(v.DomainEvents()) != 0 {
					t.Errorf("rehydration must not raise events")
				}
			},
		},
		{
			name: "video not found",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos v WHERE v.id").
					WithArgs("v1").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: repository.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			repo := NewVideoRepository(mock, &recordingPublisher{})
			got, err := repo.FindByID(context.Background(), "v1")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FindByID() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("FindByID() unexpected error = %v", err)
			}
			tt.check(t, got)

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_FindAll(t *testing.T) {
	now := time.Now()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM videos v WHERE v.title ILIKE \\$1 AND EXISTS").
		WithArgs("%narc%", []string{"c1"}).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery("ORDER BY v.title DESC, v.id LIMIT \\$3 OFFSET \\$4").
		WithArgs("%narc%", []string{"c1"}, 2, 2).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "description", "created_at", "updated_at",
		}).AddRow("v3", "Narcos Mexico", nil, now, now))

	repo := NewVideoRepository(mock, &recordingPublisher{})
	got, err := repo.FindAll(context.Background(), model.VideoSearchQuery{
		Page:       1,
		PerPage:    2,
		Terms:      " narc ",
		Sort:       "title",
		Direction:  "DESC",
		Categories: model.NewIDSet[model.CategoryID]("c1"),
	})
	if err != nil {
		t.Fatalf("FindAll() unexpected error = %v", err)
	}

	if got.Total != 3 || got.CurrentPage != 1 || got.PerPage != 2 {
		t.Errorf("unexpected page metadata: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "v3" || got.Items[0].Description != "" {
		t.Errorf("unexpected items: %+v", got.Items)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestBuildVideoFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     model.VideoSearchQuery
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "no filters",
			query:     model.VideoSearchQuery{Terms: "   "},
			wantWhere: "",
			wantArgs:  0,
		},
		{
			name: "genres and cast members",
			query: model.VideoSearchQuery{
				Genres:      model.NewIDSet[model.GenreID]("g1", "g2"),
				CastMembers: model.NewIDSet[model.CastMemberID]("m1"),
			},
			wantWhere: " WHERE EXISTS (SELECT 1 FROM videos_genres r WHERE r.video_id = v.id AND r.genre_id = ANY($1))" +
				" AND EXISTS (SELECT 1 FROM videos_cast_members r WHERE r.video_id = v.id AND r.cast_member_id = ANY($2))",
			wantArgs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildVideoFilter(tt.query)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"narcos", "%narcos%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}

	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategoryRepository_ExistsByIDs(t *testing.T) {
	t.Run("returns found subset", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		mock.ExpectQuery("SELECT id FROM categories WHERE id = ANY").
			WithArgs([]string{"c1", "c2"}).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c1"))

		repo := NewCategoryRepository(mock)
		got, err := repo.ExistsByIDs(context.Background(), []model.CategoryID{"c1", "c2"})
		if err != nil {
			t.Fatalf("ExistsByIDs() unexpected error = %v", err)
		}
		if len(got) != 1 || got[0] != "c1" {
			t.Errorf("ExistsByIDs() = %v, want [c1]", got)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		got, err := NewGenreRepository(mock).ExistsByIDs(context.Background(), nil)
		if err != nil || len(got) != 0 {
			t.Errorf("ExistsByIDs() = %v, %v", got, err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		mock.ExpectQuery("SELECT id FROM cast_members").
			WillReturnError(errors.New("connection refused"))

		_, err = NewCastMemberRepository(mock).ExistsByIDs(context.Background(), []model.CastMemberID{"m1"})
		if !containsError(err, errors.New("failed to query cast_members")) {
			t.Errorf("ExistsByIDs() error = %v", err)
		}
	})
}

// containsError checks if err's message starts with the expected error's message.
func containsError(err, expected error) bool {
	if err == nil || expected == nil {
		return false
	}
	return len(err.Error()) >= len(expected.Error()) &&
		err.Error()[:len(expected.Error())] == expected.Error()
}
