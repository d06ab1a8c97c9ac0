package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
)

// relationTables maps each relation table to its foreign key column.
var relationTables = []struct {
	table  string
	column string
}{
	{metrics.TableVideoCategories, "category_id"},
	{metrics.TableVideoGenres, "genre_id"},
	{metrics.TableVideoCastMembers, "cast_member_id"},
}

// sortColumns whitelists the ORDER BY expressions accepted by FindAll.
var sortColumns = map[string]string{
	model.SortByTitle:      "v.title",
	model.SortByCreatedAt:  "v.created_at",
	model.SortByUpdatedAt:  "v.updated_at",
	model.SortByLaunchedAt: "v.year_launched",
	model.SortByDuration:   "v.duration",
}

// VideoRepository implements repository.VideoRepository using PostgreSQL.
// Pending domain events are handed to the publisher once the transaction commits.
type VideoRepository struct {
	db        DB
	publisher repository.EventPublisher
}

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DB, publisher repository.EventPublisher) *VideoRepository {
	return &VideoRepository{db: db, publisher: publisher}
}

// Create persists a new video with its relations and media in one transaction.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) (*model.Video, error) {
	const query = `
		INSERT INTO videos (id, title, description, year_launched, duration, opened, published, rating, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	err := WithTx(ctx, r.db, func(tx DBTX) error {
		_, err := tx.Exec(ctx, query,
			video.ID.String(),
			titleOf(video),
			nullString(video.Description),
			video.LaunchedAt,
			video.Duration,
			video.Opened,
			video.Published,
			nullString(video.Rating.String()),
			video.Version,
			video.CreatedAt,
			video.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return repository.ErrDuplicateVideo
			}
			return fmt.Errorf("failed to create video: %w", err)
		}
		metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableVideos).Inc()

		return r.insertAssociations(ctx, tx, video)
	})
	if err != nil {
		return nil, err
	}

	r.publishEvents(ctx, video)
	return video, nil
}

// Update persists changes to an existing video, guarded by its version.
// Relations and media rows are rewritten.
func (r *VideoRepository) Update(ctx context.Context, video *model.Video) (*model.Video, error) {
	const query = `
		UPDATE videos
		SET title = $2, description = $3, year_launched = $4, duration = $5, opened = $6,
			published = $7, rating = $8, updated_at = $9, version = version + 1
		WHERE id = $1 AND version = $10
	`

	err := WithTx(ctx, r.db, func(tx DBTX) error {
		tag, err := tx.Exec(ctx, query,
			video.ID.String(),
			titleOf(video),
			nullString(video.Description),
			video.LaunchedAt,
			video.Duration,
			video.Opened,
			video.Published,
			nullString(video.Rating.String()),
			video.UpdatedAt,
			video.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update video: %w", err)
		}
		metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryUpdate, metrics.TableVideos).Inc()

		if tag.RowsAffected() == 0 {
			return r.missingOrStale(ctx, tx, video.ID)
		}

		if err := r.deleteAssociations(ctx, tx, video.ID); err != nil {
			return err
		}
		return r.insertAssociations(ctx, tx, video)
	})
	if err != nil {
		return nil, err
	}

	video.Version++
	r.publishEvents(ctx, video)
	return video, nil
}

// DeleteByID removes a video. Relation and media rows cascade.
func (r *VideoRepository) DeleteByID(ctx context.Context, id model.VideoID) error {
	const query = `DELETE FROM videos WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id.String()); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryDelete, metrics.TableVideos).Inc()

	return nil
}

// FindByID retrieves a video with its relations and media.
func (r *VideoRepository) FindByID(ctx context.Context, id model.VideoID) (*model.Video, error) {
	const query = `
		SELECT v.id, v.title, v.description, v.year_launched, v.duration, v.opened, v.published,
			v.rating, v.version, v.created_at, v.updated_at,
			ARRAY(SELECT category_id FROM videos_categories WHERE video_id = v.id ORDER BY category_id),
			ARRAY(SELECT genre_id FROM videos_genres WHERE video_id = v.id ORDER BY genre_id),
			ARRAY(SELECT cast_member_id FROM videos_cast_members WHERE video_id = v.id ORDER BY cast_member_id)
		FROM videos v
		WHERE v.id = $1
	`

	video, err := r.scanVideo(r.db.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableVideos).Inc()

	if err := r.loadAudioVideoMedia(ctx, video); err != nil {
		return nil, err
	}
	if err := r.loadImageMedia(ctx, video); err != nil {
		return nil, err
	}

	return video, nil
}

// FindAll returns one page of video previews matching the query.
// Total is counted with the same filter before LIMIT/OFFSET are applied.
func (r *VideoRepository) FindAll(ctx context.Context, q model.VideoSearchQuery) (*model.Pagination[model.VideoPreview], error) {
	where, args := buildVideoFilter(q)

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM videos v"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT v.id, v.title, v.description, v.created_at, v.updated_at FROM videos v%s ORDER BY %s %s, v.id LIMIT $%d OFFSET $%d",
		where,
		sortColumns[q.SortColumn()],
		strings.ToUpper(q.SortDirection()),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, max(q.PerPage, 0), q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableVideos).Inc()

	items := make([]model.VideoPreview, 0)
	for rows.Next() {
		var (
			p           model.VideoPreview
			id          string
			description *string
		)
		if err := rows.Scan(&id, &p.Title, &description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video preview: %w", err)
		}
		p.ID = model.VideoID(id)
		if description != nil {
			p.Description = *description
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return &model.Pagination[model.VideoPreview]{
		CurrentPage: q.Page,
		PerPage:     q.PerPage,
		Total:       total,
		Items:       items,
	}, nil
}

// buildVideoFilter returns the WHERE clause and its positional arguments.
// Relation filters become EXISTS sub-selects so that a video matches when it
// shares at least one ID with each non-empty filter.
func buildVideoFilter(q model.VideoSearchQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if terms := q.NormalizedTerms(); terms != "" {
		args = append(args, likePattern(terms))
		conds = append(conds, fmt.Sprintf("v.title ILIKE $%d", len(args)))
	}

	filters := []struct {
		table  string
		column string
		ids    []string
	}{
		{metrics.TableVideoCategories, "category_id", model.IDStrings(q.Categories.Values())},
		{metrics.TableVideoGenres, "genre_id", model.IDStrings(q.Genres.Values())},
		{metrics.TableVideoCastMembers, "cast_member_id", model.IDStrings(q.CastMembers.Values())},
	}
	for _, f := range filters {
		if len(f.ids) == 0 {
			continue
		}
		args = append(args, f.ids)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s r WHERE r.video_id = v.id AND r.%s = ANY($%d))",
			f.table, f.column, len(args),
		))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// likePattern escapes LIKE wildcards in terms and wraps it for a substring match.
func likePattern(terms string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(terms) + "%"
}

// missingOrStale tells a deleted row apart from a version conflict.
func (r *VideoRepository) missingOrStale(ctx context.Context, tx DBTX, id model.VideoID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id.String()).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check video existence: %w", err)
	}
	if exists {
		return repository.ErrConcurrentUpdate
	}
	return repository.ErrVideoNotFound
}

func (r *VideoRepository) deleteAssociations(ctx context.Context, tx DBTX, id model.VideoID) error {
	tables := []string{
		metrics.TableVideoCategories,
		metrics.TableVideoGenres,
		metrics.TableVideoCastMembers,
		metrics.TableVideoMedia,
		metrics.TableImageMedia,
	}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE video_id = $1", id.String()); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryDelete, table).Inc()
	}
	return nil
}

func (r *VideoRepository) insertAssociations(ctx context.Context, tx DBTX, video *model.Video) error {
	relations := [][]string{
		model.IDStrings(video.Categories.Values()),
		model.IDStrings(video.Genres.Values()),
		model.IDStrings(video.CastMembers.Values()),
	}
	for i, rel := range relationTables {
		ids := relations[i]
		if len(ids) == 0 {
			continue
		}
		query := fmt.Sprintf("INSERT INTO %s (video_id, %s) SELECT $1, unnest($2::text[])", rel.table, rel.column)
		if _, err := tx.Exec(ctx, query, video.ID.String(), ids); err != nil {
			return fmt.Errorf("failed to insert %s: %w", rel.table, err)
		}
		metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, rel.table).Inc()
	}

	for _, t := range []model.MediaType{model.MediaTypeVideo, model.MediaTypeTrailer} {
		if m := video.AudioVideo(t); m != nil {
			if err := insertAudioVideoMedia(ctx, tx, video.ID, t, m); err != nil {
				return err
			}
		}
	}

	images := []struct {
		mediaType model.MediaType
		media     *model.ImageMedia
	}{
		{model.MediaTypeBanner, video.Banner},
		{model.MediaTypeThumbnail, video.Thumbnail},
		{model.MediaTypeThumbnailHalf, video.ThumbnailHalf},
	}
	for _, img := range images {
		if img.media == nil {
			continue
		}
		if err := insertImageMedia(ctx, tx, video.ID, img.mediaType, img.media); err != nil {
			return err
		}
	}

	return nil
}

func insertAudioVideoMedia(ctx context.Context, tx DBTX, id model.VideoID, t model.MediaType, m *model.AudioVideoMedia) error {
	const query = `
		INSERT INTO videos_video_media (id, video_id, media_type, checksum, name, file_path, encoded_path, media_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		m.ID,
		id.String(),
		t.String(),
		m.Checksum,
		m.Name,
		m.RawLocation,
		nullString(m.EncodedLocation),
		m.Status.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s media: %w", t, err)
	}
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableVideoMedia).Inc()
	return nil
}

func insertImageMedia(ctx context.Context, tx DBTX, id model.VideoID, t model.MediaType, m *model.ImageMedia) error {
	const query = `
		INSERT INTO videos_image_media (id, video_id, media_type, checksum, name, file_path)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := tx.Exec(ctx, query, m.ID, id.String(), t.String(), m.Checksum, m.Name, m.Location); err != nil {
		return fmt.Errorf("failed to insert %s media: %w", t, err)
	}
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableImageMedia).Inc()
	return nil
}

func (r *VideoRepository) loadAudioVideoMedia(ctx context.Context, video *model.Video) error {
	const query = `
		SELECT id, media_type, checksum, name, file_path, encoded_path, media_status
		FROM videos_video_media
		WHERE video_id = $1
	`

	rows, err := r.db.Query(ctx, query, video.ID.String())
	if err != nil {
		return fmt.Errorf("failed to query video media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, mediaType, checksum, name, rawLocation, status string
			encoded                                            *string
		)
		if err := rows.Scan(&id, &mediaType, &checksum, &name, &rawLocation, &encoded, &status); err != nil {
			return fmt.Errorf("failed to scan video media: %w", err)
		}

		var encodedLocation string
		if encoded != nil {
			encodedLocation = *encoded
		}
		m, err := model.AudioVideoMediaWith(id, checksum, name, rawLocation, encodedLocation, model.MediaStatus(status))
		if err != nil {
			return fmt.Errorf("invalid video media %s: %w", id, err)
		}

		switch model.MediaType(mediaType) {
		case model.MediaTypeVideo:
			video.Video = m
		case model.MediaTypeTrailer:
			video.Trailer = m
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating video media: %w", err)
	}
	return nil
}

func (r *VideoRepository) loadImageMedia(ctx context.Context, video *model.Video) error {
	const query = `
		SELECT id, media_type, checksum, name, file_path
		FROM videos_image_media
		WHERE video_id = $1
	`

	rows, err := r.db.Query(ctx, query, video.ID.String())
	if err != nil {
		return fmt.Errorf("failed to query image media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, mediaType, checksum, name, location string
		if err := rows.Scan(&id, &mediaType, &checksum, &name, &location); err != nil {
			return fmt.Errorf("failed to scan image media: %w", err)
		}

		m, err := model.ImageMediaWith(id, checksum, name, location)
		if err != nil {
			return fmt.Errorf("invalid image media %s: %w", id, err)
		}

		switch model.MediaType(mediaType) {
		case model.MediaTypeBanner:
			video.Banner = m
		case model.MediaTypeThumbnail:
			video.Thumbnail = m
		case model.MediaTypeThumbnailHalf:
			video.ThumbnailHalf = m
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating image media: %w", err)
	}
	return nil
}

// scanVideo scans a single row into a Video model.
func (r *VideoRepository) scanVideo(row pgx.Row) (*model.Video, error) {
	var (
		video                          model.Video
		id, title                      string
		description, rating            *string
		categories, genres, castMember []string
	)

	err := row.Scan(
		&id,
		&title,
		&description,
		&video.LaunchedAt,
		&video.Duration,
		&video.Opened,
		&video.Published,
		&rating,
		&video.Version,
		&video.CreatedAt,
		&video.UpdatedAt,
		&categories,
		&genres,
		&castMember,
	)
	if err != nil {
		return nil, err
	}

	video.ID = model.VideoID(id)
	video.Title = &title
	if description != nil {
		video.Description = *description
	}
	if rating != nil {
		video.Rating, _ = model.ParseRating(*rating)
	}
	video.Categories = model.NewIDSet(model.IDsFrom[model.CategoryID](categories)...)
	video.Genres = model.NewIDSet(model.IDsFrom[model.GenreID](genres)...)
	video.CastMembers = model.NewIDSet(model.IDsFrom[model.CastMemberID](castMember)...)

	return &video, nil
}

// publishEvents drains the pending events and sends each one.
// Failures are logged and counted; the events are not retried.
func (r *VideoRepository) publishEvents(ctx context.Context, video *model.Video) {
	for _, event := range video.PullDomainEvents() {
		if err := r.publisher.Send(ctx, event); err != nil {
			metrics.EventsPublishedTotal.WithLabelValues(event.EventType(), metrics.StatusError).Inc()
			slog.Error("failed to publish domain event",
				"video_id", video.ID,
				"event_type", event.EventType(),
				"error", err,
			)
			continue
		}
		metrics.EventsPublishedTotal.WithLabelValues(event.EventType(), metrics.StatusSuccess).Inc()
	}
}

func titleOf(video *model.Video) string {
	if video.Title == nil {
		return ""
	}
	return *video.Title
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)
