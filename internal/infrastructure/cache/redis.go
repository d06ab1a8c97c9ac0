package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
)

const (
	// videoCacheKeyPrefix is the prefix for video cache keys in Redis.
	videoCacheKeyPrefix = "video:"
)

// videoJSON is the JSON representation of a Video for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type videoJSON struct {
	ID            string          `json:"id"`
	Title         *string         `json:"title"`
	Description   string          `json:"description"`
	LaunchedAt    int             `json:"launched_at"`
	Duration      float64         `json:"duration"`
	Opened        bool            `json:"opened"`
	Published     bool            `json:"published"`
	Rating        string          `json:"rating,omitempty"`
	Categories    []string        `json:"categories"`
	Genres        []string        `json:"genres"`
	CastMembers   []string        `json:"cast_members"`
	Video         *audioVideoJSON `json:"video,omitempty"`
	Trailer       *audioVideoJSON `json:"trailer,omitempty"`
	Banner        *imageJSON      `json:"banner,omitempty"`
	Thumbnail     *imageJSON      `json:"thumbnail,omitempty"`
	ThumbnailHalf *imageJSON      `json:"thumbnail_half,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

type audioVideoJSON struct {
	ID              string `json:"id"`
	Checksum        string `json:"checksum"`
	Name            string `json:"name"`
	RawLocation     string `json:"raw_location"`
	EncodedLocation string `json:"encoded_location"`
	Status          string `json:"status"`
}

type imageJSON struct {
	ID       string `json:"id"`
	Checksum string `json:"checksum"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// RedisVideoCache implements VideoCache using Redis as the backing store.
type RedisVideoCache struct {
	client *redis.Client
}

var _ VideoCache = (*RedisVideoCache)(nil)

// NewRedisVideoCache creates a new Redis-backed video cache.
func NewRedisVideoCache(client *redis.Client) *RedisVideoCache {
	return &RedisVideoCache{
		client: client,
	}
}

// Get retrieves a video from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisVideoCache) Get(ctx context.Context, videoID model.VideoID) (*model.Video, error) {
	key := c.buildKey(videoID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			recordCacheOp(metrics.CacheOpGet, metrics.CacheStatusMiss)
			return nil, nil
		}
		recordCacheOp(metrics.CacheOpGet, metrics.CacheStatusError)
		return nil, fmt.Errorf("redis get: %w", err)
	}

	video, err := c.deserialize(data)
	if err != nil {
		recordCacheOp(metrics.CacheOpGet, metrics.CacheStatusError)
		return nil, fmt.Errorf("deserialize video: %w", err)
	}

	recordCacheOp(metrics.CacheOpGet, metrics.CacheStatusHit)
	return video, nil
}

// Set stores a video in Redis cache with the specified TTL.
func (c *RedisVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	key := c.buildKey(video.ID)

	data, err := c.serialize(video)
	if err != nil {
		recordCacheOp(metrics.CacheOpSet, metrics.CacheStatusError)
		return fmt.Errorf("serialize video: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		recordCacheOp(metrics.CacheOpSet, metrics.CacheStatusError)
		return fmt.Errorf("redis set: %w", err)
	}

	recordCacheOp(metrics.CacheOpSet, metrics.CacheStatusSuccess)
	return nil
}

// Delete removes a video from Redis cache.
func (c *RedisVideoCache) Delete(ctx context.Context, videoID model.VideoID) error {
	key := c.buildKey(videoID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		recordCacheOp(metrics.CacheOpDelete, metrics.CacheStatusError)
		return fmt.Errorf("redis del: %w", err)
	}

	recordCacheOp(metrics.CacheOpDelete, metrics.CacheStatusSuccess)
	return nil
}

// Ping checks connectivity to Redis.
func (c *RedisVideoCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func recordCacheOp(op, status string) {
	metrics.CacheOperationsTotal.WithLabelValues(op, status, metrics.CacheTypeRedis).Inc()
}

// buildKey constructs the Redis key for a video.
func (c *RedisVideoCache) buildKey(videoID model.VideoID) string {
	return videoCacheKeyPrefix + videoID.String()
}

// serialize converts a Video to JSON bytes.
func (c *RedisVideoCache) serialize(video *model.Video) ([]byte, error) {
	v := videoJSON{
		ID:            video.ID.String(),
		Title:         video.Title,
		Description:   video.Description,
		LaunchedAt:    video.LaunchedAt,
		Duration:      video.Duration,
		Opened:        video.Opened,
		Published:     video.Published,
		Rating:        string(video.Rating),
		Categories:    model.IDStrings(video.Categories.Values()),
		Genres:        model.IDStrings(video.Genres.Values()),
		CastMembers:   model.IDStrings(video.CastMembers.Values()),
		Video:         toAudioVideoJSON(video.Video),
		Trailer:       toAudioVideoJSON(video.Trailer),
		Banner:        toImageJSON(video.Banner),
		Thumbnail:     toImageJSON(video.Thumbnail),
		ThumbnailHalf: toImageJSON(video.ThumbnailHalf),
		Version:       video.Version,
		CreatedAt:     video.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     video.UpdatedAt.Format(time.RFC3339Nano),
	}
	return json.Marshal(v)
}

// deserialize converts JSON bytes to a Video. No domain events are raised.
func (c *RedisVideoCache) deserialize(data []byte) (*model.Video, error) {
	var v videoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	if v.ID == "" {
		return nil, errors.New("missing video ID")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	video := &model.Video{
		ID:          model.VideoID(v.ID),
		Title:       v.Title,
		Description: v.Description,
		LaunchedAt:  v.LaunchedAt,
		Duration:    v.Duration,
		Opened:      v.Opened,
		Published:   v.Published,
		Rating:      model.Rating(v.Rating),
		Categories:  model.NewIDSet(model.IDsFrom[model.CategoryID](v.Categories)...),
		Genres:      model.NewIDSet(model.IDsFrom[model.GenreID](v.Genres)...),
		CastMembers: model.NewIDSet(model.IDsFrom[model.CastMemberID](v.CastMembers)...),
		Version:     v.Version,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}

	if video.Video, err = fromAudioVideoJSON(v.Video); err != nil {
		return nil, fmt.Errorf("parse video media: %w", err)
	}
	if video.Trailer, err = fromAudioVideoJSON(v.Trailer); err != nil {
		return nil, fmt.Errorf("parse trailer media: %w", err)
	}
	video.Banner = fromImageJSON(v.Banner)
	video.Thumbnail = fromImageJSON(v.Thumbnail)
	video.ThumbnailHalf = fromImageJSON(v.ThumbnailHalf)

	return video, nil
}

func toAudioVideoJSON(m *model.AudioVideoMedia) *audioVideoJSON {
	if m == nil {
		return nil
	}
	return &audioVideoJSON{
		ID:              m.ID,
		Checksum:        m.Checksum,
		Name:            m.Name,
		RawLocation:     m.RawLocation,
		EncodedLocation: m.EncodedLocation,
		Status:          m.Status.String(),
	}
}

func fromAudioVideoJSON(m *audioVideoJSON) (*model.AudioVideoMedia, error) {
	if m == nil {
		return nil, nil
	}
	status, ok := model.ParseMediaStatus(m.Status)
	if !ok {
		return nil, fmt.Errorf("unknown media status %q", m.Status)
	}
	return &model.AudioVideoMedia{
		ID:              m.ID,
		Checksum:        m.Checksum,
		Name:            m.Name,
		RawLocation:     m.RawLocation,
		EncodedLocation: m.EncodedLocation,
		Status:          status,
	}, nil
}

func toImageJSON(m *model.ImageMedia) *imageJSON {
	if m == nil {
		return nil
	}
	return &imageJSON{ID: m.ID, Checksum: m.Checksum, Name: m.Name, Location: m.Location}
}

func fromImageJSON(m *imageJSON) *model.ImageMedia {
	if m == nil {
		return nil
	}
	return &model.ImageMedia{ID: m.ID, Checksum: m.Checksum, Name: m.Name, Location: m.Location}
}
