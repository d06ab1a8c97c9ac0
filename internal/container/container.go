// Package container builds the service graph selected by configuration.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/videocatalog/internal/config"
	"github.com/hszk-dev/videocatalog/internal/domain/model"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/cache"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/memory"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/postgres"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/queue"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/storage"
	"github.com/hszk-dev/videocatalog/internal/usecase"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Container holds the wired dependencies shared by the API and the worker.
type Container struct {
	Config  *config.Config
	Videos  usecase.VideoService
	Storage repository.ObjectStorage

	// Dependencies are the external systems in use, keyed by name.
	Dependencies map[string]Pinger

	publisher repository.EventPublisher
	rabbit    *queue.RabbitMQ
	closers   []func() error
}

// New connects to every backend chosen in cfg. On error, whatever was
// already opened is closed.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg, Dependencies: make(map[string]Pinger)}

	if err := c.build(ctx); err != nil {
		if closeErr := c.Close(); closeErr != nil {
			slog.Warn("failed to close partially built container", "error", closeErr)
		}
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context) error {
	publisher, err := c.newPublisher(ctx)
	if err != nil {
		return err
	}
	c.publisher = publisher

	videos, categories, genres, castMembers, err := c.newRepositories(ctx)
	if err != nil {
		return err
	}

	objects, err := c.newObjectStorage(ctx)
	if err != nil {
		return err
	}
	c.Storage = objects

	svc := usecase.NewVideoService(
		videos,
		categories,
		genres,
		castMembers,
		storage.NewMediaResourceRepository(objects),
	)

	if c.Config.Redis.Enabled {
		videoCache, err := c.newCache(ctx)
		if err != nil {
			return err
		}
		svc = usecase.NewCachedVideoService(svc, videoCache, usecase.CachedVideoServiceConfig{
			CacheTTL: c.Config.Redis.CacheTTL,
		})
	}

	c.Videos = svc
	return nil
}

func (c *Container) newPublisher(ctx context.Context) (repository.EventPublisher, error) {
	switch c.Config.Events.Driver {
	case config.DriverRabbitMQ:
		rabbit, err := c.dialRabbitMQ(ctx)
		if err != nil {
			return nil, err
		}
		c.rabbit = rabbit
		return rabbit, nil

	case config.DriverNATS:
		natsCfg := queue.DefaultNATSConfig(c.Config.NATS.URL)
		natsCfg.Subject = c.Config.NATS.Subject

		publisher, err := queue.NewNATSPublisher(natsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		c.register("nats", publisher, publisher.Close)
		slog.Info("connected to NATS", "subject", natsCfg.Subject)
		return publisher, nil

	default:
		slog.Warn("no event publisher configured, domain events will be dropped")
		return queue.NopPublisher{}, nil
	}
}

func (c *Container) dialRabbitMQ(ctx context.Context) (*queue.RabbitMQ, error) {
	rabbitCfg := queue.DefaultRabbitMQConfig(c.Config.RabbitMQ.URL())
	rabbitCfg.Exchange = c.Config.RabbitMQ.Exchange
	rabbitCfg.CreatedQueue = c.Config.RabbitMQ.CreatedQueue
	rabbitCfg.EncodedQueue = c.Config.RabbitMQ.EncodedQueue
	rabbitCfg.MaxRetries = c.Config.Worker.MaxRetries

	rabbit, err := queue.NewRabbitMQ(ctx, rabbitCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	c.register("rabbitmq", rabbit, rabbit.Close)
	slog.Info("connected to RabbitMQ")
	return rabbit, nil
}

func (c *Container) newRepositories(ctx context.Context) (
	repository.VideoRepository,
	repository.CategoryRepository,
	repository.GenreRepository,
	repository.CastMemberRepository,
	error,
) {
	if c.Config.Database.Driver == config.DriverMemory {
		seed := c.Config.Memory
		slog.Warn("using in-memory repositories, data is lost on restart")
		return memory.NewVideoRepository(c.publisher),
			memory.NewIDRepository(model.IDsFrom[model.CategoryID](seed.Categories)...),
			memory.NewIDRepository(model.IDsFrom[model.GenreID](seed.Genres)...),
			memory.NewIDRepository(model.IDsFrom[model.CastMemberID](seed.CastMembers)...),
			nil
	}

	pgCfg := postgres.DefaultClientConfig(c.Config.Database.DSN())
	pgCfg.MaxConns = c.Config.Database.MaxConns
	pgCfg.MinConns = c.Config.Database.MinConns

	pg, err := postgres.NewClient(ctx, pgCfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	c.register("postgres", pg, func() error {
		slog.Info("closing PostgreSQL pool", "stats", pg.Stats())
		pg.Close()
		return nil
	})
	slog.Info("connected to PostgreSQL")

	pool := pg.Pool()
	return postgres.NewVideoRepository(pool, c.publisher),
		postgres.NewCategoryRepository(pool),
		postgres.NewGenreRepository(pool),
		postgres.NewCastMemberRepository(pool),
		nil
}

func (c *Container) newObjectStorage(ctx context.Context) (repository.ObjectStorage, error) {
	switch c.Config.Storage.Driver {
	case config.DriverS3:
		s3Storage, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:          c.Config.S3.Region,
			Bucket:          c.Config.S3.Bucket,
			AccessKeyID:     c.Config.S3.AccessKeyID,
			SecretAccessKey: c.Config.S3.SecretAccessKey,
			Endpoint:        c.Config.S3.Endpoint,
			UsePathStyle:    c.Config.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to S3: %w", err)
		}
		c.register("s3", s3Storage, nil)
		slog.Info("connected to S3", "bucket", c.Config.S3.Bucket)
		return s3Storage, nil

	case config.DriverMemory:
		slog.Warn("using in-memory object storage, media is lost on restart")
		return memory.NewObjectStorage(), nil

	default:
		minioStorage, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:       c.Config.MinIO.Endpoint,
			PublicEndpoint: c.Config.MinIO.PublicEndpoint,
			AccessKey:      c.Config.MinIO.AccessKey,
			SecretKey:      c.Config.MinIO.SecretKey,
			Bucket:         c.Config.MinIO.Bucket,
			UseSSL:         c.Config.MinIO.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		c.register("minio", minioStorage, nil)
		slog.Info("connected to MinIO", "bucket", c.Config.MinIO.Bucket)
		return minioStorage, nil
	}
}

func (c *Container) newCache(ctx context.Context) (cache.VideoCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	videoCache := cache.NewRedisVideoCache(client)
	c.register("redis", videoCache, client.Close)
	slog.Info("connected to Redis")
	return videoCache, nil
}

// EncoderResults returns the RabbitMQ consumer of encoder results, dialing a
// dedicated connection when events are published through another driver.
func (c *Container) EncoderResults(ctx context.Context) (repository.EncoderResultConsumer, error) {
	if c.rabbit != nil {
		return c.rabbit, nil
	}
	rabbit, err := c.dialRabbitMQ(ctx)
	if err != nil {
		return nil, err
	}
	c.rabbit = rabbit
	return rabbit, nil
}

func (c *Container) register(name string, p Pinger, closer func() error) {
	if p != nil {
		c.Dependencies[name] = p
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
}

// Close releases every connection in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
