package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported backend drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverMinIO    = "minio"
	DriverS3       = "s3"
	DriverRabbitMQ = "rabbitmq"
	DriverNATS     = "nats"
	DriverNone     = "none"
)

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Worker   WorkerConfig
	Database DatabaseConfig
	Memory   MemoryConfig
	Storage  StorageConfig
	MinIO    MinIOConfig
	S3       S3Config
	Redis    RedisConfig
	Events   EventsConfig
	RabbitMQ RabbitMQConfig
	NATS     NATSConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadSize   int64         `envconfig:"API_MAX_UPLOAD_SIZE" default:"104857600"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
	MetricsPort     int           `envconfig:"WORKER_METRICS_PORT" default:"9091"`
}

type DatabaseConfig struct {
	Driver   string `envconfig:"REPOSITORY_DRIVER" default:"postgres"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"catalog"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"catalog"`
	DBName   string `envconfig:"POSTGRES_DB" default:"catalog"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
	MinConns int32  `envconfig:"POSTGRES_MIN_CONNS" default:"2"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// MemoryConfig seeds the relation lookups of the in-memory repository driver.
type MemoryConfig struct {
	Categories  []string `envconfig:"MEMORY_CATEGORIES"`
	Genres      []string `envconfig:"MEMORY_GENRES"`
	CastMembers []string `envconfig:"MEMORY_CAST_MEMBERS"`
}

type StorageConfig struct {
	Driver string `envconfig:"STORAGE_DRIVER" default:"minio"`
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"videos"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type S3Config struct {
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"S3_BUCKET" default:"videos"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type EventsConfig struct {
	Driver string `envconfig:"EVENTS_DRIVER" default:"rabbitmq"`
}

type RabbitMQConfig struct {
	Host         string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port         int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User         string `envconfig:"RABBITMQ_USER" default:"guest"`
	Password     string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`
	VHost        string `envconfig:"RABBITMQ_VHOST" default:"/"`
	Exchange     string `envconfig:"RABBITMQ_EXCHANGE"`
	CreatedQueue string `envconfig:"RABBITMQ_CREATED_QUEUE" default:"video.created"`
	EncodedQueue string `envconfig:"RABBITMQ_ENCODED_QUEUE" default:"video.encoded"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type NATSConfig struct {
	URL     string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	Subject string `envconfig:"NATS_SUBJECT" default:"video.created"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver selections.
func (c *Config) Validate() error {
	var errs []error

	check := func(name, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("invalid %s %q (allowed: %s)", name, value, strings.Join(allowed, ", ")))
	}

	check("REPOSITORY_DRIVER", c.Database.Driver, DriverPostgres, DriverMemory)
	check("STORAGE_DRIVER", c.Storage.Driver, DriverMinIO, DriverS3, DriverMemory)
	check("EVENTS_DRIVER", c.Events.Driver, DriverRabbitMQ, DriverNATS, DriverNone)

	if c.Worker.MaxRetries < 0 {
		errs = append(errs, errors.New("WORKER_MAX_RETRIES must not be negative"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
