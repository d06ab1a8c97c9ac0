// Package storage implements object storage backends and the media resource
// repository built on top of them.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
)

const driverMinio = "minio"

// objectReader abstracts minio.Object for testability.
// *minio.Object satisfies this interface.
type objectReader interface {
	io.ReadCloser
	Stat() (minio.ObjectInfo, error)
}

// minioAPI is the subset of *minio.Client used by MinioStorage.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (objectReader, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// minioAdapter wraps *minio.Client so that GetObject returns objectReader.
type minioAdapter struct {
	*minio.Client
}

func (a minioAdapter) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (objectReader, error) {
	return a.Client.GetObject(ctx, bucketName, objectName, opts)
}

// MinioConfig holds configuration for the MinIO backend.
type MinioConfig struct {
	Endpoint       string
	PublicEndpoint string // Optional: external-facing endpoint for presigned URLs
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// MinioStorage implements repository.ObjectStorage on MinIO.
type MinioStorage struct {
	api       minioAPI
	presigner minioAPI // may point at the public endpoint
	bucket    string
}

// NewMinioStorage connects to MinIO and verifies the bucket exists.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	newClient := func(endpoint string) (minioAPI, error) {
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
		}
		return minioAdapter{client}, nil
	}

	api, err := newClient(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	presigner := api
	if cfg.PublicEndpoint != "" {
		if presigner, err = newClient(cfg.PublicEndpoint); err != nil {
			return nil, err
		}
	}

	return newMinioStorage(ctx, api, presigner, cfg.Bucket)
}

func newMinioStorage(ctx context.Context, api, presigner minioAPI, bucket string) (*MinioStorage, error) {
	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, bucket)
	}

	return &MinioStorage{api: api, presigner: presigner, bucket: bucket}, nil
}

func (s *MinioStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.presigner.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return u.String(), nil
}

func (s *MinioStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	_, err := s.api.PutObject(ctx, s.bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	recordStorageOp(metrics.StorageOpUpload, driverMinio, err)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Download retrieves an object. The caller must close the returned reader.
func (s *MinioStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		recordStorageOp(metrics.StorageOpDownload, driverMinio, err)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy; Stat forces the request.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			recordStorageOp(metrics.StorageOpDownload, driverMinio, nil)
			return nil, repository.ErrObjectNotFound
		}
		recordStorageOp(metrics.StorageOpDownload, driverMinio, err)
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	recordStorageOp(metrics.StorageOpDownload, driverMinio, nil)
	return obj, nil
}

func (s *MinioStorage) Stat(ctx context.Context, key string) (*repository.ObjectInfo, error) {
	info, err := s.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			recordStorageOp(metrics.StorageOpStat, driverMinio, nil)
			return nil, repository.ErrObjectNotFound
		}
		recordStorageOp(metrics.StorageOpStat, driverMinio, err)
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	recordStorageOp(metrics.StorageOpStat, driverMinio, nil)
	return &repository.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// List walks every object under prefix recursively.
func (s *MinioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for info := range s.api.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			recordStorageOp(metrics.StorageOpList, driverMinio, info.Err)
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		keys = append(keys, info.Key)
	}

	recordStorageOp(metrics.StorageOpList, driverMinio, nil)
	return keys, nil
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	recordStorageOp(metrics.StorageOpDelete, driverMinio, err)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Ping verifies the MinIO connection is alive by checking bucket access.
func (s *MinioStorage) Ping(ctx context.Context) error {
	if _, err := s.api.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("failed to ping minio: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func recordStorageOp(op, driver string, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.StorageOperationsTotal.WithLabelValues(op, status, driver).Inc()
}

var _ repository.ObjectStorage = (*MinioStorage)(nil)
