package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
}

// S3PhotoStorage stores images in an S3-compatible bucket.
type S3PhotoStorage struct {
	client *minio.Client
	config S3Config
	log    *zap.Logger
}

func NewS3PhotoStorage(ctx context.Context, cfg S3Config, log *zap.Logger) (*S3PhotoStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("S3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("S3 access key and secret key are required")
	}

	endpoint := strings.TrimPrefix(cfg.Endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	s := &S3PhotoStorage{client: client, config: cfg, log: log}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("connected to S3", zap.String("endpoint", endpoint), zap.String("bucket", cfg.Bucket))
	return s, nil
}

func (s *S3PhotoStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.config.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.config.Bucket, err)
	}
	return nil
}

func (s *S3PhotoStorage) objectKey(key string) string {
	if s.config.Prefix == "" {
		return key
	}
	return path.Join(strings.TrimSuffix(s.config.Prefix, "/"), strings.TrimPrefix(key, "/"))
}

func (s *S3PhotoStorage) SavePhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, s.config.Bucket, s.objectKey(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload photo object: %w", err)
	}
	s.log.Debug("uploaded photo object", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return nil
}

func (s *S3PhotoStorage) OpenPhoto(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey := s.objectKey(key)
	if _, err := s.client.StatObject(ctx, s.config.Bucket, objectKey, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat photo object: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.config.Bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get photo object: %w", err)
	}
	return obj, nil
}

func (s *S3PhotoStorage) DeletePhoto(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.config.Bucket, s.objectKey(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete photo object: %w", err)
	}
	return nil
}
