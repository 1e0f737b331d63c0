// Package storage keeps purchase order attachments in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	purchasingapp "github.com/erp/procurement/internal/application/purchasing"
	infraconfig "github.com/erp/procurement/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrStorageKeyRequired is returned when an empty key is passed to an operation
var ErrStorageKeyRequired = errors.New("storage key is required")

var _ purchasingapp.AttachmentStorage = (*S3AttachmentStorage)(nil)

// S3AttachmentStorage stores attachments in a bucket and hands out presigned
// download links. Works with AWS S3 and with S3-compatible servers such as MinIO.
type S3AttachmentStorage struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// Option configures S3AttachmentStorage
type Option func(*S3AttachmentStorage)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3AttachmentStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPresignExpiration sets the default lifetime of download links
func WithPresignExpiration(d time.Duration) Option {
	return func(s *S3AttachmentStorage) {
		s.presignExpiration = d
	}
}

// NewS3AttachmentStorage creates the storage from configuration.
func NewS3AttachmentStorage(cfg *infraconfig.StorageConfig, opts ...Option) (*S3AttachmentStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	storage := &S3AttachmentStorage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(storage)
	}
	if storage.presignExpiration <= 0 {
		storage.presignExpiration = 15 * time.Minute
	}

	return storage, nil
}

// normalizeEndpoint adds a scheme to a bare host. An empty endpoint means
// the AWS default endpoint resolution.
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Called at startup.
func (s *S3AttachmentStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating attachment bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores data under storageKey and returns the key as the reference
// kept on the order.
func (s *S3AttachmentStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) (string, error) {
	if storageKey == "" {
		return "", ErrStorageKeyRequired
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(storageKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Debug("Attachment uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", storageKey),
		zap.Int("size", len(data)),
	)
	return storageKey, nil
}

// GenerateDownloadURL returns a presigned GET URL. A non-positive expiresIn
// falls back to the configured default.
func (s *S3AttachmentStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}

	presignReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}

	return presignReq.URL, time.Now().Add(expiresIn), nil
}

// Delete removes an object. Deleting a missing key succeeds.
func (s *S3AttachmentStorage) Delete(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (s *S3AttachmentStorage) Bucket() string {
	return s.bucket
}
