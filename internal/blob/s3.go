package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// S3Config carries the settings for an S3-compatible endpoint (AWS S3 or
// MinIO in development).
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Store implements Store on top of an S3-compatible bucket. Keys are
// date-partitioned with a UUID suffix so uploads never collide.
type S3Store struct {
	client *s3.Client
	cfg    S3Config
	logger *zap.Logger
}

func NewS3Store(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// Path-style addressing keeps MinIO and other non-AWS endpoints
		// working without per-bucket DNS.
		o.UsePathStyle = true
	})

	return &S3Store{client: client, cfg: cfg, logger: logger}, nil
}

func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3Store) Put(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	key := storageKey()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"filename": filename},
	})
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	s.logger.Debug("blob stored", zap.String("key", key), zap.String("content_type", contentType))
	return url, nil
}

func (s *S3Store) Exists(ctx context.Context, url string) (bool, error) {
	key, err := s.keyFromURL(url)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head blob: %w", err)
	}
	return true, nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// keyFromURL inverts the URL shape Put produces: endpoint/bucket/key.
func (s *S3Store) keyFromURL(url string) (string, error) {
	prefix := strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("unrecognized blob url %q", url)
	}
	return strings.TrimPrefix(url, prefix), nil
}
