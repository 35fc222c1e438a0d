package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrInvalidR2Config = errors.New("invalid Cloudflare R2 configuration: all fields are required")

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled reports whether enough is configured to talk to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != "" && c.PublicBaseURL != ""
}

type r2Uploader struct {
	client        *s3.Client
	bucketName    string
	publicBaseURL *url.URL
}

// NewR2Uploader talks to Cloudflare R2 through its S3-compatible API.
func NewR2Uploader(ctx context.Context, cfg R2Config) (FileUploader, error) {
	if !cfg.Enabled() {
		return nil, ErrInvalidR2Config
	}
	base, err := url.Parse(cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid R2 public base URL %q: %w", cfg.PublicBaseURL, err)
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		// R2 signs with region "auto".
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &r2Uploader{client: client, bucketName: cfg.BucketName, publicBaseURL: base}, nil
}

func (u *r2Uploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	result, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object to R2 (key: %s): %w", key, err)
	}

	etag := ""
	if result.ETag != nil {
		// S3-compatible APIs quote the ETag.
		etag = strings.Trim(*result.ETag, "\"")
	}
	return &UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: etag}, nil
}

func (u *r2Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from R2 (key: %s): %w", key, err)
	}
	return nil
}

func (u *r2Uploader) GetPublicURL(key string) string {
	return PublicURL(u.publicBaseURL, key)
}

// PublicURL joins a base URL and an object key with exactly one slash.
func PublicURL(base *url.URL, key string) string {
	if base == nil || key == "" {
		return ""
	}
	joined := *base
	joined.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(key, "/")
	joined.RawPath = ""
	return joined.String()
}
