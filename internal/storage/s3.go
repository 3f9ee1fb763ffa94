package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/staffphoto/service/internal/config"
)

// S3Gateway implements Gateway using the AWS S3 API (AWS S3, Cloudflare R2, MinIO).
// Upload tokens are presigned POST policies for a single key with a size limit.
type S3Gateway struct {
	URLBuilder

	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
	maxBytes  int64
	observer  *Observer
	now       func() time.Time
}

// NewS3Gateway creates an S3 client. An empty cfg.Endpoint targets AWS itself.
func NewS3Gateway(cfg config.StorageConfig, urls URLBuilder, observer *Observer) *S3Gateway {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(baseEndpoint(cfg.Endpoint, cfg.UseSSL))
	}

	client := s3.New(opts)
	return &S3Gateway{
		URLBuilder: urls,
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		ttl:        cfg.UploadTokenTTL,
		maxBytes:   cfg.MaxUploadBytes,
		observer:   observer,
		now:        time.Now,
	}
}

// baseEndpoint adds a scheme to host-only endpoints such as "localhost:9000".
func baseEndpoint(endpoint string, useSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// EnsureBucket creates the bucket if it doesn't exist.
func (g *S3Gateway) EnsureBucket(ctx context.Context) error {
	_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(g.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		var alreadyExists *types.BucketAlreadyExists
		if errors.As(err, &alreadyOwned) || errors.As(err, &alreadyExists) {
			return nil
		}
		return fmt.Errorf("create bucket %q: %w", g.bucket, err)
	}
	return nil
}

// IssueUploadToken presigns a POST policy that only accepts key, expires after
// the configured TTL and rejects bodies larger than the upload limit.
func (g *S3Gateway) IssueUploadToken(ctx context.Context, key string) (_ *UploadToken, err error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	defer func(start time.Time) { g.observer.observe("issue_token", start, err) }(time.Now())

	expires := g.now().Add(g.ttl).UTC()
	req, err := g.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = g.ttl
		o.Conditions = []any{
			[]any{"content-length-range", 1, g.maxBytes},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("presign post object %q: %w", key, err)
	}

	return &UploadToken{
		Key:       key,
		Token:     req.Values["policy"],
		Method:    http.MethodPost,
		URL:       req.URL,
		Fields:    req.Values,
		ExpiresAt: expires,
	}, nil
}

// Upload stores an object under key.
func (g *S3Gateway) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (err error) {
	defer func(start time.Time) { g.observer.observe("upload", start, err) }(time.Now())

	input := &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := g.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	g.observer.addUploaded(size)
	return nil
}

// Delete removes an object by key.
func (g *S3Gateway) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { g.observer.observe("delete", start, err) }(time.Now())

	_, err = g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
