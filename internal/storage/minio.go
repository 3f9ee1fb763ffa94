package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/staffphoto/service/internal/config"
)

// MinioGateway implements Gateway on top of MinIO or any S3-compatible backend.
// Upload tokens are presigned POST policies scoped to a single key.
type MinioGateway struct {
	URLBuilder

	client   *minio.Client
	bucket   string
	ttl      time.Duration
	maxBytes int64
	observer *Observer
	now      func() time.Time
}

// NewMinioGateway creates a MinIO client, ensures the bucket exists and, when
// cfg.PublicRead is set, applies an anonymous-read bucket policy.
func NewMinioGateway(ctx context.Context, cfg config.StorageConfig, urls URLBuilder, observer *Observer) (*MinioGateway, error) {
	g, err := newMinioGateway(cfg, urls, observer)
	if err != nil {
		return nil, err
	}
	if err := g.ensureBucket(ctx, cfg.Region, cfg.PublicRead); err != nil {
		return nil, err
	}
	return g, nil
}

func newMinioGateway(cfg config.StorageConfig, urls URLBuilder, observer *Observer) (*MinioGateway, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioGateway{
		URLBuilder: urls,
		client:     client,
		bucket:     cfg.Bucket,
		ttl:        cfg.UploadTokenTTL,
		maxBytes:   cfg.MaxUploadBytes,
		observer:   observer,
		now:        time.Now,
	}, nil
}

func (g *MinioGateway) ensureBucket(ctx context.Context, region string, publicRead bool) error {
	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := g.client.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", g.bucket, err)
		}
		log.Printf("[storage] created bucket %q", g.bucket)
	}

	if publicRead {
		if err := g.client.SetBucketPolicy(ctx, g.bucket, publicReadPolicy(g.bucket)); err != nil {
			return fmt.Errorf("set bucket policy: %w", err)
		}
	}
	return nil
}

// IssueUploadToken presigns a POST policy that only accepts key, expires after
// the configured TTL and rejects bodies larger than the upload limit.
func (g *MinioGateway) IssueUploadToken(ctx context.Context, key string) (_ *UploadToken, err error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	defer func(start time.Time) { g.observer.observe("issue_token", start, err) }(time.Now())

	expires := g.now().Add(g.ttl).UTC()

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(g.bucket); err != nil {
		return nil, fmt.Errorf("post policy bucket: %w", err)
	}
	if err := policy.SetKey(key); err != nil {
		return nil, fmt.Errorf("post policy key: %w", err)
	}
	if err := policy.SetExpires(expires); err != nil {
		return nil, fmt.Errorf("post policy expiry: %w", err)
	}
	if err := policy.SetContentLengthRange(1, g.maxBytes); err != nil {
		return nil, fmt.Errorf("post policy length: %w", err)
	}
	if err := policy.SetSuccessStatusAction("201"); err != nil {
		return nil, fmt.Errorf("post policy status: %w", err)
	}

	u, fields, err := g.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("presign post policy for %q: %w", key, err)
	}

	return &UploadToken{
		Key:       key,
		Token:     fields["policy"],
		Method:    http.MethodPost,
		URL:       u.String(),
		Fields:    fields,
		ExpiresAt: expires,
	}, nil
}

// Upload streams reader to the bucket under key. size must be the exact byte
// count, or -1 when unknown.
func (g *MinioGateway) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (err error) {
	defer func(start time.Time) { g.observer.observe("upload", start, err) }(time.Now())

	info, err := g.client.PutObject(ctx, g.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	g.observer.addUploaded(info.Size)
	return nil
}

// Delete removes the object at key from the bucket.
func (g *MinioGateway) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { g.observer.observe("delete", start, err) }(time.Now())

	if err := g.client.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Effect":    "Allow",
				"Principal": map[string]any{"AWS": []string{"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
