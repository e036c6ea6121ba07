// Package minio provides a simplemenu.BlobStore backed by a MinIO server.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tendant/simple-menu/pkg/simplemenu"
)

// Config options for the MinIO backend
type Config struct {
	Endpoint        string // host:port of the MinIO server
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	PublicBaseURL   string        // Serve public URLs instead of presigned ones
	PresignDuration time.Duration // Default: 1 hour

	CreateBucketIfNotExist bool
}

// Backend implements simplemenu.BlobStore for MinIO.
type Backend struct {
	client          *minio.Client
	bucket          string
	publicBaseURL   string
	presignDuration time.Duration
}

// New connects a MinIO client and returns the backend.
func New(config Config) (*Backend, error) {
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	backend := NewWithClient(client, config.Bucket)
	backend.publicBaseURL = strings.TrimSuffix(config.PublicBaseURL, "/")
	if config.PresignDuration > 0 {
		backend.presignDuration = config.PresignDuration
	}

	if config.CreateBucketIfNotExist {
		if err := backend.ensureBucket(context.Background(), config.Region); err != nil {
			return nil, err
		}
	}

	return backend, nil
}

// NewWithClient creates a backend with the given client and bucket name.
func NewWithClient(client *minio.Client, bucket string) *Backend {
	return &Backend{
		client:          client,
		bucket:          bucket,
		presignDuration: time.Hour,
	}
}

func (b *Backend) ensureBucket(ctx context.Context, region string) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// GetObjectMeta retrieves metadata for the object at key.
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplemenu.ObjectMeta, error) {
	stat, err := b.client.StatObject(ctx, b.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, simplemenu.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	meta, err := b.meta(ctx, stat)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (b *Backend) meta(ctx context.Context, info minio.ObjectInfo) (simplemenu.ObjectMeta, error) {
	link, err := b.GetPreviewURL(ctx, info.Key)
	if err != nil {
		return simplemenu.ObjectMeta{}, err
	}
	return simplemenu.ObjectMeta{
		Key:         info.Key,
		URL:         link,
		Size:        info.Size,
		ContentType: info.ContentType,
		UpdatedAt:   info.LastModified,
		ETag:        info.ETag,
		Metadata:    info.UserMetadata,
	}, nil
}

// Upload stores the content of reader at key.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, simplemenu.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams stores content with an explicit content type.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplemenu.UploadParams) error {
	opts := minio.PutObjectOptions{ContentType: params.MimeType}
	if _, err := b.client.PutObject(ctx, b.bucket, params.ObjectKey, reader, -1, opts); err != nil {
		return fmt.Errorf("failed to upload to minio: %w", err)
	}
	return nil
}

// Download opens the object at key.
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download from minio: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, simplemenu.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download from minio: %w", err)
	}
	return obj, nil
}

// Delete removes the object at key.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	if _, err := b.client.StatObject(ctx, b.bucket, objectKey, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return simplemenu.ErrObjectNotFound
		}
		return fmt.Errorf("failed to stat object: %w", err)
	}
	if err := b.client.RemoveObject(ctx, b.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from minio: %w", err)
	}
	return nil
}

// Rename copies the object server-side and removes the source.
func (b *Backend) Rename(ctx context.Context, fromKey, toKey string) error {
	_, err := b.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: b.bucket, Object: toKey},
		minio.CopySrcOptions{Bucket: b.bucket, Object: fromKey},
	)
	if err != nil {
		if isNotFound(err) {
			return simplemenu.ErrObjectNotFound
		}
		return fmt.Errorf("failed to copy %s to %s: %w", fromKey, toKey, err)
	}
	if err := b.client.RemoveObject(ctx, b.bucket, fromKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s after copy: %w", fromKey, err)
	}
	return nil
}

// List returns object info for keys under prefix, ordered by key.
func (b *Backend) List(ctx context.Context, prefix string) ([]simplemenu.ObjectMeta, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	// Returning early must stop the listing goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []simplemenu.ObjectMeta
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		meta, err := b.meta(ctx, obj)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// GetPreviewURL returns a public or presigned URL for the object.
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	if b.publicBaseURL != "" {
		return b.publicBaseURL + "/" + objectKey, nil
	}
	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	u, err := b.client.PresignedGetObject(ctx, b.bucket, objectKey, b.presignDuration, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned preview URL: %w", err)
	}
	return u.String(), nil
}
