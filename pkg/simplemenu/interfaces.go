package simplemenu

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for remote object storage backends
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content. Returns ErrObjectNotFound if the key is absent.
	Delete(ctx context.Context, objectKey string) error

	// Rename moves an object to a new key. Returns ErrObjectNotFound if the
	// source is absent.
	Rename(ctx context.Context, fromKey, toKey string) error

	// List returns the objects under prefix, ordered by key
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetPreviewURL returns a URL for displaying content
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)
}

// VisibilityStore keeps the per-item visibility flags.
type VisibilityStore interface {
	VisibilitySource
	Set(ctx context.Context, name string, record Visibility) error
	Rename(ctx context.Context, from, to string) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string            `json:"key"`
	URL         string            `json:"url,omitempty"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ETag        string            `json:"etag,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
