package simplemenu

import (
	"context"
	"io"
)

// Service defines the main interface for the simple-menu library
type Service interface {
	// Catalog operations
	Catalog(ctx context.Context) (*Catalog, error)
	InvalidateCache()

	// Image operations
	Upload(ctx context.Context, req UploadRequest) ([]UploadResult, error)
	Replace(ctx context.Context, req ReplaceRequest) (*UploadResult, error)
	OpenImage(ctx context.Context, key string) (io.ReadCloser, *ObjectMeta, error)

	// Multi-zone operations
	Rename(ctx context.Context, from, to string) (*Outcome, error)
	Duplicate(ctx context.Context, from, to string) (*Outcome, error)
	Delete(ctx context.Context, name string) (*Outcome, error)

	// Visibility operations
	GetVisibility(name string) Visibility
	SetVisibility(ctx context.Context, name string, record Visibility) error
}
