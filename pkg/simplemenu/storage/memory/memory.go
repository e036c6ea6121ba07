package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-menu/pkg/simplemenu"
)

const defaultMimeType = "application/octet-stream"

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the simplemenu.BlobStore interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	urlPrefix string
	now       func() time.Time
}

// Option configures the in-memory backend
type Option func(*Backend)

// WithURLPrefix sets the prefix of preview URLs, e.g. "/media"
func WithURLPrefix(prefix string) Option {
	return func(b *Backend) {
		b.urlPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithClock overrides the time recorded for uploads
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New creates a new in-memory storage backend
func New(opts ...Option) *Backend {
	b := &Backend{
		objects:   make(map[string]object),
		urlPrefix: "/media",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplemenu.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, simplemenu.ErrObjectNotFound
	}
	meta := b.metaLocked(objectKey, obj)
	return &meta, nil
}

func (b *Backend) metaLocked(key string, obj object) simplemenu.ObjectMeta {
	return simplemenu.ObjectMeta{
		Key:         key,
		URL:         b.urlPrefix + "/" + key,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
		Metadata:    map[string]string{"mime_type": obj.mimeType},
	}
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.put(objectKey, reader, "")
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplemenu.UploadParams) error {
	return b.put(params.ObjectKey, reader, params.MimeType)
}

func (b *Backend) put(objectKey string, reader io.Reader, mimeType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if mimeType == "" {
		mimeType = defaultMimeType
		if existing, ok := b.objects[objectKey]; ok {
			mimeType = existing.mimeType
		}
	}
	b.objects[objectKey] = object{data: data, mimeType: mimeType, updatedAt: b.now()}
	return nil
}

// GetPreviewURL returns a URL for previewing content
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	return b.urlPrefix + "/" + objectKey, nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, simplemenu.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return simplemenu.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	return nil
}

// Rename moves an object to a new key, keeping its timestamp
func (b *Backend) Rename(ctx context.Context, fromKey, toKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[fromKey]
	if !exists {
		return simplemenu.ErrObjectNotFound
	}
	b.objects[toKey] = obj
	delete(b.objects, fromKey)
	return nil
}

// List returns the objects under prefix ordered by key
func (b *Backend) List(ctx context.Context, prefix string) ([]simplemenu.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []simplemenu.ObjectMeta
	for key, obj := range b.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, b.metaLocked(key, obj))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
