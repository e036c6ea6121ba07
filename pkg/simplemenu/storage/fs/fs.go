package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/simple-menu/pkg/simplemenu"
)

// Backend is a filesystem implementation of the simplemenu.BlobStore interface
type Backend struct {
	mu        sync.RWMutex
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // URL prefix for preview URLs, defaults to "/media"
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	// Validate and create base directory if it doesn't exist
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	urlPrefix := strings.TrimSuffix(config.URLPrefix, "/")
	if urlPrefix == "" {
		urlPrefix = "/media"
	}

	return &Backend{
		baseDir:   filepath.Clean(config.BaseDir),
		urlPrefix: urlPrefix,
	}, nil
}

func (b *Backend) path(objectKey string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplemenu.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	filePath := b.path(objectKey)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, simplemenu.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	meta := b.meta(objectKey, filePath, info)
	return &meta, nil
}

func (b *Backend) meta(objectKey, filePath string, info fs.FileInfo) simplemenu.ObjectMeta {
	// Detect content type
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return simplemenu.ObjectMeta{
		Key:         objectKey,
		URL:         b.urlPrefix + "/" + objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}
}

// Upload uploads content directly to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	filePath := b.path(objectKey)

	// Create directory structure if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file so readers never see a partial image
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

// UploadWithParams uploads content with additional parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplemenu.UploadParams) error {
	// For filesystem, we don't store MIME type separately, it's detected on read
	return b.Upload(ctx, params.ObjectKey, reader)
}

// GetPreviewURL returns a URL for previewing content
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	return b.urlPrefix + "/" + objectKey, nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	// Check if file exists and open it
	file, err := os.Open(b.path(objectKey))
	if os.IsNotExist(err) {
		return nil, simplemenu.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	filePath := b.path(objectKey)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return simplemenu.ErrObjectNotFound
	}

	// Delete file
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Clean up empty directories
	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// Rename moves a file to a new key
func (b *Backend) Rename(ctx context.Context, fromKey, toKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fromPath, toPath := b.path(fromKey), b.path(toKey)
	if _, err := os.Stat(fromPath); os.IsNotExist(err) {
		return simplemenu.ErrObjectNotFound
	}
	if err := os.MkdirAll(filepath.Dir(toPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.Rename(fromPath, toPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(fromPath))
	return nil
}

// List returns the files under prefix ordered by key
func (b *Backend) List(ctx context.Context, prefix string) ([]simplemenu.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Walk the deepest directory the prefix names, filter the rest by key.
	root := b.baseDir
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		root = b.path(prefix[:i])
	}

	var out []simplemenu.ObjectMeta
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(b.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, b.meta(key, p, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	// Don't remove the base directory
	if dir == b.baseDir {
		return
	}

	// Check if directory is empty
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		// Remove empty directory
		if os.Remove(dir) == nil {
			// Recursively clean parent directory
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
