package visibility

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// ObjectStore is the part of a blob store the sidecar needs.
type ObjectStore interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader) error
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// SidecarPersister keeps the document as a single reserved object in the
// remote store, so the settings survive restarts on hosts without a
// persistent disk.
type SidecarPersister struct {
	store ObjectStore
	key   string
}

// NewSidecarPersister creates a persister writing to key in store.
func NewSidecarPersister(store ObjectStore, key string) *SidecarPersister {
	return &SidecarPersister{store: store, key: key}
}

func (p *SidecarPersister) Name() string {
	return "sidecar:" + p.key
}

func (p *SidecarPersister) Load(ctx context.Context) (map[string]Record, error) {
	rc, err := p.store.Download(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to download sidecar: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}
	return Decode(data)
}

func (p *SidecarPersister) Save(ctx context.Context, records map[string]Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := p.store.Upload(ctx, p.key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload sidecar: %w", err)
	}
	return nil
}
