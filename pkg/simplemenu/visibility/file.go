package visibility

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FilePersister keeps the document in a local JSON file. On ephemeral or
// read-only hosts its writes may fail; Store treats it as best-effort.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister for path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Name() string {
	return "file:" + p.path
}

func (p *FilePersister) Load(ctx context.Context) (map[string]Record, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.path, err)
	}
	return Decode(data)
}

func (p *FilePersister) Save(ctx context.Context, records map[string]Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
