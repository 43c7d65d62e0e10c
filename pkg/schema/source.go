package schema

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadFile reads a catalogue document from disk.
func LoadFile(ctx context.Context, path string) (*Catalogue, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Load(ctx, raw)
}

// LoadFS reads a catalogue document from fsys.
func LoadFS(ctx context.Context, fsys fs.FS, name string) (*Catalogue, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	return Load(ctx, raw)
}

// DefaultDocument returns a copy of the embedded document, the starting point
// for a customised catalogue.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}
