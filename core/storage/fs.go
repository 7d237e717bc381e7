package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// FSGateway stores exchange files on a filesystem, usually local disk or a mounted share.
type FSGateway struct {
	fs afero.Fs
}

// NewFSGateway creates a gateway rooted at root on the given filesystem.
// An empty root uses the filesystem as is.
func NewFSGateway(base afero.Fs, root string) *FSGateway {
	if root != "" {
		base = afero.NewBasePathFs(base, root)
	}
	return &FSGateway{fs: base}
}

// Get reads the file at p.
func (g *FSGateway) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(g.fs, filepath.FromSlash(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// Put writes data at p, creating parent directories as needed.
func (g *FSGateway) Put(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := path.Dir(p); dir != "." {
		if err := g.fs.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(g.fs, filepath.FromSlash(p), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}
