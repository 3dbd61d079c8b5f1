// Package filestore keeps attachment blobs on a filesystem, one directory per tenant.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/spf13/afero"
)

// Store saves, opens, and deletes blobs under <root>/<tenant>/<key>.
type Store struct {
	fs   afero.Fs
	root string
}

// New returns a store rooted at root on fs.
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: path.Clean("/" + root)}
}

// NewOS returns a store on the operating system filesystem.
func NewOS(root string) *Store {
	return &Store{fs: afero.NewBasePathFs(afero.NewOsFs(), root), root: "/"}
}

// NewMemory returns an in-memory store.
func NewMemory() *Store {
	return New(afero.NewMemMapFs(), "/")
}

// location validates tenantID and key and returns the blob path. Keys are
// slash separated relative names; "." and ".." segments are rejected.
func (s *Store) location(tenantID, key string) (string, error) {
	if err := model.ValidateTenantID(tenantID); err != nil {
		return "", err
	}
	if strings.ContainsAny(tenantID, `/\`) || tenantID == "." || tenantID == ".." {
		return "", fmt.Errorf("%w: tenant %q cannot be used as a directory", common.ErrInvalidArgument, tenantID)
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: storage key cannot be empty", common.ErrInvalidArgument)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: storage key %q must be relative", common.ErrInvalidArgument, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: storage key %q has an invalid segment", common.ErrInvalidArgument, key)
		}
	}
	return path.Join(s.root, tenantID, key), nil
}

// Save writes r to key, replacing any existing blob, and returns the bytes written.
func (s *Store) Save(ctx context.Context, tenantID, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := s.location(tenantID, key)
	if err != nil {
		return 0, err
	}

	if err := s.fs.MkdirAll(path.Dir(p), 0750); err != nil {
		return 0, fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := s.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob %s: %w", key, err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		_ = s.fs.Remove(p)
		return 0, fmt.Errorf("failed to write blob %s: %w", key, copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("failed to close blob %s: %w", key, closeErr)
	}

	slog.Debug("saved blob", "tenant", tenantID, "key", key, "bytes", n)
	return n, nil
}

// Open returns a reader for key. A missing blob yields common.ErrNotFound.
func (s *Store) Open(ctx context.Context, tenantID, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.location(tenantID, key)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return f, nil
}

// Delete removes key. Removing a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.location(tenantID, key)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is stored.
func (s *Store) Exists(ctx context.Context, tenantID, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.location(tenantID, key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}
