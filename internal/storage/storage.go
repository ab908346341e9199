// Package storage keeps attachment bytes outside the database.  Paths are
// slash-separated and relative to the store's root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/iliyamo/returns-desk/internal/config"
)

// ErrNotExist is returned by Get and Delete when nothing is stored at path.
var ErrNotExist = errors.New("storage: file does not exist")

// ErrBadPath rejects absolute paths and paths escaping the root.
var ErrBadPath = errors.New("storage: invalid path")

// BlobStore is the narrow surface the services need.
type BlobStore interface {
	Put(ctx context.Context, p string, data []byte) error
	Get(ctx context.Context, p string) ([]byte, error)
	Delete(ctx context.Context, p string) error
}

// New builds the store selected by cfg.Driver.
func New(cfg config.StorageConfig) (BlobStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sftp":
		return NewSFTPStore(cfg), nil
	case "local":
		return NewLocalStore(cfg.LocalDir)
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}

// cleanRel normalises p and refuses anything that would leave the root.
func cleanRel(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrBadPath
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrBadPath
	}
	return c, nil
}
