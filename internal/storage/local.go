package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore writes blobs under a directory on local disk.  It exists for
// development without an SFTP server.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) full(p string) (string, error) {
	rel, err := cleanRel(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

func (s *LocalStore) Put(_ context.Context, p string, data []byte) error {
	fp, err := s.full(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fp, data, 0o644)
}

func (s *LocalStore) Get(_ context.Context, p string) ([]byte, error) {
	fp, err := s.full(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return b, err
}

func (s *LocalStore) Delete(_ context.Context, p string) error {
	fp, err := s.full(p)
	if err != nil {
		return err
	}
	err = os.Remove(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotExist
	}
	return err
}
