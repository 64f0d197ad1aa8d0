package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// resolve maps key to a path under base. Keys are slash-separated and may not escape it.
func (s *FSStore) resolve(key string) (string, string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if key == "" || clean == "" || clean == "." {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, filepath.Join(s.base, filepath.FromSlash(clean)), nil
}

func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	canon, dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	return canon, f.Close()
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	_, p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	_, p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FSStore) SignedURL(key string) (string, error) {
	_, p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
