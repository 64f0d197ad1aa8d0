package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidKey = errors.New("invalid blob key")
	ErrNotFound   = errors.New("blob not found")
)

// BlobStore holds uploaded CVs until they are forwarded.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
