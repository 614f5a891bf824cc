// Package storage keeps the bytes of uploaded images at the paths produced
// by the upload package.
package storage

import (
	"context"
	"io"
	"strings"
)

// Storage writes and removes objects by key and resolves their public URL.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
