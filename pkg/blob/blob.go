package blob

import (
	"context"
	"io"
)

// Store abstracts the external bucket holding file payloads. Delete is
// idempotent: removing a missing object is not an error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
