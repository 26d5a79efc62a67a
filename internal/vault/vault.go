// Package vault stores the raw bytes of knowledge-base documents.
package vault

import (
	"context"
	"io"
)

// Store persists uploaded document bodies under a key.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}
