// Package filestore holds uploaded product images in S3-compatible object
// storage (MinIO in development). Keys are opaque and generated server side;
// the database stores only the key, never a URL.
package filestore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileStore is the object storage surface the catalog needs. PresignGet
// returns a short-lived URL so image bytes are served by the store, not
// proxied through the application.
type FileStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// RandomStorageKey generates a date-partitioned object key for a new upload.
func RandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("products/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
