package storage

import (
	"context"
	"io"
)

// ObjectStore is the bucket surface the shop and order services use.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, name, contentType string, body io.Reader) error
	Delete(ctx context.Context, bucket, name string) error
	PublicURL(bucket, name string) string
}
