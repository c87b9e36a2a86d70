package adapter

import "context"

// ObjectStore writes approved image bytes to durable storage.
//
// Put must be idempotent per key: re-uploading the same key with the same
// bytes after a partial failure is a no-op success returning the same
// locator. The returned locator is a stable, addressable path or URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (locator string, err error)
}
