package adapter

import (
	"context"
	"time"
)

// ProductImageRef is one remote image belonging to a product, as enumerated
// from a platform catalog or a webhook payload.
type ProductImageRef struct {
	ProductID       string
	PlatformImageID string
	URL             string
}

// WebhookEvent is an inbound platform event whose authenticity has already
// been verified upstream. The pipeline only sees the extracted references.
type WebhookEvent struct {
	StoreID   string
	ProductID string
	Images    []ProductImageRef
}

// PlatformCatalog enumerates the images known to an e-commerce platform for
// a store. OAuth, pagination and payload parsing live behind this port.
type PlatformCatalog interface {
	// ListProductImages returns every image reference for the store.
	ListProductImages(ctx context.Context, storeID string) ([]ProductImageRef, error)
	// ListProductImagesSince returns only references changed after since.
	ListProductImagesSince(ctx context.Context, storeID string, since time.Time) ([]ProductImageRef, error)
}
