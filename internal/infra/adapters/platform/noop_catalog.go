// Package platform holds e-commerce catalog adapters. OAuth and payload
// parsing are owned by the platform integration layer; the pipeline only
// consumes enumerated image references.
package platform

import (
	"context"
	"time"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
)

var _ adapter.PlatformCatalog = (*NoopCatalog)(nil)

// NoopCatalog enumerates nothing. Wired in dev mode and wherever only
// webhook-triggered ingestion is wanted.
type NoopCatalog struct{}

func NewNoopCatalog() *NoopCatalog { return &NoopCatalog{} }

func (NoopCatalog) ListProductImages(ctx context.Context, storeID string) ([]adapter.ProductImageRef, error) {
	return nil, nil
}

func (NoopCatalog) ListProductImagesSince(ctx context.Context, storeID string, since time.Time) ([]adapter.ProductImageRef, error) {
	return nil, nil
}
