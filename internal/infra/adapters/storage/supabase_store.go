// Package storage provides object-store adapters for approved images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
	storage_go "github.com/supabase-community/storage-go"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/config"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
)

var _ adapter.ObjectStore = (*SupabaseStore)(nil)

// SupabaseStore uploads approved images to a Supabase storage bucket. Uploads
// are upserts, so retrying a key whose write already landed is a no-op
// success, and the locator (the public object URL) is stable per key.
type SupabaseStore struct {
	client  *storage_go.Client
	bucket  string
	baseURL string
	log     *zerolog.Logger
}

func NewSupabaseStore(cfg config.StorageConfig, logger *zerolog.Logger) *SupabaseStore {
	baseURL := strings.TrimSuffix(cfg.ProjectURL, "/")
	l := logger.With().Str("component", "SupabaseStore").Str("bucket", cfg.Bucket).Logger()
	return &SupabaseStore{
		client:  storage_go.NewClient(baseURL+"/storage/v1", cfg.ServiceKey, nil),
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		log:     &l,
	}
}

func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", classifyUploadErr(fmt.Errorf("upload %s: %w", key, err))
	}

	locator := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
	s.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("image uploaded")
	return locator, nil
}

// classifyUploadErr separates permission failures, which no retry can fix,
// from everything else, which is assumed to be a transient backend or
// network condition.
func classifyUploadErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewUploadError(domain.KindTransient, err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"401", "403", "unauthorized", "forbidden", "permission", "invalid signature"} {
		if strings.Contains(msg, marker) {
			return domain.NewUploadError(domain.KindFatal, err)
		}
	}
	return domain.NewUploadError(domain.KindTransient, err)
}
