// Package fetch downloads and validates remote product images.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/config"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
)

var _ adapter.ImageFetcher = (*HTTPFetcher)(nil)

// HTTPFetcher retrieves image bytes over HTTP with a bounded timeout and
// validates them before the pipeline spends scoring or storage work on them.
type HTTPFetcher struct {
	client *http.Client
	cfg    config.FetchConfig
	log    *zerolog.Logger
}

func NewHTTPFetcher(cfg config.FetchConfig, logger *zerolog.Logger) *HTTPFetcher {
	l := logger.With().Str("component", "HTTPFetcher").Logger()
	return &HTTPFetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		log:    &l,
	}
}

// Fetch downloads url and validates, in order: response completed, decoded
// dimensions at least the configured minimum, byte size within the maximum,
// content type in the allow-list. Network and 5xx/429 failures are
// transient; every validation failure is invalid since retrying cannot
// change the source bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*adapter.FetchedImage, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewFetchError(domain.KindInvalid, fmt.Errorf("build request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(domain.KindTransient, fmt.Errorf("get %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := domain.KindInvalid
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.KindTransient
		}
		return nil, domain.NewFetchError(kind, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
	}

	// Read one byte past the cap so oversized payloads are detected without
	// buffering arbitrarily large bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, domain.NewFetchError(domain.KindTransient, fmt.Errorf("read body: %w", err))
	}
	if len(data) == 0 {
		return nil, domain.NewFetchError(domain.KindInvalid, fmt.Errorf("empty payload from %s", url))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewFetchError(domain.KindInvalid, fmt.Errorf("decode image: %w", err))
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < f.cfg.MinWidth || height < f.cfg.MinHeight {
		return nil, domain.NewFetchError(domain.KindInvalid,
			fmt.Errorf("image too small: %dx%d, minimum %dx%d", width, height, f.cfg.MinWidth, f.cfg.MinHeight))
	}

	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, domain.NewFetchError(domain.KindInvalid,
			fmt.Errorf("image too large: more than %d bytes", f.cfg.MaxBytes))
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !f.typeAllowed(contentType) {
		return nil, domain.NewFetchError(domain.KindInvalid, fmt.Errorf("content type %q not allowed", contentType))
	}

	f.log.Debug().
		Str("url", url).
		Int("width", width).
		Int("height", height).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("image fetched")

	return &adapter.FetchedImage{
		Data:        data,
		Width:       width,
		Height:      height,
		ContentType: contentType,
	}, nil
}

func (f *HTTPFetcher) typeAllowed(contentType string) bool {
	for _, allowed := range f.cfg.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}
