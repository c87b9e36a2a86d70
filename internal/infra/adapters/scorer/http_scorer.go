package scorer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/config"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
)

var _ adapter.QualityScorer = (*HTTPScorer)(nil)

// HTTPScorer calls an external quality-scoring API. The request carries the
// image as base64 plus the source URL for context; the response is
// {"score": float, "analysis": {...}}.
type HTTPScorer struct {
	client *http.Client
	apiURL string
	apiKey string
	log    *zerolog.Logger
}

func NewHTTPScorer(cfg config.ScorerConfig, logger *zerolog.Logger) *HTTPScorer {
	l := logger.With().Str("component", "HTTPScorer").Logger()
	return &HTTPScorer{
		client: &http.Client{Timeout: cfg.Timeout},
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		log:    &l,
	}
}

func (s *HTTPScorer) Name() string { return "http/" + s.apiURL }

type scoreRequest struct {
	Image        string `json:"image"`
	URL          string `json:"url"`
	AnalysisType string `json:"analysis_type"`
}

type scoreResponse struct {
	Score    float64        `json:"score"`
	Analysis model.Analysis `json:"analysis"`
}

func (s *HTTPScorer) Score(ctx context.Context, image []byte, meta adapter.ImageMeta) (adapter.Score, error) {
	body, err := json.Marshal(scoreRequest{
		Image:        base64.StdEncoding.EncodeToString(image),
		URL:          meta.SourceURL,
		AnalysisType: "product_image_quality",
	})
	if err != nil {
		return adapter.Score{}, domain.NewScoreError(domain.KindInvalid, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return adapter.Score{}, domain.NewScoreError(domain.KindInvalid, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return adapter.Score{}, domain.NewScoreError(domain.KindTransient, fmt.Errorf("call scorer: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := domain.KindInvalid
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.KindTransient
		}
		return adapter.Score{}, domain.NewScoreError(kind, fmt.Errorf("scorer returned status %d", resp.StatusCode))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Score{}, domain.NewScoreError(domain.KindTransient, fmt.Errorf("decode response: %w", err))
	}
	if out.Score < 0 || out.Score > 1 {
		return adapter.Score{}, domain.NewScoreError(domain.KindInvalid, fmt.Errorf("score %v out of range [0,1]", out.Score))
	}

	s.log.Debug().
		Str("task_id", meta.TaskID).
		Float64("score", out.Score).
		Dur("duration", time.Since(start)).
		Msg("image scored")

	return adapter.Score{Value: out.Score, Analysis: out.Analysis}, nil
}
