// Package scorer provides quality-scorer gateway implementations.
package scorer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
)

var _ adapter.QualityScorer = (*RandomScorer)(nil)

// RandomScorer is a stand-in for the production scoring model, used to
// validate the pipeline end to end. It passes roughly half of all images
// with a fixed simulated latency and synthetic analysis fields.
type RandomScorer struct {
	// Latency is the simulated per-call processing time.
	Latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	log *zerolog.Logger
}

func NewRandomScorer(seed int64, logger *zerolog.Logger) *RandomScorer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	l := logger.With().Str("component", "RandomScorer").Logger()
	return &RandomScorer{
		Latency: 100 * time.Millisecond,
		rng:     rand.New(rand.NewSource(seed)),
		log:     &l,
	}
}

func (s *RandomScorer) Name() string { return "test-model/1.0.0" }

func (s *RandomScorer) Score(ctx context.Context, image []byte, meta adapter.ImageMeta) (adapter.Score, error) {
	select {
	case <-time.After(s.Latency):
	case <-ctx.Done():
		return adapter.Score{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pass := s.rng.Intn(2) == 0
	var value float64
	var quality string
	if pass {
		value = 0.7 + s.rng.Float64()*0.3
		quality = "medium"
		if value >= 0.85 {
			quality = "high"
		}
	} else {
		value = s.rng.Float64() * 0.69
		quality = "low"
	}

	backgrounds := []string{"clean", "cluttered", "neutral"}
	analysis := model.Analysis{
		"quality":       quality,
		"clarity":       0.3 + s.rng.Float64()*0.7,
		"lighting":      0.3 + s.rng.Float64()*0.7,
		"composition":   0.3 + s.rng.Float64()*0.7,
		"background":    backgrounds[s.rng.Intn(len(backgrounds))],
		"product_focus": s.rng.Intn(2) == 0,
		"model_used":    s.Name(),
		"confidence":    0.8 + s.rng.Float64()*0.19,
	}

	s.log.Debug().Str("task_id", meta.TaskID).Float64("score", value).Str("quality", quality).Msg("image scored")
	return adapter.Score{Value: value, Analysis: analysis}, nil
}
