package adapter

import (
	"context"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
)

// ImageMeta carries optional task context to the scorer.
type ImageMeta struct {
	TaskID      string
	ProductID   string
	SourceURL   string
	ContentType string
	Width       int
	Height      int
}

// Score is a single quality verdict. Value is always in [0,1].
type Score struct {
	Value    float64
	Analysis model.Analysis
}

// QualityScorer is the port for the opaque quality-scoring capability. The
// pipeline treats it as score(bytes) -> (score, analysis) and is indifferent
// to whether a stand-in or a production model answers.
type QualityScorer interface {
	Name() string
	Score(ctx context.Context, image []byte, meta ImageMeta) (Score, error)
}
