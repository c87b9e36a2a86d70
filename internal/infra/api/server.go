package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/api/apiv1"
)

// NewRouter assembles the full HTTP surface: the guarded v1 API plus the
// unauthenticated health and metrics endpoints.
func NewRouter(v1 *apiv1.Server, apiKey string, logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(
			TraceID(logger),
			RequestLog(logger),
			Timeout(30*time.Second),
			APIKey(apiKey),
		)
		apiv1.RegisterAPIV1(gr, v1)
	})

	// Recovery wraps the whole surface, health and metrics included.
	return Chain(r, Recover(logger))
}
