// Package apiv1 exposes the JSON management surface: sync triggers, webhook
// intake, job progress and read-side stats.
package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/usecase"
)

type Server struct {
	dispatcher usecase.DispatcherUseCase
	stats      usecase.StatsUseCase
	log        *zerolog.Logger
}

func NewServer(dispatcher usecase.DispatcherUseCase, stats usecase.StatsUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "APIv1").Logger()
	return &Server{dispatcher: dispatcher, stats: stats, log: &l}
}

// RegisterAPIV1 attaches the v1 routes to r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/stores/{storeID}/sync", s.handleSync)
		r.Post("/webhooks/{platform}", s.handleWebhook)
		r.Get("/jobs/{jobID}", s.handleJobStatus)
		r.Get("/stats", s.handleStats)
		r.Get("/products/{productID}/images", s.handleProductImages)
	})
}

// ---- wire types ----

type syncRequest struct {
	JobType string `json:"job_type"`
}

type webhookImage struct {
	ProductID       string `json:"product_id"`
	PlatformImageID string `json:"platform_image_id"`
	URL             string `json:"url"`
}

type webhookRequest struct {
	StoreID   string         `json:"store_id"`
	ProductID string         `json:"product_id"`
	Images    []webhookImage `json:"images"`
}

type jobResponse struct {
	ID          string     `json:"id"`
	StoreID     string     `json:"store_id"`
	Type        string     `json:"type"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type jobStatusResponse struct {
	Job    jobResponse     `json:"job"`
	Counts model.JobCounts `json:"counts"`
	Done   bool            `json:"done"`
}

type imageResponse struct {
	ID             string         `json:"id"`
	ProductID      string         `json:"product_id"`
	ImageRef       string         `json:"image_ref"`
	Status         string         `json:"status"`
	RejectReason   string         `json:"reject_reason,omitempty"`
	Score          *float64       `json:"score,omitempty"`
	Analysis       model.Analysis `json:"analysis,omitempty"`
	StorageLocator string         `json:"storage_locator,omitempty"`
	DuplicateOf    string         `json:"duplicate_of,omitempty"`
	Width          int            `json:"width,omitempty"`
	Height         int            `json:"height,omitempty"`
}

func toJobResponse(job *model.SyncJob) jobResponse {
	return jobResponse{
		ID:          job.ID,
		StoreID:     job.StoreID,
		Type:        string(job.Type),
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}

func toImageResponse(t *model.ImageTask) imageResponse {
	return imageResponse{
		ID:             t.ID,
		ProductID:      t.ProductID,
		ImageRef:       t.ImageRef,
		Status:         string(t.Status),
		RejectReason:   string(t.RejectReason),
		Score:          t.Score,
		Analysis:       t.Analysis,
		StorageLocator: t.StorageLocator,
		DuplicateOf:    t.DuplicateOf,
		Width:          t.Width,
		Height:         t.Height,
	}
}

// ---- handlers ----

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	jobType, err := model.ParseJobType(req.JobType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.dispatcher.Sync(r.Context(), storeID, jobType)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event := adapter.WebhookEvent{StoreID: req.StoreID, ProductID: req.ProductID}
	for _, img := range req.Images {
		productID := img.ProductID
		if productID == "" {
			productID = req.ProductID
		}
		event.Images = append(event.Images, adapter.ProductImageRef{
			ProductID:       productID,
			PlatformImageID: img.PlatformImageID,
			URL:             img.URL,
		})
	}

	job, err := s.dispatcher.HandleWebhook(r.Context(), event)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	s.log.Info().Str("platform", platform).Str("job_id", job.ID).Msg("webhook accepted")
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, counts, err := s.dispatcher.JobStatus(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobStatusResponse{
		Job:    toJobResponse(job),
		Counts: counts,
		Done:   counts.Done(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.stats.Totals(r.Context())
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleProductImages(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.stats.ImagesForProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	items := make([]imageResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, toImageResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ---- helpers ----

func (s *Server) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
