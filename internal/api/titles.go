package api

import (
	"errors"
	"io"
	"net/http"

	apperrors "github.com/renderdragon/backend/internal/errors"
	"github.com/renderdragon/backend/internal/logger"
	"github.com/renderdragon/backend/internal/metrics"
	"github.com/renderdragon/backend/internal/quota"
	"github.com/renderdragon/backend/internal/titles"
)

const maxTitleBodyBytes = 64 << 10

// TitleHandlers serves AI title suggestions and the per-client quota
type TitleHandlers struct {
	service *titles.Service
	quota   *quota.Quota
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewTitleHandlers(service *titles.Service, q *quota.Quota, m *metrics.Metrics, log *logger.Logger) *TitleHandlers {
	return &TitleHandlers{
		service: service,
		quota:   q,
		metrics: m,
		log:     log.WithComponent("api"),
	}
}

type generateTitlesResponse struct {
	Titles []titles.Suggestion `json:"titles"`
}

// Generate handles POST /api/generateTitles
func (h *TitleHandlers) Generate(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return apperrors.MethodNotAllowed()
	}
	ctx := r.Context()

	if h.service == nil || !h.service.Configured() {
		h.log.Warn(ctx, "title generation requested without an api key")
		return apperrors.Misconfigured("Server misconfiguration: missing API key")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTitleBodyBytes))
	if err != nil {
		return apperrors.InvalidInput("Invalid request body").WithCause(err)
	}

	req, err := titles.ParseRequest(body)
	switch {
	case errors.Is(err, titles.ErrMissingDescription):
		return apperrors.InvalidInput("Video description is required")
	case errors.Is(err, titles.ErrInvalidCreativity):
		return apperrors.InvalidInput("Creativity level is required and must be a number between 0 and 100")
	case err != nil:
		return apperrors.InvalidInput("Invalid request body").WithCause(err)
	}

	client := logger.ClientIP(r)
	if !h.quota.Allow(ctx, client) {
		h.record("quota_exceeded")
		return apperrors.RateLimited("Title generation limit reached. Please try again later.")
	}

	suggestions, err := h.service.Generate(ctx, req)
	if errors.Is(err, titles.ErrTimeout) {
		h.record("timeout")
		return apperrors.Timeout("Request timed out").WithDetail("Request timed out").WithCause(err)
	}
	if err != nil {
		h.record("error")
		h.log.Error(ctx, "title generation failed", err)
		return apperrors.UpstreamError("Failed to generate titles").WithDetail(err.Error()).WithCause(err)
	}

	h.record("success")
	h.quota.Charge(ctx, client)

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, generateTitlesResponse{Titles: suggestions})
	return nil
}

// Quota handles GET /api/generateTitles/quota
func (h *TitleHandlers) Quota(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	status := h.quota.Status(ctx, logger.ClientIP(r))
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, status)
	return nil
}

func (h *TitleHandlers) record(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordTitleGeneration(outcome)
	}
}
