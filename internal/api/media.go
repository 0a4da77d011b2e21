package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "github.com/renderdragon/backend/internal/errors"
	"github.com/renderdragon/backend/internal/logger"
	"github.com/renderdragon/backend/internal/media"
)

// MediaHandlers serves video info, downloads and thumbnails
type MediaHandlers struct {
	service    *media.Service
	thumbnails *media.ThumbnailFetcher
	validator  media.URLValidator
	log        *logger.Logger
}

func NewMediaHandlers(service *media.Service, thumbnails *media.ThumbnailFetcher, validator media.URLValidator, log *logger.Logger) *MediaHandlers {
	return &MediaHandlers{
		service:    service,
		thumbnails: thumbnails,
		validator:  validator,
		log:        log.WithComponent("api"),
	}
}

// Info handles GET /api/info?url=
func (h *MediaHandlers) Info(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	info, err := h.service.Info(ctx, r.URL.Query().Get("url"))
	if err != nil {
		return h.mediaError(r, err, "Failed to fetch video info")
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, info)
	return nil
}

// Download handles GET /api/download?url=&format=&quality= by proxying the
// selected format's bytes as an attachment.
func (h *MediaHandlers) Download(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	q := r.URL.Query()

	sel, err := h.service.Resolve(ctx, media.Query{
		URL:       q.Get("url"),
		Container: q.Get("format"),
		Quality:   q.Get("quality"),
	})
	if err != nil {
		return h.mediaError(r, err, "Failed to process video download")
	}

	body, size, err := h.service.Open(ctx, sel)
	if err != nil {
		return h.mediaError(r, err, "Failed to process video download")
	}
	defer body.Close()

	w.Header().Set("Content-Type", sel.ContentType)
	w.Header().Set("Content-Disposition", media.ContentDisposition(sel.Filename))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, body)
	if err != nil {
		// Headers are gone; the client sees a truncated body.
		h.log.WarnErr(ctx, "download stream interrupted", err, map[string]interface{}{
			"video_id": sel.Video.ID,
			"format":   sel.Format.ID,
			"bytes":    n,
		})
		return nil
	}

	h.log.Info(ctx, "download completed", map[string]interface{}{
		"video_id": sel.Video.ID,
		"format":   sel.Format.ID,
		"bytes":    n,
	})
	return nil
}

// DownloadThumbnail handles GET /api/downloadThumbnail?url=&title=
func (h *MediaHandlers) DownloadThumbnail(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	q := r.URL.Query()

	thumb, err := h.thumbnails.Fetch(ctx, q.Get("url"), q.Get("title"))
	switch {
	case errors.Is(err, media.ErrMissingThumbnailURL):
		return apperrors.InvalidInput("Thumbnail URL is required")
	case errors.Is(err, media.ErrInvalidThumbnailURL):
		return apperrors.InvalidURL("Invalid thumbnail URL")
	case err != nil:
		h.log.Error(ctx, "thumbnail download failed", err)
		return apperrors.UpstreamError("Failed to download thumbnail").WithCause(err)
	}
	defer thumb.Body.Close()

	w.Header().Set("Content-Type", thumb.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+thumb.Filename+`"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, thumb.Body); err != nil {
		h.log.WarnErr(ctx, "thumbnail stream interrupted", err)
	}
	return nil
}

// Validate handles GET /api/validate?url=
func (h *MediaHandlers) Validate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		return apperrors.InvalidInput("Missing or invalid URL parameter")
	}

	result := h.validator.Validate(rawURL)
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), status, result)
	return nil
}

// mediaError maps media failures to client errors. Anything else is an
// upstream failure reported with failMessage and the cause as detail.
func (h *MediaHandlers) mediaError(r *http.Request, err error, failMessage string) error {
	switch {
	case errors.Is(err, media.ErrMissingURL):
		return apperrors.InvalidInput("Missing or invalid URL parameter")
	case errors.Is(err, media.ErrMissingParams):
		return apperrors.InvalidInput("Missing parameters (url, format, or quality)")
	case errors.Is(err, media.ErrInvalidURL):
		return apperrors.InvalidURL("Invalid YouTube URL")
	case errors.Is(err, media.ErrFormatNotFound):
		return apperrors.NotFound("Requested format and quality not found.")
	}

	h.log.Error(r.Context(), failMessage, err, map[string]interface{}{
		"path": r.URL.Path,
	})
	return apperrors.UpstreamError(failMessage).WithDetail(err.Error()).WithCause(err)
}
