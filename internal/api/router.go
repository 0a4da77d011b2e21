package api

import (
	"net/http"
	"time"

	apperrors "github.com/renderdragon/backend/internal/errors"
	"github.com/renderdragon/backend/internal/health"
	"github.com/renderdragon/backend/internal/logger"
	"github.com/renderdragon/backend/internal/media"
	"github.com/renderdragon/backend/internal/metrics"
	"github.com/renderdragon/backend/internal/quota"
	"github.com/renderdragon/backend/internal/titles"
)

// Config wires the services behind the HTTP surface. Metrics, Health and
// Quota are optional.
type Config struct {
	Media      *media.Service
	Thumbnails *media.ThumbnailFetcher
	Validator  media.URLValidator
	Titles     *titles.Service
	Quota      *quota.Quota
	Metrics    *metrics.Metrics
	Health     *health.Handler

	// CopyrightKeyNames are reported in order by /api/check-copyright-keys
	CopyrightKeyNames []string
	CopyrightKeys     map[string]string

	Logger *logger.Logger
	Now    func() time.Time
}

type Router struct {
	mux   *http.ServeMux
	media *MediaHandlers
	title *TitleHandlers
	stats *StatsHandlers
	cfg   Config
}

func NewRouter(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Router{
		mux:   http.NewServeMux(),
		media: NewMediaHandlers(cfg.Media, cfg.Thumbnails, cfg.Validator, cfg.Logger),
		title: NewTitleHandlers(cfg.Titles, cfg.Quota, cfg.Metrics, cfg.Logger),
		stats: NewStatsHandlers(cfg.CopyrightKeyNames, cfg.CopyrightKeys, cfg.Now, cfg.Logger),
		cfg:   cfg,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Health and metrics
	if r.cfg.Health != nil {
		r.mux.HandleFunc("GET /health", r.cfg.Health.HealthHandler)
		r.mux.HandleFunc("GET /health/live", r.cfg.Health.LivenessHandler)
		r.mux.HandleFunc("GET /health/ready", r.cfg.Health.ReadinessHandler)
	}
	if r.cfg.Metrics != nil {
		r.mux.Handle("GET /metrics", r.cfg.Metrics.Handler())
	}

	// Video info and downloads
	r.mux.HandleFunc("GET /api/info", apperrors.HandleFunc(r.media.Info))
	r.mux.HandleFunc("GET /api/download", apperrors.HandleFunc(r.media.Download))
	r.mux.HandleFunc("GET /api/downloadThumbnail", apperrors.HandleFunc(r.media.DownloadThumbnail))
	r.mux.HandleFunc("GET /api/validate", apperrors.HandleFunc(r.media.Validate))

	// Title generation. Every method is routed here so non-POST gets a JSON 405.
	r.mux.HandleFunc("/api/generateTitles", apperrors.HandleFunc(r.title.Generate))
	r.mux.HandleFunc("GET /api/generateTitles/quota", apperrors.HandleFunc(r.title.Quota))

	// Stats
	r.mux.HandleFunc("GET /api/stats/downloads", apperrors.HandleFunc(r.stats.Downloads))
	r.mux.HandleFunc("GET /api/check-copyright-keys", apperrors.HandleFunc(r.stats.CopyrightKeys))

	r.mux.HandleFunc("/", apperrors.HandleFunc(notFound))
}

func notFound(w http.ResponseWriter, r *http.Request) error {
	return apperrors.NotFound("Route not found")
}
