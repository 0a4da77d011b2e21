package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/renderdragon/backend/internal/api"
	"github.com/renderdragon/backend/internal/config"
	"github.com/renderdragon/backend/internal/health"
	"github.com/renderdragon/backend/internal/logger"
	"github.com/renderdragon/backend/internal/media"
	"github.com/renderdragon/backend/internal/metrics"
	"github.com/renderdragon/backend/internal/middleware"
	"github.com/renderdragon/backend/internal/quota"
	"github.com/renderdragon/backend/internal/titles"
	"github.com/renderdragon/backend/internal/validators"
	"github.com/renderdragon/backend/internal/youtube"
	"github.com/renderdragon/backend/internal/ytdlp"
)

func main() {
	cfg := config.Load()

	log := logger.New(&logger.Config{Output: os.Stdout, Level: logger.ParseLevel(cfg.LogLevel)})
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := []health.Check{
		health.CredentialCheck("ai_credentials", cfg.OpenRouterAPIKey != ""),
	}

	provider, providerCheck, err := newProvider(cfg)
	if err != nil {
		log.Error(ctx, "failed to initialise video provider", err, map[string]interface{}{
			"provider": cfg.VideoProvider,
		})
		os.Exit(1)
	}
	if providerCheck != nil {
		checks = append(checks, *providerCheck)
	}

	var q *quota.Quota
	if cfg.QuotaEnabled() {
		client, err := quota.Connect(ctx, cfg.RedisURL)
		if err != nil {
			// Quota is optional; generation stays available without it.
			log.WarnErr(ctx, "redis unavailable, title quota disabled", err)
		} else {
			q = quota.New(client, quota.Options{
				Limit:  cfg.TitleQuotaLimit,
				Window: cfg.TitleQuotaWindow,
				Logger: log,
			})
			defer q.Close()
			checks = append(checks, health.RedisCheck(q))
		}
	}

	registry := validators.DefaultRegistry()
	mediaService := media.NewService(metrics.InstrumentProvider(provider, m), registry, log)

	titleService := titles.NewService(
		titles.NewOpenRouterCompleter(titles.OpenRouterConfig{
			BaseURL:  cfg.OpenRouterBaseURL,
			APIKey:   cfg.OpenRouterAPIKey,
			Model:    cfg.TitlesModel,
			Referer:  cfg.TitlesReferer,
			AppTitle: cfg.TitlesAppTitle,
		}),
		titles.Options{
			Timeout:   cfg.TitlesTimeout,
			MaxTokens: cfg.TitlesMaxTokens,
			Logger:    log,
		},
	)
	if !titleService.Configured() {
		log.Warn(ctx, "OPENROUTER_API_KEY not set, title generation will fail")
	}

	healthHandler := health.NewHandler(health.NewChecker(&health.CheckerConfig{
		Checks:  checks,
		Version: cfg.Version,
	}))

	router := api.NewRouter(api.Config{
		Media:             mediaService,
		Thumbnails:        media.NewThumbnailFetcher(cfg.ThumbnailTimeout, cfg.UserAgent),
		Validator:         registry,
		Titles:            titleService,
		Quota:             q,
		Metrics:           m,
		Health:            healthHandler,
		CopyrightKeyNames: config.CopyrightKeyNames,
		CopyrightKeys:     cfg.CopyrightKeys,
		Logger:            log,
	})

	handler := middleware.Chain(router,
		middleware.Recoverer(log),
		middleware.RequestID,
		middleware.Logging(log, cfg.SlowRequest),
		middleware.ServerTiming,
		metrics.Middleware(m),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		middleware.Gzip,
		middleware.ETag,
	)

	// No write timeout: downloads stream for as long as the upstream does.
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting server", map[string]interface{}{
			"addr":     cfg.ServerAddr,
			"provider": provider.Name(),
			"quota":    q.Enabled(),
			"version":  cfg.Version,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server failed", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", err)
	}
}

// newProvider builds the configured video provider and, for providers with
// an external dependency, a readiness check for it.
func newProvider(cfg *config.Config) (media.Provider, *health.Check, error) {
	switch cfg.VideoProvider {
	case config.ProviderYtdlp:
		p, err := ytdlp.New(&ytdlp.Config{YtdlpPath: cfg.YtdlpPath, UserAgent: cfg.UserAgent})
		if err != nil {
			return nil, nil, err
		}
		return p, &health.Check{Name: "ytdlp", Run: p.Check}, nil
	case config.ProviderNative, "":
		return youtube.New(cfg.UserAgent), nil, nil
	default:
		return nil, nil, errors.New("unknown VIDEO_PROVIDER " + cfg.VideoProvider)
	}
}
