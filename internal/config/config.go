package config

import (
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Provider names accepted by VIDEO_PROVIDER
const (
	ProviderNative = "native"
	ProviderYtdlp  = "ytdlp"
)

// Copyright lookup credentials probed by /api/check-copyright-keys, in report order
var CopyrightKeyNames = []string{
	"VITE_YOUTUBE_API_KEY",
	"VITE_CONTENT_ID_API_KEY",
	"VITE_AUDIO_DB_API_KEY",
}

type Config struct {
	ServerAddr      string
	LogLevel        string
	Version         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	SlowRequest     time.Duration

	// Video provider
	VideoProvider string
	YtdlpPath     string
	UserAgent     string

	// Title generation
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	TitlesModel       string
	TitlesTimeout     time.Duration
	TitlesMaxTokens   int
	TitlesReferer     string
	TitlesAppTitle    string

	// Optional Redis-backed quota
	RedisURL         string
	TitleQuotaLimit  int
	TitleQuotaWindow time.Duration

	// Per-client throttling, 0 disables
	RateLimitRPS   float64
	RateLimitBurst int

	ThumbnailTimeout time.Duration

	// CopyrightKeys holds the values of CopyrightKeyNames, keyed by name
	CopyrightKeys map[string]string
}

// Load reads an optional .env file and then the process environment
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	keys := make(map[string]string, len(CopyrightKeyNames))
	for _, name := range CopyrightKeyNames {
		keys[name] = os.Getenv(name)
	}

	return &Config{
		ServerAddr:      env.Str("SERVER_ADDR", ":8080"),
		LogLevel:        env.Str("LOG_LEVEL", "info"),
		Version:         env.Str("APP_VERSION", "dev"),
		AllowedOrigins:  env.List("CORS_ALLOWED_ORIGINS", "*"),
		ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SlowRequest:     env.Duration("SLOW_REQUEST_THRESHOLD", 500*time.Millisecond),

		VideoProvider: env.Str("VIDEO_PROVIDER", ProviderNative),
		YtdlpPath:     env.Str("YTDLP_PATH", "yt-dlp"),
		UserAgent:     env.Str("PROVIDER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"),

		OpenRouterAPIKey:  env.Str("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: env.Str("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		TitlesModel:       env.Str("TITLES_MODEL", "google/gemini-2.5-flash-preview-05-20"),
		TitlesTimeout:     env.Duration("TITLES_TIMEOUT", 60*time.Second),
		TitlesMaxTokens:   env.Int("TITLES_MAX_TOKENS", 200),
		TitlesReferer:     env.Str("TITLES_REFERER", "https://renderdragon.org"),
		TitlesAppTitle:    env.Str("TITLES_APP_TITLE", "Renderdragon"),

		RedisURL:         env.Str("REDIS_URL", ""),
		TitleQuotaLimit:  env.Int("TITLE_QUOTA_LIMIT", 5),
		TitleQuotaWindow: env.Duration("TITLE_QUOTA_WINDOW", 30*24*time.Hour),

		RateLimitRPS:   env.Float("RATE_LIMIT_RPS", 10),
		RateLimitBurst: env.Int("RATE_LIMIT_BURST", 20),

		ThumbnailTimeout: env.Duration("THUMBNAIL_TIMEOUT", 15*time.Second),

		CopyrightKeys: keys,
	}
}

// QuotaEnabled reports whether the server-side title quota should be wired
func (c *Config) QuotaEnabled() bool {
	return c.RedisURL != "" && c.TitleQuotaLimit > 0
}
