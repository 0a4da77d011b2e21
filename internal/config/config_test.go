package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SERVER_ADDR", "VIDEO_PROVIDER", "TITLES_TIMEOUT", "REDIS_URL", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, ProviderNative, cfg.VideoProvider)
	assert.Equal(t, 60*time.Second, cfg.TitlesTimeout)
	assert.Equal(t, 200, cfg.TitlesMaxTokens)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouterBaseURL)
	assert.False(t, cfg.QuotaEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("VIDEO_PROVIDER", ProviderYtdlp)
	t.Setenv("TITLES_TIMEOUT", "5s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TITLE_QUOTA_LIMIT", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://renderdragon.org,https://www.renderdragon.org")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, ProviderYtdlp, cfg.VideoProvider)
	assert.Equal(t, 5*time.Second, cfg.TitlesTimeout)
	assert.Equal(t, 3, cfg.TitleQuotaLimit)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.True(t, cfg.QuotaEnabled())
}

func TestLoad_CopyrightKeys(t *testing.T) {
	t.Setenv("VITE_YOUTUBE_API_KEY", "yt")
	t.Setenv("VITE_CONTENT_ID_API_KEY", "")
	t.Setenv("VITE_AUDIO_DB_API_KEY", "adb")

	cfg := Load()

	assert.Equal(t, "yt", cfg.CopyrightKeys["VITE_YOUTUBE_API_KEY"])
	assert.Equal(t, "", cfg.CopyrightKeys["VITE_CONTENT_ID_API_KEY"])
	assert.Equal(t, "adb", cfg.CopyrightKeys["VITE_AUDIO_DB_API_KEY"])
}

func TestQuotaEnabled_RequiresPositiveLimit(t *testing.T) {
	cfg := &Config{RedisURL: "redis://localhost:6379", TitleQuotaLimit: 0}
	assert.False(t, cfg.QuotaEnabled())
}
