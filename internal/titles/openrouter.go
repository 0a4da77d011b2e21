package titles

import (
	"context"
	"net/http"

	"github.com/anatolykoptev/go-kit/llm"
)

// OpenRouterConfig describes an OpenAI-compatible completion endpoint
type OpenRouterConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// Referer and AppTitle are sent as HTTP-Referer and X-Title
	Referer  string
	AppTitle string
}

// NewOpenRouterCompleter returns a Completer backed by go-kit's llm client,
// or nil when no API key is configured. The client carries no timeout of its
// own; Service.Generate bounds each call.
func NewOpenRouterCompleter(cfg OpenRouterConfig) Completer {
	if cfg.APIKey == "" {
		return nil
	}

	httpClient := &http.Client{
		Transport: &attributionTransport{
			base:     http.DefaultTransport,
			referer:  cfg.Referer,
			appTitle: cfg.AppTitle,
		},
	}

	client := llm.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model,
		llm.WithMaxTokens(DefaultMaxTokens),
		llm.WithHTTPClient(httpClient),
	)

	return func(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
		return client.Complete(ctx, system, prompt,
			llm.WithChatTemperature(temperature),
			llm.WithChatMaxTokens(maxTokens),
		)
	}
}

type attributionTransport struct {
	base     http.RoundTripper
	referer  string
	appTitle string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.appTitle != "" {
		req.Header.Set("X-Title", t.appTitle)
	}
	return t.base.RoundTrip(req)
}
