package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/renderdragon/backend/internal/errors"
)

var (
	// ErrMissingThumbnailURL indicates the thumbnail url parameter was absent
	ErrMissingThumbnailURL = errors.New("thumbnail url is required")

	// ErrInvalidThumbnailURL indicates the thumbnail url is not absolute http(s)
	ErrInvalidThumbnailURL = errors.New("invalid thumbnail url")
)

var unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

const defaultThumbnailTitle = "thumbnail"

// ThumbnailFetcher downloads thumbnail images for re-serving as attachments
type ThumbnailFetcher struct {
	client    *http.Client
	userAgent string
	retry     *apperrors.RetryConfig
}

// NewThumbnailFetcher creates a fetcher whose requests are bounded by timeout
func NewThumbnailFetcher(timeout time.Duration, userAgent string) *ThumbnailFetcher {
	return &ThumbnailFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retry:     apperrors.ThumbnailRetryConfig(),
	}
}

// upstreamStatusError is a non-2xx answer from the image host
type upstreamStatusError struct {
	status string
	code   int
}

func (e *upstreamStatusError) Error() string {
	return "upstream status " + e.status
}

func (e *upstreamStatusError) Retryable() bool {
	return apperrors.HTTPRetryableStatus(e.code)
}

// ThumbnailStream is an open upstream image
type ThumbnailStream struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Fetch opens rawURL and names the attachment after title
func (f *ThumbnailFetcher) Fetch(ctx context.Context, rawURL, title string) (*ThumbnailStream, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrMissingThumbnailURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidThumbnailURL
	}

	resp, err := apperrors.RetryWithResult(ctx, f.retry, func(ctx context.Context) (*http.Response, error) {
		return f.get(ctx, parsed.String())
	})
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return &ThumbnailStream{
		Body:        resp.Body,
		ContentType: contentType,
		Filename:    ThumbnailFilename(title, contentType),
	}, nil
}

func (f *ThumbnailFetcher) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &upstreamStatusError{status: resp.Status, code: resp.StatusCode}
	}
	return resp, nil
}

// ThumbnailFilename replaces everything but ASCII letters, digits, '-' and '_'
// in title and picks the extension from contentType.
func ThumbnailFilename(title, contentType string) string {
	if title == "" {
		title = defaultThumbnailTitle
	}
	safe := unsafeTitleChars.ReplaceAllString(title, "_")

	ext := "jpg"
	switch {
	case strings.Contains(contentType, "webp"):
		ext = "webp"
	case strings.Contains(contentType, "png"):
		ext = "png"
	}
	return safe + "." + ext
}
