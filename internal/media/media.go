// Package media resolves video metadata through a Provider, maps provider
// formats to user-facing download options and selects the format a download
// request asks for.
package media

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrMissingURL indicates the url parameter was absent
	ErrMissingURL = errors.New("missing url")

	// ErrMissingParams indicates one of url, format or quality was absent
	ErrMissingParams = errors.New("missing url, format or quality")

	// ErrInvalidURL indicates the url is not a supported video URL
	ErrInvalidURL = errors.New("invalid video url")

	// ErrFormatNotFound indicates no format matched the requested container and quality
	ErrFormatNotFound = errors.New("requested format and quality not found")
)

// Thumbnail is a provider-reported preview image
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// Format describes one encoding variant reported by a provider
type Format struct {
	// ID is the provider's identifier (itag or yt-dlp format id)
	ID            string
	Container     string
	MimeType      string
	QualityLabel  string
	AudioQuality  string
	ContentLength int64
	Bitrate       int

	// Source is the provider's own representation of the format
	Source any
}

// Video is the metadata a provider returns for one URL
type Video struct {
	ID         string
	Title      string
	Author     string
	Duration   time.Duration
	Thumbnails []Thumbnail
	Formats    []Format

	// Source is the provider's own representation of the video
	Source any
}

// Provider fetches metadata and byte streams from a video host
type Provider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// GetVideo resolves metadata for a video URL
	GetVideo(ctx context.Context, url string) (*Video, error)

	// OpenStream opens the byte stream of one of video's formats. The
	// returned size is 0 when unknown.
	OpenStream(ctx context.Context, video *Video, format *Format) (io.ReadCloser, int64, error)
}

// ProviderError wraps a failure reported by a Provider
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + " " + e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
