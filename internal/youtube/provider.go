// Package youtube adapts github.com/kkdai/youtube to the media.Provider port.
package youtube

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/kkdai/youtube/v2"

	"github.com/renderdragon/backend/internal/media"
)

// ErrForeignVideo indicates a video or format was not produced by this provider
var ErrForeignVideo = errors.New("video was not resolved by the native provider")

// Provider resolves videos with the pure-Go YouTube client
type Provider struct {
	client *youtube.Client
}

// New creates a provider. A non-empty userAgent is sent on every request.
func New(userAgent string) *Provider {
	httpClient := &http.Client{
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: userAgent},
	}
	return &Provider{client: &youtube.Client{HTTPClient: httpClient}}
}

// Name identifies the provider
func (p *Provider) Name() string {
	return "native"
}

// GetVideo resolves metadata for url
func (p *Provider) GetVideo(ctx context.Context, url string) (*media.Video, error) {
	v, err := p.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return toVideo(v), nil
}

// OpenStream opens the stream of a format returned by GetVideo
func (p *Provider) OpenStream(ctx context.Context, video *media.Video, format *media.Format) (io.ReadCloser, int64, error) {
	src, ok := video.Source.(*youtube.Video)
	if !ok {
		return nil, 0, ErrForeignVideo
	}
	f, ok := format.Source.(*youtube.Format)
	if !ok {
		return nil, 0, ErrForeignVideo
	}
	return p.client.GetStreamContext(ctx, src, f)
}

func toVideo(v *youtube.Video) *media.Video {
	thumbs := make([]media.Thumbnail, 0, len(v.Thumbnails))
	for _, t := range v.Thumbnails {
		thumbs = append(thumbs, media.Thumbnail{URL: t.URL, Width: int(t.Width), Height: int(t.Height)})
	}

	formats := make([]media.Format, 0, len(v.Formats))
	for i := range v.Formats {
		f := &v.Formats[i]
		formats = append(formats, media.Format{
			ID:            strconv.Itoa(f.ItagNo),
			Container:     media.ContainerFromMime(f.MimeType),
			MimeType:      f.MimeType,
			QualityLabel:  f.QualityLabel,
			AudioQuality:  f.AudioQuality,
			ContentLength: f.ContentLength,
			Bitrate:       f.Bitrate,
			Source:        f,
		})
	}

	return &media.Video{
		ID:         v.ID,
		Title:      v.Title,
		Author:     v.Author,
		Duration:   v.Duration,
		Thumbnails: thumbs,
		Formats:    formats,
		Source:     v,
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" || req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}
