package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/renderdragon/backend/internal/logger"
	"github.com/renderdragon/backend/internal/validators"
)

const defaultContentType = "application/octet-stream"

// URLValidator checks that a URL belongs to a supported video host
type URLValidator interface {
	Validate(url string) validators.ValidationResult
}

// Query is a download request
type Query struct {
	URL       string
	Container string
	Quality   string
}

// Selection is a resolved download: the format to stream and the headers to send
type Selection struct {
	Video       *Video
	Format      *Format
	Filename    string
	ContentType string
}

// Service resolves video info and download selections. It holds no
// per-request state.
type Service struct {
	provider  Provider
	validator URLValidator
	log       *logger.Logger
}

// NewService creates a media service
func NewService(provider Provider, validator URLValidator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		provider:  provider,
		validator: validator,
		log:       log.WithComponent("media"),
	}
}

// Info resolves metadata for rawURL with a single provider call
func (s *Service) Info(ctx context.Context, rawURL string) (*Info, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	target, err := s.validate(rawURL)
	if err != nil {
		return nil, err
	}

	video, err := s.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	info := BuildInfo(video)
	s.log.Debug(ctx, "video info resolved", map[string]interface{}{
		"video_id": video.ID,
		"formats":  len(video.Formats),
		"options":  len(info.Options),
	})
	return info, nil
}

// Resolve validates q, re-fetches metadata and selects the matching format
func (s *Service) Resolve(ctx context.Context, q Query) (*Selection, error) {
	q.URL = strings.TrimSpace(q.URL)
	if q.URL == "" || q.Container == "" || q.Quality == "" {
		return nil, ErrMissingParams
	}

	target, err := s.validate(q.URL)
	if err != nil {
		return nil, err
	}

	video, err := s.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	format, ok := Select(video.Formats, q.Container, q.Quality)
	if !ok {
		return nil, ErrFormatNotFound
	}

	contentType := format.MimeType
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Selection{
		Video:       video,
		Format:      format,
		Filename:    Filename(video.Title, format.Container),
		ContentType: contentType,
	}, nil
}

// Open opens the byte stream of a resolved selection
func (s *Service) Open(ctx context.Context, sel *Selection) (io.ReadCloser, int64, error) {
	body, size, err := s.provider.OpenStream(ctx, sel.Video, sel.Format)
	if err != nil {
		return nil, 0, &ProviderError{Provider: s.provider.Name(), Op: "open stream", Err: err}
	}
	return body, size, nil
}

func (s *Service) validate(rawURL string) (string, error) {
	result := s.validator.Validate(rawURL)
	if !result.Valid {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, result.Error)
	}
	return result.Canonical, nil
}

func (s *Service) fetch(ctx context.Context, target string) (*Video, error) {
	video, err := s.provider.GetVideo(ctx, target)
	if err != nil {
		return nil, &ProviderError{Provider: s.provider.Name(), Op: "get video", Err: err}
	}
	return video, nil
}
