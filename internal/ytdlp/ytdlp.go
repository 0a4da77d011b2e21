// Package ytdlp adapts the yt-dlp command line tool to the media.Provider port.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/renderdragon/backend/internal/media"
)

// Config holds configuration for the yt-dlp provider
type Config struct {
	// YtdlpPath is the path to yt-dlp binary (default: "yt-dlp")
	YtdlpPath string
	// UserAgent is passed with --user-agent when set
	UserAgent string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		YtdlpPath: "yt-dlp",
	}
}

// Service wraps yt-dlp for metadata extraction and streaming
type Service struct {
	cfg *Config
}

// New creates a new yt-dlp provider
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.YtdlpPath == "" {
		cfg.YtdlpPath = "yt-dlp"
	}

	// Verify yt-dlp is available
	if _, err := exec.LookPath(cfg.YtdlpPath); err != nil {
		return nil, ErrYtdlpNotFound
	}

	return &Service{cfg: cfg}, nil
}

// Name identifies the provider
func (s *Service) Name() string {
	return "ytdlp"
}

// Check verifies the binary is still resolvable
func (s *Service) Check(ctx context.Context) error {
	if _, err := exec.LookPath(s.cfg.YtdlpPath); err != nil {
		return ErrYtdlpNotFound
	}
	return nil
}

// GetVideo retrieves metadata for a URL without downloading
func (s *Service) GetVideo(ctx context.Context, sourceURL string) (*media.Video, error) {
	args := s.baseArgs(
		"--dump-json",
		"--no-download",
		"--no-playlist",
	)
	args = append(args, sourceURL)

	cmd := exec.CommandContext(ctx, s.cfg.YtdlpPath, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, categorizeError("extract", sourceURL, err, string(exitErr.Stderr))
		}
		return nil, categorizeError("extract", sourceURL, err, "")
	}

	return parseOutput(sourceURL, output)
}

// OpenStream pipes the selected format from yt-dlp's stdout. Closing the
// returned reader waits for the process to exit.
func (s *Service) OpenStream(ctx context.Context, video *media.Video, format *media.Format) (io.ReadCloser, int64, error) {
	src, ok := video.Source.(*Output)
	if !ok || format.ID == "" {
		return nil, 0, ErrForeignVideo
	}

	target := src.WebpageURL
	if target == "" {
		target = "https://www.youtube.com/watch?v=" + src.ID
	}

	args := s.baseArgs(
		"-f", format.ID,
		"-o", "-",
		"--no-playlist",
		"--no-part",
		"--quiet",
	)
	args = append(args, target)

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, s.cfg.YtdlpPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, 0, &ExtractError{URL: target, Op: "stream", Message: "failed to create stdout pipe", Err: err}
	}
	stderr := &limitedBuffer{max: 8 << 10}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, 0, categorizeError("stream", target, err, "")
	}

	return &streamReader{
		ReadCloser: stdout,
		cmd:        cmd,
		cancel:     cancel,
		stderr:     stderr,
		url:        target,
	}, format.ContentLength, nil
}

func (s *Service) baseArgs(args ...string) []string {
	out := make([]string, 0, len(args)+4)
	out = append(out, args...)
	out = append(out, "--no-warnings")
	if s.cfg.UserAgent != "" {
		out = append(out, "--user-agent", s.cfg.UserAgent)
	}
	return out
}

func parseOutput(sourceURL string, raw []byte) (*media.Video, error) {
	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ExtractError{URL: sourceURL, Op: "extract", Message: "failed to parse metadata", Err: err}
	}
	if out.ID == "" {
		return nil, &ExtractError{URL: sourceURL, Op: "extract", Message: "metadata has no id", Err: ErrExtractFailed}
	}
	return out.ToVideo(), nil
}

// categorizeError converts yt-dlp errors into specific error types
func categorizeError(op, sourceURL string, err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return &ExtractError{URL: sourceURL, Op: op, Message: "yt-dlp not found", Err: ErrYtdlpNotFound}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ExtractError{URL: sourceURL, Op: op, Message: "aborted", Err: err}
	}

	stderrLower := strings.ToLower(stderr)

	switch {
	case strings.Contains(stderrLower, "private video") ||
		strings.Contains(stderrLower, "is private"):
		return &ExtractError{URL: sourceURL, Op: op, Message: "video is private", Err: ErrVideoPrivate}

	case strings.Contains(stderrLower, "video unavailable") ||
		strings.Contains(stderrLower, "this video is unavailable"):
		return &ExtractError{URL: sourceURL, Op: op, Message: "video unavailable", Err: ErrVideoUnavailable}

	case strings.Contains(stderrLower, "age-restricted") ||
		strings.Contains(stderrLower, "sign in to confirm your age"):
		return &ExtractError{URL: sourceURL, Op: op, Message: "content is age-restricted", Err: ErrAgeRestricted}

	case strings.Contains(stderrLower, "http error 429") ||
		strings.Contains(stderrLower, "too many requests"):
		return &ExtractError{URL: sourceURL, Op: op, Message: "rate limited", Err: ErrRateLimited}

	case strings.Contains(stderrLower, "unable to download") ||
		strings.Contains(stderrLower, "connection") ||
		strings.Contains(stderrLower, "network"):
		return &ExtractError{URL: sourceURL, Op: op, Message: "network error", Err: ErrNetworkError}

	case strings.Contains(stderrLower, "unsupported url") ||
		strings.Contains(stderrLower, "no suitable extractor"):
		return &ExtractError{URL: sourceURL, Op: op, Message: "url not supported", Err: ErrURLNotSupported}

	default:
		return &ExtractError{URL: sourceURL, Op: op, Message: "yt-dlp failed", Err: fmt.Errorf("%w: %s", ErrExtractFailed, strings.TrimSpace(stderr))}
	}
}

type streamReader struct {
	io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *limitedBuffer
	url    string

	once     sync.Once
	mu       sync.Mutex
	finished bool
	err      error
}

// Read surfaces a categorized error when yt-dlp exits non-zero mid-stream.
func (r *streamReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err == io.EOF {
		if werr := r.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// Close reports the exit error only when the stream was read to the end.
// An early close kills the process and its exit status is ignored.
func (r *streamReader) Close() error {
	r.mu.Lock()
	finished := r.finished
	r.mu.Unlock()

	r.cancel()
	r.ReadCloser.Close()
	err := r.wait()
	if !finished {
		return nil
	}
	return err
}

func (r *streamReader) wait() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.finished = true
		r.mu.Unlock()
		if err := r.cmd.Wait(); err != nil {
			r.err = categorizeError("stream", r.url, err, r.stderr.String())
		}
		r.cancel()
	})
	return r.err
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
