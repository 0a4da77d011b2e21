package titles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/renderdragon/backend/internal/logger"
)

const (
	// DefaultTimeout bounds a single completion
	DefaultTimeout = 60 * time.Second

	// DefaultMaxTokens caps the completion length
	DefaultMaxTokens = 200
)

// Completer sends one chat completion and returns the assistant text
type Completer func(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error)

// Options configures a Service
type Options struct {
	Timeout   time.Duration
	MaxTokens int
	Logger    *logger.Logger
}

// Service generates title suggestions. A nil Completer means the backend
// is not configured and every call fails with ErrMisconfigured.
type Service struct {
	complete  Completer
	timeout   time.Duration
	maxTokens int
	log       *logger.Logger
}

// NewService creates a title service
func NewService(complete Completer, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Service{
		complete:  complete,
		timeout:   opts.Timeout,
		maxTokens: opts.MaxTokens,
		log:       opts.Logger.WithComponent("titles"),
	}
}

// Configured reports whether a completion backend is wired
func (s *Service) Configured() bool {
	return s.complete != nil
}

// Generate asks the completion backend for suggestions. The call races the
// service timeout; whichever settles first decides the outcome and the
// loser is cancelled. Nothing is retried.
func (s *Service) Generate(ctx context.Context, req Request) ([]Suggestion, error) {
	if s.complete == nil {
		return nil, ErrMisconfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	temperature := Temperature(req.Creativity)
	prompt := Prompt(req)
	start := time.Now()

	go func() {
		text, err := s.complete(callCtx, systemMessage, prompt, temperature, s.maxTokens)
		done <- result{text: text, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-callCtx.Done():
		res.err = callCtx.Err()
	}

	if res.err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			s.log.Warn(ctx, "title generation timed out", map[string]interface{}{
				"timeout_ms": s.timeout.Milliseconds(),
			})
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("completion: %w", res.err)
	}

	suggestions, err := ParseSuggestions(res.text)
	if err != nil {
		s.log.WarnErr(ctx, "unusable completion", err, map[string]interface{}{
			"response_chars": len(res.text),
		})
		return nil, err
	}

	s.log.Info(ctx, "titles generated", map[string]interface{}{
		"count":       len(suggestions),
		"temperature": temperature,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return suggestions, nil
}
