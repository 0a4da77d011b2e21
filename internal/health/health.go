package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status     Status                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Check is one named readiness probe. A failing check marks the service
// unhealthy unless Degraded is set, in which case it only degrades it.
type Check struct {
	Name     string
	Run      func(ctx context.Context) error
	Degraded bool
}

// Pinger is satisfied by Redis-backed components
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisCheck probes a Redis-backed component
func RedisCheck(p Pinger) Check {
	return Check{Name: "redis", Run: p.Ping}
}

// CredentialCheck degrades readiness when a required secret is absent
func CredentialCheck(name string, present bool) Check {
	return Check{
		Name:     name,
		Degraded: true,
		Run: func(context.Context) error {
			if !present {
				return errors.New("credential not configured")
			}
			return nil
		},
	}
}

// Checker performs health checks on various components
type Checker struct {
	checks       []Check
	version      string
	checkTimeout time.Duration
}

// CheckerConfig holds configuration for the health checker
type CheckerConfig struct {
	Checks  []Check
	Version string
	Timeout time.Duration
}

// NewChecker creates a new health checker
func NewChecker(cfg *CheckerConfig) *Checker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:       cfg.Checks,
		version:      cfg.Version,
		checkTimeout: timeout,
	}
}

func (c *Checker) run(ctx context.Context, check Check) ComponentHealth {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	if err := check.Run(ctx); err != nil {
		status := StatusUnhealthy
		if check.Degraded {
			status = StatusDegraded
		}
		return ComponentHealth{
			Status:   status,
			Message:  check.Name + " check failed: " + err.Error(),
			Duration: time.Since(start).String(),
		}
	}

	return ComponentHealth{
		Status:   StatusHealthy,
		Duration: time.Since(start).String(),
	}
}

// Check performs a basic health check (liveness)
func (c *Checker) Check(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
	}
}

// DeepCheck performs a comprehensive health check (readiness)
func (c *Checker) DeepCheck(ctx context.Context) *HealthResponse {
	response := &HealthResponse{
		Status:     StatusHealthy,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Version:    c.version,
		Components: make(map[string]ComponentHealth, len(c.checks)),
	}

	// Checks report failures as component status, so the group never errors.
	var mu sync.Mutex
	var g errgroup.Group
	for _, check := range c.checks {
		g.Go(func() error {
			result := c.run(ctx, check)
			mu.Lock()
			response.Components[check.Name] = result
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	// Determine overall status
	for _, comp := range response.Components {
		if comp.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
			break
		} else if comp.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	return response
}

// Handler provides HTTP handlers for health endpoints
type Handler struct {
	checker *Checker
}

// NewHandler creates a new health handler
func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// LivenessHandler handles liveness probe requests
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.checker.Check(r.Context()))
}

// ReadinessHandler handles readiness probe requests. Degraded still
// accepts traffic.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.checker.DeepCheck(r.Context()))
}

// HealthHandler serves liveness, or readiness when deep=true
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") == "true" {
		h.ReadinessHandler(w, r)
		return
	}
	h.LivenessHandler(w, r)
}

func writeResponse(w http.ResponseWriter, response *HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	if response.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}
