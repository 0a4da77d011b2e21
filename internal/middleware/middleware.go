package middleware

import (
	"net/http"
	"time"

	apperrors "github.com/renderdragon/backend/internal/errors"
	"github.com/renderdragon/backend/internal/logger"
)

const (
	// RequestIDHeader is the header name for request IDs
	RequestIDHeader = apperrors.RequestIDHeader
	// TraceIDHeader is the header name for trace IDs (for distributed tracing)
	TraceIDHeader = "X-Trace-ID"

	maxRequestIDLength = 128
)

// RequestID middleware adds request ID tracking to all requests
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get or generate request ID
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = apperrors.GenerateRequestID()
		}

		// Get trace ID if provided (for distributed tracing)
		traceID := r.Header.Get(TraceIDHeader)

		ctx := logger.WithRequestID(r.Context(), requestID)
		if traceID != "" {
			ctx = logger.WithTraceID(ctx, traceID)
		}

		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging middleware logs all HTTP requests with structured logging.
// Requests slower than slow are logged at warn level; zero disables that.
func Logging(log *logger.Logger, slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			log.Debug(r.Context(), "request started", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"client_ip":  logger.ClientIP(r),
				"user_agent": r.UserAgent(),
			})

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"bytes":       wrapped.written,
				"client_ip":   logger.ClientIP(r),
			}
			if q := logger.SanitizeQuery(r.URL.RawQuery); q != "" {
				fields["query"] = q
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error(r.Context(), "request completed with server error", nil, fields)
			case wrapped.statusCode >= 400:
				log.Warn(r.Context(), "request completed with client error", fields)
			case slow > 0 && duration > slow:
				log.Warn(r.Context(), "slow request", fields)
			default:
				log.Info(r.Context(), "request completed", fields)
			}
		})
	}
}

// Chain applies a sequence of middlewares to a handler
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// CORS middleware adds CORS headers and answers preflight requests
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowOrigin := ""
			if wildcard {
				allowOrigin = "*"
			} else {
				for _, o := range allowedOrigins {
					if o == origin {
						allowOrigin = origin
						w.Header().Add("Vary", "Origin")
						break
					}
				}
			}

			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Trace-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition, Content-Length")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer middleware recovers from panics and logs them
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					// Recoverer runs outside RequestID, so the id is only on the response.
					requestID := w.Header().Get(RequestIDHeader)
					log.Error(r.Context(), "panic recovered", nil, map[string]interface{}{
						"panic":      rec,
						"method":     r.Method,
						"path":       r.URL.Path,
						"request_id": requestID,
					})
					apperrors.WriteError(w, requestID, apperrors.InternalError("Internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
