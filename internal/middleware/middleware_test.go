package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/renderdragon/backend/internal/errors"
	"github.com/renderdragon/backend/internal/logger"
)

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(&logger.Config{Output: buf, Level: logger.LevelDebug})
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = apperrors.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "client-supplied", seen)

	req = httptest.NewRequest(http.MethodGet, "/api/info", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestLogging_LevelsAndSanitizedQuery(t *testing.T) {
	var buf bytes.Buffer
	log := testLogger(&buf)

	h := Logging(log, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/info?url=x&api_key=hunter2", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry logger.Entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "warn", entry.Level)
	assert.Equal(t, float64(400), entry.Fields["status"])
	assert.NotContains(t, lines[1], "hunter2")
}

func TestLogging_SlowRequest(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Output: &buf, Level: logger.LevelInfo})

	h := Logging(log, time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats/downloads", nil))

	var entry logger.Entry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "slow request", entry.Message)
	assert.Equal(t, "warn", entry.Level)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
		req.Header.Set("Origin", "https://renderdragon.org")
		CORS([]string{"*"})(next).ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/generateTitles", nil)
		CORS([]string{"*"})(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("listed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
		req.Header.Set("Origin", "https://renderdragon.org")
		CORS([]string{"https://renderdragon.org"})(next).ServeHTTP(w, req)
		assert.Equal(t, "https://renderdragon.org", w.Header().Get("Access-Control-Allow-Origin"))

		w = httptest.NewRecorder()
		req.Header.Set("Origin", "https://evil.example")
		CORS([]string{"https://renderdragon.org"})(next).ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recoverer(testLogger(&buf)), RequestID)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/info", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeInternalError, body.Code)
	assert.NotEmpty(t, body.RequestID)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestGzip(t *testing.T) {
	payload := strings.Repeat(`{"title":"x"}`, 100)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	Gzip(next).ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))

	req = httptest.NewRequest(http.MethodGet, "/api/download?url=x", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	Gzip(next).ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, payload, w.Body.String())
}

func TestETag(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"downloads":125000}`)
	})

	w := httptest.NewRecorder()
	ETag(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats/downloads", nil))
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/downloads", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	ETag(next).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	ETag(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/downloadThumbnail?url=x", nil))
	assert.Empty(t, w.Header().Get("ETag"))
}

func TestETag_SkipsErrors(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"bad"}`)
	})

	w := httptest.NewRecorder()
	ETag(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("ETag"))
	assert.Equal(t, `{"error":"bad"}`, w.Body.String())
}

func TestServerTiming(t *testing.T) {
	h := ServerTiming(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasPrefix(w.Header().Get("Server-Timing"), "app;dur="))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	clock := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return clock }

	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))

	clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
}
