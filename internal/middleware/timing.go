package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// ServerTiming adds a Server-Timing header with the time spent before the
// response headers were written. Visible in browser DevTools.
func ServerTiming(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &timingResponseWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(wrapped, r)
	})
}

// timingResponseWriter stamps the header just before it is sent
type timingResponseWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timingResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Set("Server-Timing", formatServerTiming(time.Since(w.start)))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *timingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *timingResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func formatServerTiming(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	return "app;dur=" + strconv.FormatFloat(ms, 'f', 2, 64)
}
