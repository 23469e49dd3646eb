// Package middleware holds adapters and in house middlewares
package middleware

import (
	"net/http"
	"time"

	"tokeisrv/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// CacheStatusHeader is set by badge handlers (hit, miss, stale, revalidated) and reported by the access log
const CacheStatusHeader = "X-Cache-Status"

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow raises requests taking at least this long to warn, 0 disables it
	Slow time.Duration
}

// AccessLogZerolog logs one line per request with status, bytes, elapsed time and cache status
// the chi request id is bound into the context so handler logs carry it too
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(logger.WithRequest(r.Context(), chimw.GetReqID(r.Context())))
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			evt := logger.C(r.Context()).WithLevel(levelFor(status, elapsed, opt.Slow))
			if cs := ww.Header().Get(CacheStatusHeader); cs != "" {
				evt = evt.Str("cache", cs)
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Msg("request done")
		})
	}
}

// levelFor picks error for server failures, warn for slow requests and info otherwise
func levelFor(status int, elapsed, slow time.Duration) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case slow > 0 && elapsed >= slow:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
