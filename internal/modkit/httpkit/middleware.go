package httpkit

import (
	"net/http"
	"time"

	"tokeisrv/internal/platform/net/middleware"
)

// StackOptions tunes the per scope middleware bundles
type StackOptions struct {
	// Timeout bounds a whole request, 0 keeps the default
	Timeout time.Duration
	// Slow marks slower requests as warn in the access log
	Slow time.Duration
	// CORS overrides the read-only CORS defaults
	CORS middleware.CORSOptions
}

// DefaultRequestTimeout bounds API requests when StackOptions.Timeout is unset
const DefaultRequestTimeout = 30 * time.Second

// CommonStack returns the middleware for JSON API scopes
// responses there are never cacheable so NoCache is applied
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	return append(baseStack(o), middleware.NoCache())
}

// BadgeStack returns the middleware for conditional GET scopes
// NoCache is left out because it strips If-None-Match from the request
func BadgeStack(o StackOptions) []func(http.Handler) http.Handler {
	return baseStack(o)
}

func baseStack(o StackOptions) []func(http.Handler) http.Handler {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return []func(http.Handler) http.Handler{
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow}),
		middleware.CORS(o.CORS),
		middleware.StripSlashes(),
		middleware.Timeout(timeout),
	}
}
