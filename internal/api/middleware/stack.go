// SPDX-License-Identifier: MIT

package middleware

import (
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the HTTP ingress middleware stack.
type StackConfig struct {
	EnableSecurityHeaders bool
	CSP                   string

	EnableMetrics bool
	// TracingService names the server span source; empty disables tracing.
	TracingService string
	EnableLogging  bool
}

// NewRouter constructs a chi router with the middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the middleware stack to r, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(AccessLog)
	}
}
