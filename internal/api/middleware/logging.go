// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	xglog "github.com/ManuGH/v2m3u/internal/log"
)

// AccessLog logs one line per request after it completes. Health and metric
// probes are logged at debug level.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		logger := xglog.WithComponentFromContext(r.Context(), "api")
		ev := logger.Info()
		switch {
		case sw.status >= 500:
			ev = logger.Error()
		case !shouldTrace(r):
			ev = logger.Debug()
		}
		ev.Str(xglog.FieldEvent, "http.request").
			Str("method", r.Method).
			Str(xglog.FieldPath, r.URL.Path).
			Str("route", routePattern(r)).
			Int("status", sw.status).
			Int("bytes", sw.bytes).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request handled")
	})
}
