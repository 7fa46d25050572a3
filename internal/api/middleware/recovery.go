// SPDX-License-Identifier: MIT

// Package middleware provides HTTP middleware for the serve-mode API.
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strings"
	"unicode/utf8"

	xglog "github.com/ManuGH/v2m3u/internal/log"
)

// Recoverer keeps a panicking handler from crashing the process. It logs the
// panic with the request id and answers 500 with a JSON body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)

			reqID := xglog.RequestIDFromContext(r.Context())
			path := r.URL.Path
			if !utf8.ValidString(path) {
				path = strings.ToValidUTF8(path, "")
			}

			logger := xglog.WithComponentFromContext(r.Context(), "api")
			logger.Error().
				Str(xglog.FieldEvent, "panic.recovered").
				Str("method", r.Method).
				Str(xglog.FieldPath, path).
				Interface("panic_value", rec).
				Str("stack_trace", string(buf[:n])).
				Msg("panic recovered in HTTP handler")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":     "internal_error",
				"requestId": reqID,
			})
		}()

		next.ServeHTTP(w, r)
	})
}
