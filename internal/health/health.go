// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness checks for serve mode.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	xglog "github.com/ManuGH/v2m3u/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of both probes.
type Response struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is one named component check.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checks.
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// Health is the liveness probe. The process is alive whenever it answers;
// component checks are only run and reported when verbose is set.
func (m *Manager) Health(ctx context.Context, verbose bool) Response {
	resp := Response{Status: StatusHealthy, Ready: true, Version: m.version, Timestamp: time.Now()}
	if verbose {
		resp.Checks, resp.Status = m.run(ctx)
	}
	return resp
}

// Ready is the readiness probe: any unhealthy check makes it not ready.
func (m *Manager) Ready(ctx context.Context) Response {
	resp := Response{Version: m.version, Timestamp: time.Now()}
	resp.Checks, resp.Status = m.run(ctx)
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

func (m *Manager) run(ctx context.Context) (map[string]CheckResult, Status) {
	if len(m.checkers) == 0 {
		return nil, StatusHealthy
	}
	checks := make(map[string]CheckResult, len(m.checkers))
	overall := StatusHealthy
	for _, c := range m.checkers {
		res := c.Check(ctx)
		checks[c.Name()] = res
		switch {
		case res.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case res.Status == StatusDegraded && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}
	return checks, overall
}

// ServeHealth handles liveness requests; it always answers 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := m.Health(r.Context(), r.URL.Query().Get("verbose") == "true")
	writeResponse(w, r, http.StatusOK, resp)
}

// ServeReady handles readiness requests with 200 or 503.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeResponse(w, r, code, resp)
}

func writeResponse(w http.ResponseWriter, r *http.Request, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "health")
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "health.encode_error").
			Msg("failed to encode health response")
	}
}

// OutputDirChecker verifies that the playlist directory is writable.
type OutputDirChecker struct {
	dir func() string
}

// NewOutputDirChecker checks the directory returned by dir on every call,
// so a reloaded configuration is honored.
func NewOutputDirChecker(dir func() string) *OutputDirChecker {
	return &OutputDirChecker{dir: dir}
}

func (c *OutputDirChecker) Name() string { return "output_dir" }

func (c *OutputDirChecker) Check(_ context.Context) CheckResult {
	dir := c.dir()
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// created by the first refresh
			return CheckResult{Status: StatusDegraded, Message: "output directory does not exist yet"}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("%s is not a directory", dir)}
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "output directory not writable: " + err.Error()}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

// LastRunChecker reports on the most recent refresh.
type LastRunChecker struct {
	lastRun func() (time.Time, string)
	maxAge  time.Duration
}

// NewLastRunChecker creates a checker around lastRun, which returns the time
// and error text of the latest refresh (zero time before the first).
// A successful run older than maxAge degrades the result; 0 disables that.
func NewLastRunChecker(lastRun func() (time.Time, string), maxAge time.Duration) *LastRunChecker {
	return &LastRunChecker{lastRun: lastRun, maxAge: maxAge}
}

func (c *LastRunChecker) Name() string { return "last_refresh" }

func (c *LastRunChecker) Check(_ context.Context) CheckResult {
	at, lastErr := c.lastRun()
	switch {
	case at.IsZero():
		return CheckResult{Status: StatusUnhealthy, Message: "no refresh has completed yet"}
	case lastErr != "":
		return CheckResult{Status: StatusUnhealthy, Error: lastErr, Message: "last refresh failed"}
	case c.maxAge > 0 && time.Since(at) > c.maxAge:
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("last successful refresh older than %s", c.maxAge)}
	}
	return CheckResult{Status: StatusHealthy, Message: "last refresh successful"}
}
