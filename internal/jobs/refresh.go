// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/ManuGH/v2m3u/internal/channels"
	"github.com/ManuGH/v2m3u/internal/config"
	"github.com/ManuGH/v2m3u/internal/epg"
	xglog "github.com/ManuGH/v2m3u/internal/log"
	"github.com/ManuGH/v2m3u/internal/metrics"
	"github.com/ManuGH/v2m3u/internal/platform/httpx"
	netx "github.com/ManuGH/v2m3u/internal/platform/net"
	"github.com/ManuGH/v2m3u/internal/playlist"
	"github.com/ManuGH/v2m3u/internal/provider"
	"github.com/ManuGH/v2m3u/internal/telemetry"
)

// LockFile is created in the output directory while a refresh writes to it.
const LockFile = ".v2m3u.lock"

const lockRetryDelay = 100 * time.Millisecond

var (
	// ErrNoChannels is returned when every origin failed, so there is nothing
	// to write.
	ErrNoChannels = errors.New("no origin delivered a channel list")
	// ErrOutputLocked is returned when another process holds the output lock.
	ErrOutputLocked = errors.New("output directory is locked by another refresh")
)

// Status represents the outcome of a refresh run.
type Status struct {
	RunID     string         `json:"run_id"`
	LastRun   time.Time      `json:"last_run"`
	Duration  time.Duration  `json:"duration_ns"`
	Channels  int            `json:"channels"`
	Countries int            `json:"countries"`
	Origins   []OriginStatus `json:"origins"`
	Guides    GuideStatus    `json:"guides"`
	Files     []FileStatus   `json:"files"`
	Error     string         `json:"error,omitempty"`
}

// OriginStatus summarizes one origin.
type OriginStatus struct {
	Origin   string `json:"origin"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// GuideStatus summarizes guide loading and matching.
type GuideStatus struct {
	Loaded  int            `json:"loaded"`
	Failed  int            `json:"failed"`
	Entries int            `json:"entries"`
	Matches map[string]int `json:"matches,omitempty"`
}

// FileStatus describes one written playlist.
type FileStatus struct {
	Name     string `json:"name"`
	Country  string `json:"country,omitempty"`
	Channels int    `json:"channels"`
}

// Runner performs refreshes. It keeps the provider client, and with it the
// per-origin circuit breakers, across runs as long as the fetch settings do
// not change. A Runner is safe for concurrent use; runs are serialized.
type Runner struct {
	runMu sync.Mutex

	mu       sync.Mutex
	key      clientKey
	provider *provider.Client
	guides   *epg.Loader
}

type clientKey struct {
	fetch   config.FetchConfig
	breaker config.BreakerConfig
	traced  bool
}

// NewRunner returns an idle Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Refresh runs a single refresh with a fresh Runner.
func Refresh(ctx context.Context, cfg config.AppConfig) (*Status, error) {
	return NewRunner().Run(ctx, cfg)
}

func (r *Runner) clients(cfg config.AppConfig) (*provider.Client, *epg.Loader) {
	key := clientKey{fetch: cfg.Fetch, breaker: cfg.Breaker, traced: cfg.Telemetry.Enabled}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.provider != nil && r.key == key {
		return r.provider, r.guides
	}

	httpClient := httpx.NewClient(httpx.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Traced:    cfg.Telemetry.Enabled,
	})
	r.provider = provider.New(httpClient, provider.Options{
		Retry: provider.RetryPolicy{
			Attempts: cfg.Fetch.Retries,
			Base:     cfg.Fetch.BackoffBase,
			MaxDelay: cfg.Fetch.BackoffMax,
		},
		RatePerSecond:    cfg.Fetch.RatePerSecond,
		BreakerThreshold: cfg.Breaker.Threshold,
		BreakerReset:     cfg.Breaker.ResetTimeout,
	})
	r.guides = epg.NewLoader(httpClient, cfg.Fetch.MaxGuideBytes)
	r.key = key
	return r.provider, r.guides
}

// Run fetches all origins and guide sources of cfg, builds the lineup and
// writes every playlist into cfg.OutputDir. Failing origins or guides only
// reduce the output; Run fails when all origins failed or writing failed.
func (r *Runner) Run(ctx context.Context, cfg config.AppConfig) (*Status, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	ctx = xglog.ContextWithRunID(ctx, runID)
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	ctx, span := telemetry.Tracer().Start(ctx, "refresh",
		trace.WithAttributes(telemetry.RefreshAttributes(runID, len(cfg.Origins), len(cfg.GuideSources))...))
	defer span.End()

	logger.Info().
		Str(xglog.FieldEvent, "refresh.start").
		Int("origins", len(cfg.Origins)).
		Int("guide_sources", len(cfg.GuideSources)).
		Msg("starting refresh")

	status := &Status{RunID: runID, LastRun: start}
	fail := func(stage string, err error) (*Status, error) {
		status.Duration = time.Since(start)
		status.Error = err.Error()
		metrics.ObserveRefresh(status.Duration, err, stage)
		telemetry.RecordError(span, err, stage)
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "refresh.failed").
			Str(xglog.FieldStage, stage).
			Dur("duration", status.Duration).
			Msg("refresh failed")
		return status, err
	}

	opts, err := lineupOptions(cfg)
	if err != nil {
		return fail("config", err)
	}

	prov, loader := r.clients(cfg)
	sources, originErrs, docs := fetchInputs(ctx, cfg, prov, loader)
	if err := ctx.Err(); err != nil {
		return fail("fetch", err)
	}

	lineup := BuildLineup(sources, docs, opts)
	status.Channels = lineup.Assembly.Len()
	status.Countries = len(lineup.Assembly.Countries)
	status.Guides = guideStatus(docs, len(cfg.GuideSources), lineup.Matches)
	recordLineup(ctx, cfg, lineup, originErrs, status)
	span.SetAttributes(telemetry.LineupAttributes(string(opts.Policy), status.Channels, status.Countries)...)

	if failed := errors.Join(originErrs...); failed != nil && allFailed(originErrs) {
		return fail("fetch", fmt.Errorf("%w: %w", ErrNoChannels, failed))
	}

	written, err := writeLocked(ctx, cfg.OutputDir, cfg.GuideSources, lineup.Assembly)
	for _, w := range written {
		status.Files = append(status.Files, FileStatus{
			Name:     filepath.Base(w.Path),
			Country:  w.Country,
			Channels: w.Channels,
		})
	}
	if err != nil {
		stage := "write"
		if errors.Is(err, ErrOutputLocked) {
			stage = "lock"
		}
		return fail(stage, err)
	}
	span.SetAttributes(attribute.Int(telemetry.FilesKey, len(written)))

	status.Duration = time.Since(start)
	metrics.RecordPlaylistChannels(perCountry(lineup.Assembly))
	metrics.ObserveRefresh(status.Duration, nil, "")

	logger.Info().
		Str(xglog.FieldEvent, "refresh.success").
		Str(xglog.FieldOutputDir, cfg.OutputDir).
		Int("channels", status.Channels).
		Int("countries", status.Countries).
		Int("files", len(status.Files)).
		Dur("duration", status.Duration).
		Msg("refresh completed")
	return status, nil
}

func lineupOptions(cfg config.AppConfig) (LineupOptions, error) {
	policy, err := channels.ParsePolicy(cfg.DedupPolicy)
	if err != nil {
		return LineupOptions{}, err
	}
	sortOpts := playlist.Options{Order: playlist.SortOrder(cfg.SortOrder)}
	if sortOpts.Order == playlist.SortLocale {
		tag, err := language.Parse(cfg.Locale)
		if err != nil {
			return LineupOptions{}, fmt.Errorf("locale %q: %w", cfg.Locale, err)
		}
		sortOpts.Locale = tag
	}
	return LineupOptions{
		Policy:      policy,
		Sort:        sortOpts,
		MatchGuides: cfg.MatchGuides(),
		Workers:     cfg.Fetch.Concurrency,
	}, nil
}

// fetchInputs downloads every origin and guide source concurrently. Sources
// and errors keep the configured origin order; docs keep the configured guide
// order with nil for failed loads.
func fetchInputs(ctx context.Context, cfg config.AppConfig, prov *provider.Client, loader *epg.Loader) ([]Source, []error, []*epg.Document) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	sources := make([]Source, len(cfg.Origins))
	originErrs := make([]error, len(cfg.Origins))
	var docs []*epg.Document
	if cfg.MatchGuides() {
		docs = make([]*epg.Document, len(cfg.GuideSources))
	}

	limit := cfg.Fetch.Concurrency
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i, origin := range cfg.Origins {
		g.Go(func() error {
			ctx, span := telemetry.Tracer().Start(ctx, "provider.fetch")
			defer span.End()

			sources[i].Origin = origin
			records, err := prov.Channels(ctx, origin)
			metrics.RecordProviderFetch(origin, err)
			if err != nil {
				originErrs[i] = fmt.Errorf("%s: %w", origin, err)
				telemetry.RecordError(span, err, "provider")
				logger.Error().
					Err(err).
					Str(xglog.FieldEvent, "provider.fetch_failed").
					Str(xglog.FieldOrigin, origin).
					Msg("channel list fetch failed, origin contributes no channels")
				return nil
			}
			sources[i].Records = records
			span.SetAttributes(attribute.String(telemetry.OriginKey, origin), attribute.Int(telemetry.RecordsKey, len(records)))
			return nil
		})
	}

	for i := range docs {
		source := cfg.GuideSources[i]
		g.Go(func() error {
			ctx, span := telemetry.Tracer().Start(ctx, "guide.load")
			defer span.End()

			doc, err := loader.Load(ctx, source)
			if err != nil {
				telemetry.RecordError(span, err, "guide")
				logger.Warn().
					Err(err).
					Str(xglog.FieldEvent, "guide.load_failed").
					Str(xglog.FieldGuide, netx.SanitizeURL(source)).
					Msg("guide source unavailable, matching without it")
				return nil
			}
			docs[i] = doc
			span.SetAttributes(telemetry.GuideAttributes(netx.SanitizeURL(source), len(doc.Entries))...)
			logger.Info().
				Str(xglog.FieldEvent, "guide.loaded").
				Str(xglog.FieldGuide, netx.SanitizeURL(source)).
				Int("entries", len(doc.Entries)).
				Msg("guide source loaded")
			return nil
		})
	}
	_ = g.Wait()
	return sources, originErrs, docs
}

func allFailed(errs []error) bool {
	for _, err := range errs {
		if err == nil {
			return false
		}
	}
	return true
}

func recordLineup(ctx context.Context, cfg config.AppConfig, l Lineup, originErrs []error, status *Status) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")
	span := trace.SpanFromContext(ctx)

	for i, st := range l.Origins {
		ost := OriginStatus{Origin: st.Origin, Accepted: st.Accepted, Skipped: st.SkippedTotal()}
		if i < len(originErrs) && originErrs[i] != nil {
			ost.Error = originErrs[i].Error()
		}
		status.Origins = append(status.Origins, ost)
		span.AddEvent("origin.ingested", trace.WithAttributes(telemetry.ProviderAttributes(st.Origin, st.Accepted, ost.Skipped)...))

		metrics.RecordProviderRecords(st.Origin, "accepted", st.Accepted)
		for reason, n := range st.Skipped {
			metrics.RecordProviderRecords(st.Origin, string(reason), n)
		}
		if ost.Skipped > 0 {
			logger.Info().
				Str(xglog.FieldEvent, "channels.skipped").
				Str(xglog.FieldOrigin, st.Origin).
				Int("accepted", st.Accepted).
				Int("skipped", ost.Skipped).
				Int(string(channels.SkipMissingName), st.Skipped[channels.SkipMissingName]).
				Int(string(channels.SkipMissingID), st.Skipped[channels.SkipMissingID]).
				Int(string(channels.SkipMalformed), st.Skipped[channels.SkipMalformed]).
				Msg("skipped unusable provider records")
		}
	}

	metrics.RecordGuideDocuments(status.Guides.Loaded, status.Guides.Failed, status.Guides.Entries)
	metrics.RecordGuideMatches(status.Guides.Matches)
	metrics.RecordDedupCollisions(cfg.DedupPolicy, l.Collisions)

	logger.Info().
		Str(xglog.FieldEvent, "lineup.built").
		Str(xglog.FieldPolicy, cfg.DedupPolicy).
		Int("channels", status.Channels).
		Int("countries", status.Countries).
		Int("collisions", l.Collisions).
		Int("guide_confident", status.Guides.Matches[string(epg.OutcomeConfident)]).
		Int("guide_accepted", status.Guides.Matches[string(epg.OutcomeAccepted)]).
		Int("guide_none", status.Guides.Matches[string(epg.OutcomeNone)]).
		Msg("lineup built")
}

func guideStatus(docs []*epg.Document, configured int, matches map[epg.Outcome]int) GuideStatus {
	gs := GuideStatus{Matches: make(map[string]int, len(matches))}
	for _, d := range docs {
		if d == nil {
			continue
		}
		gs.Loaded++
		gs.Entries += len(d.Entries)
	}
	if docs != nil {
		gs.Failed = configured - gs.Loaded
	}
	for outcome, n := range matches {
		gs.Matches[string(outcome)] = n
	}
	return gs
}

func perCountry(a playlist.Assembly) map[string]int {
	out := make(map[string]int, len(a.Countries))
	for _, c := range a.Countries {
		out[c] = len(a.PerCountry[c])
	}
	return out
}

// writeLocked writes all playlists while holding an exclusive lock on dir,
// so that two processes never interleave writes into the same directory.
func writeLocked(ctx context.Context, dir string, guideURLs []string, a playlist.Assembly) ([]playlist.Written, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutputLocked, err)
		}
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, ErrOutputLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger := xglog.WithComponentFromContext(ctx, "jobs")
			logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "refresh.unlock_failed").
				Msg("failed to release output lock")
		}
	}()

	return playlist.WriteAll(ctx, dir, guideURLs, a)
}
