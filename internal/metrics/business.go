// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus metrics for refresh runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2m3u_provider_fetch_total",
		Help: "Provider channel list fetches by origin and outcome",
	}, []string{"origin", "outcome"}) // outcome=success|failure

	providerRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2m3u_provider_records_total",
		Help: "Raw provider records by origin and ingestion outcome",
	}, []string{"origin", "outcome"}) // outcome=accepted|missing_name|missing_id|malformed

	guideDocuments = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2m3u_guide_documents",
		Help: "Guide documents by load status (last refresh)",
	}, []string{"status"}) // status=loaded|failed

	guideEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "v2m3u_guide_entries",
		Help: "Indexed guide display names (last refresh)",
	})

	guideMatches = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2m3u_guide_matches",
		Help: "Channels by guide match outcome (last refresh)",
	}, []string{"outcome"}) // outcome=confident|accepted|none

	dedupCollisions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2m3u_dedup_collisions",
		Help: "Entries that shared a name with an earlier entry in their country (last refresh)",
	}, []string{"policy"})

	playlistChannels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2m3u_playlist_channels",
		Help: "Channels written per country playlist (last refresh)",
	}, []string{"country"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "v2m3u_refresh_duration_seconds",
		Help:    "Duration of refresh runs",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	refreshFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2m3u_refresh_failures_total",
		Help: "Total number of refresh failures by stage",
	}, []string{"stage"}) // stage=lock|fetch|write

	lastRefreshSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "v2m3u_last_refresh_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})
)

// RecordProviderFetch counts one provider fetch.
func RecordProviderFetch(origin string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	providerFetchTotal.WithLabelValues(origin, outcome).Inc()
}

// RecordProviderRecords counts ingested records for origin by outcome.
func RecordProviderRecords(origin, outcome string, n int) {
	if n <= 0 {
		return
	}
	providerRecordsTotal.WithLabelValues(origin, outcome).Add(float64(n))
}

// RecordGuideDocuments records how many guide documents loaded and failed.
func RecordGuideDocuments(loaded, failed, entries int) {
	guideDocuments.WithLabelValues("loaded").Set(float64(loaded))
	guideDocuments.WithLabelValues("failed").Set(float64(failed))
	guideEntries.Set(float64(entries))
}

// RecordGuideMatches records match outcomes of the last refresh.
func RecordGuideMatches(counts map[string]int) {
	for _, outcome := range []string{"confident", "accepted", "none"} {
		guideMatches.WithLabelValues(outcome).Set(float64(counts[outcome]))
	}
}

// RecordDedupCollisions records how many entries collided under policy.
func RecordDedupCollisions(policy string, n int) {
	dedupCollisions.Reset()
	dedupCollisions.WithLabelValues(policy).Set(float64(n))
}

// RecordPlaylistChannels replaces the per-country channel gauges.
func RecordPlaylistChannels(perCountry map[string]int) {
	playlistChannels.Reset()
	for country, n := range perCountry {
		playlistChannels.WithLabelValues(country).Set(float64(n))
	}
}

// ObserveRefresh records a finished refresh run. stage names the failing
// step and is ignored on success.
func ObserveRefresh(d time.Duration, err error, stage string) {
	refreshDuration.Observe(d.Seconds())
	if err != nil {
		refreshFailuresTotal.WithLabelValues(stage).Inc()
		return
	}
	lastRefreshSuccess.SetToCurrentTime()
}
