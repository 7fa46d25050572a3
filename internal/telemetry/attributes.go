// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by refresh spans.
const (
	RunIDKey       = "refresh.run_id"
	OriginsKey     = "refresh.origins"
	GuideSourceKey = "guide.source"
	GuideEntryKey  = "guide.entries"
	OriginKey      = "provider.origin"
	RecordsKey     = "provider.records"
	SkippedKey     = "provider.skipped"
	ChannelsKey    = "lineup.channels"
	CountriesKey   = "lineup.countries"
	PolicyKey      = "lineup.dedup_policy"
	FilesKey       = "playlist.files"

	ErrorTypeKey = "error.type"
)

// RefreshAttributes describes one refresh run.
func RefreshAttributes(runID string, origins, guides int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RunIDKey, runID),
		attribute.Int(OriginsKey, origins),
		attribute.Int("refresh.guide_sources", guides),
	}
}

// ProviderAttributes describes one provider fetch.
func ProviderAttributes(origin string, records, skipped int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(OriginKey, origin),
		attribute.Int(RecordsKey, records),
		attribute.Int(SkippedKey, skipped),
	}
}

// GuideAttributes describes one loaded guide document.
func GuideAttributes(source string, entries int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(GuideSourceKey, source),
		attribute.Int(GuideEntryKey, entries),
	}
}

// LineupAttributes describes the assembled channel set.
func LineupAttributes(policy string, channels, countries int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PolicyKey, policy),
		attribute.Int(ChannelsKey, channels),
		attribute.Int(CountriesKey, countries),
	}
}

// RecordError marks span as failed with err classified as errType.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	span.SetStatus(codes.Error, err.Error())
}
