// SPDX-License-Identifier: MIT

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderRecordsIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(providerRecordsTotal.WithLabelValues("https://a.test", "accepted"))
	RecordProviderRecords("https://a.test", "accepted", 0)
	RecordProviderRecords("https://a.test", "accepted", 3)
	after := testutil.ToFloat64(providerRecordsTotal.WithLabelValues("https://a.test", "accepted"))
	assert.Equal(t, 3.0, after-before)
}

func TestRecordPlaylistChannelsReplacesSeries(t *testing.T) {
	RecordPlaylistChannels(map[string]int{"Italy": 2, "France": 1})
	assert.Equal(t, 2, testutil.CollectAndCount(playlistChannels))

	RecordPlaylistChannels(map[string]int{"Germany": 5})
	assert.Equal(t, 1, testutil.CollectAndCount(playlistChannels))
	assert.Equal(t, 5.0, testutil.ToFloat64(playlistChannels.WithLabelValues("Germany")))
}

func TestRecordGuideMatches(t *testing.T) {
	RecordGuideMatches(map[string]int{"confident": 4, "none": 1})
	assert.Equal(t, 4.0, testutil.ToFloat64(guideMatches.WithLabelValues("confident")))
	assert.Equal(t, 0.0, testutil.ToFloat64(guideMatches.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(guideMatches.WithLabelValues("none")))
}

func TestObserveRefreshFailureCountsStage(t *testing.T) {
	before := testutil.ToFloat64(refreshFailuresTotal.WithLabelValues("write"))
	ObserveRefresh(time.Second, errors.New("disk full"), "write")
	assert.Equal(t, 1.0, testutil.ToFloat64(refreshFailuresTotal.WithLabelValues("write"))-before)
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("provider:test", "open")
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("provider:test", "open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("provider:test", "closed")))
}
