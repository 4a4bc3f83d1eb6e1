package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAdmission(t *testing.T) {
	before := testutil.ToFloat64(admissions.WithLabelValues(OutcomeConflict))
	ObserveAdmission(OutcomeConflict)
	ObserveAdmission(OutcomeConflict)
	assert.Equal(t, before+2, testutil.ToFloat64(admissions.WithLabelValues(OutcomeConflict)))
}

func TestObserveSeatCacheAndEvents(t *testing.T) {
	hits := testutil.ToFloat64(seatCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(seatCache.WithLabelValues("miss"))
	ObserveSeatCache(true)
	ObserveSeatCache(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(seatCache.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(seatCache.WithLabelValues("miss")))

	failed := testutil.ToFloat64(events.WithLabelValues("failed"))
	ObserveEventPublish(errors.New("broker down"))
	assert.Equal(t, failed+1, testutil.ToFloat64(events.WithLabelValues("failed")))
}
