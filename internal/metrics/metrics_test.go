package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFeed(t *testing.T) {
	before := testutil.ToFloat64(FeedsProcessed.WithLabelValues("metrics-test", "ok"))

	RecordFeed("metrics-test", "ok", 0.25)
	RecordFeed("metrics-test", "ok", 0.5)

	after := testutil.ToFloat64(FeedsProcessed.WithLabelValues("metrics-test", "ok"))
	assert.Equal(t, before+2, after)
}

func TestRecordParseError(t *testing.T) {
	before := testutil.ToFloat64(ParseErrors.WithLabelValues("structural"))

	RecordParseError("structural")

	assert.Equal(t, before+1, testutil.ToFloat64(ParseErrors.WithLabelValues("structural")))
}

func TestRecordEntries(t *testing.T) {
	RecordEntries("metrics-test", 30)

	assert.Equal(t, 1, testutil.CollectAndCount(EntriesParsed, "rssreader_entries_per_feed"))
}
