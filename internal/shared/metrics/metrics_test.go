package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistogramRendersCumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test", h.Snapshot())
	out := buf.String()

	assert.Contains(t, out, "x_bucket{le=\"10\"} 1\n")
	assert.Contains(t, out, "x_bucket{le=\"100\"} 2\n")
	assert.Contains(t, out, "x_bucket{le=\"+Inf\"} 3\n")
	assert.Contains(t, out, "x_sum 555\n")
	assert.Contains(t, out, "x_count 3\n")
}

func TestRenderIncludesCounters(t *testing.T) {
	AddResumesScored(3)
	AddResumesSkipped(0)
	ObserveAIDurationMs(120)

	out := Render()
	assert.Contains(t, out, "# TYPE resumes_scored_total counter")
	assert.Contains(t, out, `ai_request_duration_ms_bucket{le="+Inf"}`)
	assert.Contains(t, out, "rank_quota_rejected_total")
}

func TestIncPanics(t *testing.T) {
	before := panicsTotal.Load()
	IncPanics()
	assert.Equal(t, before+1, panicsTotal.Load())
	assert.Contains(t, Render(), "# TYPE http_panics_total counter")
}
