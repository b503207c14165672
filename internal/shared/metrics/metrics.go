package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	rankRequestsTotal   atomic.Uint64
	quotaRejectedTotal  atomic.Uint64
	resumesScoredTotal  atomic.Uint64
	resumesSkippedTotal atomic.Uint64
	aiFailuresTotal     atomic.Uint64
	panicsTotal         atomic.Uint64
	aiDuration          = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 20000, 30000})
)

// IncRankRequests counts rank requests that passed validation.
func IncRankRequests() {
	rankRequestsTotal.Add(1)
}

// IncQuotaRejected counts rank requests refused by the free-tier quota.
func IncQuotaRejected() {
	quotaRejectedTotal.Add(1)
}

// AddResumesScored adds n to the scored resumes counter.
func AddResumesScored(n int) {
	if n > 0 {
		resumesScoredTotal.Add(uint64(n))
	}
}

// AddResumesSkipped adds n to the skipped resumes counter.
func AddResumesSkipped(n int) {
	if n > 0 {
		resumesSkippedTotal.Add(uint64(n))
	}
}

// IncAIFailures counts AI calls that ended in default scores.
func IncAIFailures() {
	aiFailuresTotal.Add(1)
}

// IncPanics counts handler panics turned into 500 responses.
func IncPanics() {
	panicsTotal.Add(1)
}

// ObserveAIDurationMs records one AI call duration in milliseconds.
func ObserveAIDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	aiDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "rank_requests_total", "Rank requests that passed validation", rankRequestsTotal.Load())
	writeCounter(&buf, "rank_quota_rejected_total", "Rank requests refused by the free-tier quota", quotaRejectedTotal.Load())
	writeCounter(&buf, "resumes_scored_total", "Resumes scored and counted against quota", resumesScoredTotal.Load())
	writeCounter(&buf, "resumes_skipped_total", "Resumes skipped because text extraction failed", resumesSkippedTotal.Load())
	writeCounter(&buf, "ai_failures_total", "AI calls that fell back to default scores", aiFailuresTotal.Load())
	writeCounter(&buf, "http_panics_total", "Handler panics recovered", panicsTotal.Load())
	writeHistogram(&buf, "ai_request_duration_ms", "AI call duration in milliseconds", aiDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket whose bound covers it. Cumulative
// counts are produced at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
