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
	importStartedTotal   atomic.Uint64
	importCompletedTotal atomic.Uint64
	importFailedTotal    atomic.Uint64
	insightCallsTotal    atomic.Uint64
	insightErrorsTotal   atomic.Uint64
	cacheHitsTotal       atomic.Uint64
	cacheMissesTotal     atomic.Uint64

	importDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncImportStarted increments the started counter.
func IncImportStarted() {
	importStartedTotal.Add(1)
}

// IncImportCompleted increments the completed counter.
func IncImportCompleted() {
	importCompletedTotal.Add(1)
}

// IncImportFailed increments the failed counter.
func IncImportFailed() {
	importFailedTotal.Add(1)
}

// IncInsightCall increments the insight-call counter.
func IncInsightCall() {
	insightCallsTotal.Add(1)
}

// IncInsightError increments the insight-error counter.
func IncInsightError() {
	insightErrorsTotal.Add(1)
}

// IncCacheHit increments the metrics-cache hit counter.
func IncCacheHit() {
	cacheHitsTotal.Add(1)
}

// IncCacheMiss increments the metrics-cache miss counter.
func IncCacheMiss() {
	cacheMissesTotal.Add(1)
}

// ObserveImportDurationMs records an import pipeline duration in milliseconds.
func ObserveImportDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	importDuration.Observe(value)
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
	writeCounter(&buf, "import_started_total", "Total CSV imports started", importStartedTotal.Load())
	writeCounter(&buf, "import_completed_total", "Total CSV imports completed", importCompletedTotal.Load())
	writeCounter(&buf, "import_failed_total", "Total CSV imports failed", importFailedTotal.Load())
	writeCounter(&buf, "insight_calls_total", "Total LLM insight calls", insightCallsTotal.Load())
	writeCounter(&buf, "insight_errors_total", "Total LLM insight call failures", insightErrorsTotal.Load())
	writeCounter(&buf, "metrics_cache_hits_total", "Metrics cache hits", cacheHitsTotal.Load())
	writeCounter(&buf, "metrics_cache_misses_total", "Metrics cache misses", cacheMissesTotal.Load())
	writeHistogram(&buf, "import_duration_ms", "Import pipeline duration in milliseconds", importDuration.Snapshot())
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

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
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
