package paging

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram keeps the most recent latency samples in arrival order
// Samples live in a ring, so recording is O(1) and eviction always drops the oldest
type Histogram struct {
	ring []float64 // Latencies in microseconds
	next int       // Slot the next sample is written to
	full bool      // Ring has wrapped at least once
	mu   sync.RWMutex
}

// NewHistogram creates a histogram retaining up to maxSize samples
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000 // Default: keep last 10k samples
	}
	return &Histogram{ring: make([]float64, maxSize)}
}

// Record adds a latency sample (in microseconds), overwriting the oldest when full
func (h *Histogram) Record(latencyUs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.next] = latencyUs
	h.next++
	if h.next == len(h.ring) {
		h.next = 0
		h.full = true
	}
}

// samples returns the retained samples; callers hold mu
func (h *Histogram) samples() []float64 {
	if h.full {
		return h.ring
	}
	return h.ring[:h.next]
}

// sortedCopy returns the retained samples sorted ascending, leaving the ring untouched
func (h *Histogram) sortedCopy() []float64 {
	h.mu.RLock()
	out := append([]float64(nil), h.samples()...)
	h.mu.RUnlock()

	sort.Float64s(out)
	return out
}

// percentileOf interpolates the p-th percentile (0-100) of sorted samples
func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	return percentileOf(h.sortedCopy(), p)
}

// Mean calculates the average latency
func (h *Histogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	samples := h.samples()
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// Max returns the maximum retained latency
func (h *Histogram) Max() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	samples := h.samples()
	if len(samples) == 0 {
		return 0
	}
	return slices.Max(samples)
}

// Count returns the number of retained samples
func (h *Histogram) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples())
}

// Reset clears all samples
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next = 0
	h.full = false
}

// HistogramSnapshot holds percentile statistics
type HistogramSnapshot struct {
	Count int
	Max   float64
	Mean  float64
	P50   float64 // Median
	P95   float64
	P99   float64
}

// Snapshot computes every statistic from one sorted copy
func (h *Histogram) Snapshot() HistogramSnapshot {
	sorted := h.sortedCopy()
	if len(sorted) == 0 {
		return HistogramSnapshot{}
	}

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return HistogramSnapshot{
		Count: len(sorted),
		Max:   sorted[len(sorted)-1],
		Mean:  sum / float64(len(sorted)),
		P50:   percentileOf(sorted, 50),
		P95:   percentileOf(sorted, 95),
		P99:   percentileOf(sorted, 99),
	}
}

// Metrics tracks simulator counters across sessions
// Safe for concurrent use, so one instance can be shared by a Compare run
type Metrics struct {
	accesses         atomic.Uint64
	hits             atomic.Uint64
	faults           atomic.Uint64
	evictions        atomic.Uint64
	removedPages     atomic.Uint64
	resets           atomic.Uint64
	snapshotsWritten atomic.Uint64

	accessLatency *Histogram // AccessPage latency

	startTime time.Time
	mu        sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:     time.Now(),
		accessLatency: NewHistogram(10000),
	}
}

// RecordAccess counts one access outcome and its latency
func (m *Metrics) RecordAccess(result AccessResult, latency time.Duration) {
	m.accesses.Add(1)
	if result.Hit {
		m.hits.Add(1)
	} else {
		m.faults.Add(1)
	}
	if result.Replaced != nil {
		m.evictions.Add(1)
	}
	m.accessLatency.Record(float64(latency.Nanoseconds()) / 1000.0)
}

func (m *Metrics) RecordRemovedPages(n int) {
	m.removedPages.Add(uint64(n))
}

func (m *Metrics) RecordReset() {
	m.resets.Add(1)
}

func (m *Metrics) RecordSnapshot() {
	m.snapshotsWritten.Add(1)
}

// Getters

func (m *Metrics) GetAccesses() uint64 {
	return m.accesses.Load()
}

func (m *Metrics) GetHits() uint64 {
	return m.hits.Load()
}

func (m *Metrics) GetFaults() uint64 {
	return m.faults.Load()
}

func (m *Metrics) GetHitRate() float64 {
	hits := m.hits.Load()
	total := hits + m.faults.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

func (m *Metrics) GetEvictions() uint64 {
	return m.evictions.Load()
}

func (m *Metrics) GetRemovedPages() uint64 {
	return m.removedPages.Load()
}

func (m *Metrics) GetResets() uint64 {
	return m.resets.Load()
}

func (m *Metrics) GetSnapshotsWritten() uint64 {
	return m.snapshotsWritten.Load()
}

func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// GetAccessLatency returns snapshot of access latency distribution
func (m *Metrics) GetAccessLatency() HistogramSnapshot {
	return m.accessLatency.Snapshot()
}

// LogMetrics logs all metrics using structured logging
func (m *Metrics) LogMetrics(logger *slog.Logger) {
	latency := m.GetAccessLatency()

	logger.Info("Simulator Metrics",
		slog.Group("accesses",
			slog.Uint64("total", m.GetAccesses()),
			slog.Uint64("hits", m.GetHits()),
			slog.Uint64("faults", m.GetFaults()),
			slog.Float64("hit_rate", m.GetHitRate()),
			slog.Uint64("evictions", m.GetEvictions()),
		),
		slog.Group("lifecycle",
			slog.Uint64("removed_pages", m.GetRemovedPages()),
			slog.Uint64("resets", m.GetResets()),
			slog.Uint64("snapshots_written", m.GetSnapshotsWritten()),
		),
		slog.Group("latency_us",
			slog.Int("count", latency.Count),
			slog.Float64("mean", latency.Mean),
			slog.Float64("p50", latency.P50),
			slog.Float64("p95", latency.P95),
			slog.Float64("p99", latency.P99),
			slog.Float64("max", latency.Max),
		),
		slog.Duration("uptime", m.GetUptime()),
	)
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.accesses.Store(0)
	m.hits.Store(0)
	m.faults.Store(0)
	m.evictions.Store(0)
	m.removedPages.Store(0)
	m.resets.Store(0)
	m.snapshotsWritten.Store(0)

	m.accessLatency.Reset()

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
