package paging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMetricsCreation(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("Metrics should not be nil")
	}

	if m.GetAccesses() != 0 || m.GetHits() != 0 || m.GetFaults() != 0 {
		t.Error("Expected all counters to start at 0")
	}
	if m.GetHitRate() != 0 {
		t.Errorf("Expected hit rate 0 with no accesses, got %f", m.GetHitRate())
	}
}

func TestAccessMetrics(t *testing.T) {
	m := NewMetrics()
	victim := NewPageKey("A", 0)

	m.RecordAccess(AccessResult{Hit: true}, 2*time.Microsecond)
	m.RecordAccess(AccessResult{Hit: true}, 4*time.Microsecond)
	m.RecordAccess(AccessResult{PageFault: true}, 6*time.Microsecond)
	m.RecordAccess(AccessResult{PageFault: true, Replaced: &victim}, 8*time.Microsecond)

	if m.GetAccesses() != 4 {
		t.Errorf("Expected 4 accesses, got %d", m.GetAccesses())
	}
	if m.GetHits() != 2 || m.GetFaults() != 2 {
		t.Errorf("Expected 2 hits and 2 faults, got %d and %d", m.GetHits(), m.GetFaults())
	}
	if m.GetEvictions() != 1 {
		t.Errorf("Expected 1 eviction, got %d", m.GetEvictions())
	}
	if m.GetHitRate() != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", m.GetHitRate())
	}

	latency := m.GetAccessLatency()
	if latency.Count != 4 {
		t.Errorf("Expected 4 latency samples, got %d", latency.Count)
	}
	if latency.Mean != 5 || latency.Max != 8 {
		t.Errorf("Expected mean 5us and max 8us, got %f and %f", latency.Mean, latency.Max)
	}
}

func TestLifecycleMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordRemovedPages(3)
	m.RecordRemovedPages(0)
	m.RecordReset()
	m.RecordSnapshot()
	m.RecordSnapshot()

	if m.GetRemovedPages() != 3 {
		t.Errorf("Expected 3 removed pages, got %d", m.GetRemovedPages())
	}
	if m.GetResets() != 1 {
		t.Errorf("Expected 1 reset, got %d", m.GetResets())
	}
	if m.GetSnapshotsWritten() != 2 {
		t.Errorf("Expected 2 snapshots, got %d", m.GetSnapshotsWritten())
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordAccess(AccessResult{Hit: true}, time.Microsecond)
	m.RecordReset()

	m.Reset()

	if m.GetAccesses() != 0 || m.GetHits() != 0 || m.GetResets() != 0 {
		t.Error("Expected counters cleared after reset")
	}
	if m.GetAccessLatency().Count != 0 {
		t.Error("Expected latency samples cleared after reset")
	}
}

func TestMetricsConcurrentRecording(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				m.RecordAccess(AccessResult{Hit: i%2 == 0, PageFault: i%2 == 1}, time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if m.GetAccesses() != 4000 {
		t.Errorf("Expected 4000 accesses, got %d", m.GetAccesses())
	}
	if m.GetHits() != 2000 {
		t.Errorf("Expected 2000 hits, got %d", m.GetHits())
	}
}

func TestHistogramPercentiles(t *testing.T) {
	h := NewHistogram(100)
	for i := 1; i <= 101; i++ {
		h.Record(float64(i))
	}

	// Capacity 100 drops the first sample
	if h.Count() != 100 {
		t.Fatalf("Expected 100 samples, got %d", h.Count())
	}

	snap := h.Snapshot()
	if snap.Max != 101 {
		t.Errorf("Expected max 101, got %f", snap.Max)
	}
	if snap.P50 != 51.5 {
		t.Errorf("Expected p50 51.5, got %f", snap.P50)
	}
	if h.Percentile(0) != 2 || h.Percentile(100) != 101 {
		t.Errorf("Unexpected extremes %f and %f", h.Percentile(0), h.Percentile(100))
	}
}

func TestHistogramEmpty(t *testing.T) {
	h := NewHistogram(0)
	if h.Percentile(99) != 0 || h.Mean() != 0 || h.Max() != 0 {
		t.Error("Expected zero statistics for empty histogram")
	}
}

func TestLogMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "json", &buf)

	m := NewMetrics()
	m.RecordAccess(AccessResult{PageFault: true}, time.Microsecond)
	m.LogMetrics(logger)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected one JSON record, got %q: %v", buf.String(), err)
	}

	accesses, ok := record["accesses"].(map[string]any)
	if !ok {
		t.Fatalf("Expected accesses group, got %v", record)
	}
	if accesses["faults"] != float64(1) {
		t.Errorf("Expected 1 fault logged, got %v", accesses["faults"])
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info record should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Errorf("Expected warn record in text format, got %q", out)
	}

	buf.Reset()
	NewLogger("bogus", "bogus", &buf).Debug("dropped")
	if buf.Len() != 0 {
		t.Error("Unknown level should fall back to info")
	}
}

func TestHistogramDropsOldestAfterPercentile(t *testing.T) {
	h := NewHistogram(3)
	h.Record(100)
	h.Record(1)
	h.Record(2)

	if p := h.Percentile(50); p != 2 {
		t.Fatalf("Expected p50 2, got %f", p)
	}

	// 100 is the oldest sample even though a percentile query ran in between
	h.Record(3)

	if h.Max() != 3 {
		t.Errorf("Expected max 3 after the oldest sample was dropped, got %f", h.Max())
	}
	if h.Count() != 3 {
		t.Errorf("Expected 3 samples, got %d", h.Count())
	}
	if h.Mean() != 2 {
		t.Errorf("Expected mean of {1, 2, 3} to be 2, got %f", h.Mean())
	}
}

func TestHistogramSnapshotMatchesQueries(t *testing.T) {
	h := NewHistogram(50)
	for i := 0; i < 120; i++ {
		h.Record(float64((i * 37) % 101))
	}

	snap := h.Snapshot()
	if snap.Count != h.Count() || snap.Max != h.Max() || snap.Mean != h.Mean() {
		t.Errorf("Snapshot %+v disagrees with Count/Max/Mean", snap)
	}
	if snap.P95 != h.Percentile(95) || snap.P99 != h.Percentile(99) {
		t.Errorf("Snapshot percentiles disagree with Percentile")
	}

	h.Reset()
	if h.Snapshot() != (HistogramSnapshot{}) {
		t.Error("Expected empty snapshot after reset")
	}
}
