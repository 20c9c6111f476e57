package guard

import (
	"math"
	"sync"
)

// Stats tracks guard check outcomes for reporting.
type Stats struct {
	mu sync.Mutex

	totalChecks    int
	blocked        int
	threatCounts   map[ThreatLevel]int
	totalLatencyMS float64
}

// NewStats creates an empty stats tracker.
func NewStats() *Stats {
	return &Stats{threatCounts: make(map[ThreatLevel]int)}
}

// Record adds one check outcome.
func (s *Stats) Record(result Result, latencyMS float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalChecks++
	if !result.Allowed {
		s.blocked++
	}
	s.threatCounts[result.Level]++
	s.totalLatencyMS += latencyMS
}

// Summary reports totals, per-level counts, and average latency.
func (s *Stats) Summary() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg := 0.0
	if s.totalChecks > 0 {
		avg = s.totalLatencyMS / float64(s.totalChecks)
	}
	levels := make(map[string]int, len(s.threatCounts))
	for level, count := range s.threatCounts {
		levels[string(level)] = count
	}
	return map[string]any{
		"total_checks":   s.totalChecks,
		"blocked":        s.blocked,
		"threat_levels":  levels,
		"avg_latency_ms": math.Round(avg*100) / 100,
	}
}
