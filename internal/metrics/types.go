package metrics

import (
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	TypeTiming      MetricType = "timing"
	TypeSuccessFail MetricType = "success_fail"
)

// TimingMetric tracks how long one pipeline stage takes
type TimingMetric struct {
	mu    sync.RWMutex
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// SuccessFailMetric tracks outcomes of one pipeline stage
type SuccessFailMetric struct {
	mu             sync.RWMutex
	Success        int64
	Failures       int64
	LastSuccess    time.Time
	LastFailure    time.Time
	FailureReasons map[string]int64 // reason -> count
}

// TimingSnapshot for JSON/YAML output
type TimingSnapshot struct {
	Count  int64   `json:"count" yaml:"count"`
	AvgMs  float64 `json:"avg_ms" yaml:"avg_ms"`
	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	LastMs float64 `json:"last_ms" yaml:"last_ms"`
}

// SuccessFailSnapshot for JSON/YAML output
type SuccessFailSnapshot struct {
	Success        int64            `json:"success" yaml:"success"`
	Failures       int64            `json:"failures" yaml:"failures"`
	SuccessRate    float64          `json:"success_rate" yaml:"success_rate"`
	FailureReasons map[string]int64 `json:"failure_reasons,omitempty" yaml:"failure_reasons,omitempty"`
}

// StageSnapshot combines timing and outcome for one stage path
type StageSnapshot struct {
	Path     string               `json:"path" yaml:"path"`
	Timing   *TimingSnapshot      `json:"timing,omitempty" yaml:"timing,omitempty"`
	Outcomes *SuccessFailSnapshot `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

func (t *TimingMetric) snapshot() *TimingSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := &TimingSnapshot{
		Count:  t.Count,
		MinMs:  ms(t.Min),
		MaxMs:  ms(t.Max),
		LastMs: ms(t.Last),
	}
	if t.Count > 0 {
		s.AvgMs = ms(t.Total) / float64(t.Count)
	}
	return s
}

func (sf *SuccessFailMetric) snapshot() *SuccessFailSnapshot {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	s := &SuccessFailSnapshot{Success: sf.Success, Failures: sf.Failures}
	if total := sf.Success + sf.Failures; total > 0 {
		s.SuccessRate = float64(sf.Success) / float64(total)
	}
	if len(sf.FailureReasons) > 0 {
		s.FailureReasons = make(map[string]int64, len(sf.FailureReasons))
		for k, v := range sf.FailureReasons {
			s.FailureReasons[k] = v
		}
	}
	return s
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
