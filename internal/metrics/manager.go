// Package metrics records per-stage timings and outcomes of the note
// pipeline (stt/whisper, llm/<provider>, notion/save) and keeps them across
// runs in a small SQLite database.
package metrics

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Manager holds metrics for one process. A nil *Manager is valid and
// records nothing.
type Manager struct {
	mu          sync.RWMutex
	timings     map[string]*TimingMetric
	successFail map[string]*SuccessFailMetric
	db          *sql.DB
}

// New returns an in-memory manager. Use Open for a persistent one.
func New() *Manager {
	return &Manager{
		timings:     make(map[string]*TimingMetric),
		successFail: make(map[string]*SuccessFailMetric),
	}
}

// buildPath creates a normalized path from topic and function
func buildPath(topic, function string) string {
	if function == "" {
		return topic
	}
	return fmt.Sprintf("%s/%s", topic, function)
}

// RecordDuration records a duration directly
func (m *Manager) RecordDuration(topic, function string, duration time.Duration) {
	if m == nil {
		return
	}
	path := buildPath(topic, function)

	m.mu.Lock()
	metric, exists := m.timings[path]
	if !exists {
		metric = &TimingMetric{Min: duration, Max: duration}
		m.timings[path] = metric
	}
	m.mu.Unlock()

	metric.mu.Lock()
	defer metric.mu.Unlock()

	metric.Count++
	metric.Total += duration
	metric.Last = duration
	if duration < metric.Min || metric.Count == 1 {
		metric.Min = duration
	}
	if duration > metric.Max {
		metric.Max = duration
	}
}

// RecordSuccess records a successful stage run
func (m *Manager) RecordSuccess(topic, function string) {
	if m == nil {
		return
	}
	metric := m.outcome(buildPath(topic, function))

	metric.mu.Lock()
	defer metric.mu.Unlock()
	metric.Success++
	metric.LastSuccess = time.Now()
}

// RecordFailure records a failed stage run with a short reason
func (m *Manager) RecordFailure(topic, function, reason string) {
	if m == nil {
		return
	}
	metric := m.outcome(buildPath(topic, function))

	metric.mu.Lock()
	defer metric.mu.Unlock()
	metric.Failures++
	metric.LastFailure = time.Now()
	if reason != "" {
		if metric.FailureReasons == nil {
			metric.FailureReasons = make(map[string]int64)
		}
		metric.FailureReasons[reason]++
	}
}

// Observe is the usual call site helper: it records the elapsed time since
// start and the outcome of err.
func (m *Manager) Observe(topic, function string, start time.Time, err error, reason func(error) string) {
	if m == nil {
		return
	}
	m.RecordDuration(topic, function, time.Since(start))
	if err == nil {
		m.RecordSuccess(topic, function)
		return
	}
	r := "error"
	if reason != nil {
		r = reason(err)
	}
	m.RecordFailure(topic, function, r)
}

func (m *Manager) outcome(path string) *SuccessFailMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, exists := m.successFail[path]
	if !exists {
		metric = &SuccessFailMetric{}
		m.successFail[path] = metric
	}
	return metric
}

// Snapshot returns every stage sorted by path.
func (m *Manager) Snapshot() []StageSnapshot {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stages := make(map[string]*StageSnapshot)
	get := func(path string) *StageSnapshot {
		s, ok := stages[path]
		if !ok {
			s = &StageSnapshot{Path: path}
			stages[path] = s
		}
		return s
	}
	for path, t := range m.timings {
		get(path).Timing = t.snapshot()
	}
	for path, sf := range m.successFail {
		get(path).Outcomes = sf.snapshot()
	}

	out := make([]StageSnapshot, 0, len(stages))
	for _, s := range stages {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
