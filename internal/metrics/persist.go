package metrics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/roelfdiedericks/mentalnote/internal/logging"
	"github.com/roelfdiedericks/mentalnote/internal/paths"
)

const (
	// DBFileName lives in the mentalnote data directory.
	DBFileName    = "metrics.db"
	pruneMaxAge   = 90 * 24 * time.Hour
	dbOpenOptions = "?_busy_timeout=5000"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS metrics (
	path       TEXT NOT NULL,
	type       TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (path, type)
)`

// DefaultPath returns ~/.mentalnote/metrics.db.
func DefaultPath() (string, error) {
	return paths.DataPath(DBFileName)
}

// Open loads persisted metrics from dbPath and prunes stale rows. Metrics
// recorded afterwards are written back by Close.
func Open(dbPath string) (*Manager, error) {
	if err := paths.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath+dbOpenOptions)
	if err != nil {
		return nil, fmt.Errorf("metrics: open database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("metrics: create schema: %w", err)
	}

	m := New()
	m.db = db

	if n, err := m.prune(); err != nil {
		L_warn("metrics: failed to prune stale data", "error", err)
	} else if n > 0 {
		L_debug("metrics: pruned stale metrics", "count", n)
	}
	loaded, err := m.load()
	if err != nil {
		L_warn("metrics: failed to load persisted data", "error", err)
	}
	L_trace("metrics: opened", "path", dbPath, "loaded", loaded)
	return m, nil
}

// Close saves all metrics and closes the database. Safe on a nil or
// in-memory manager.
func (m *Manager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	if err := m.save(); err != nil {
		L_warn("metrics: final save failed", "error", err)
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// save writes all metrics in a single transaction.
func (m *Manager) save() error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO metrics (path, type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path, type) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := saveMapEntries(stmt, now, m.timings, TypeTiming, marshalTiming); err != nil {
		return err
	}
	if err := saveMapEntries(stmt, now, m.successFail, TypeSuccessFail, marshalSuccessFail); err != nil {
		return err
	}
	return tx.Commit()
}

// saveMapEntries serializes all entries in a metric map and upserts them.
func saveMapEntries[T any](stmt *sql.Stmt, now int64, metrics map[string]*T, metricType MetricType, marshal func(*T) ([]byte, error)) error {
	for path, metric := range metrics {
		data, err := marshal(metric)
		if err != nil {
			L_warn("metrics: failed to marshal metric", "path", path, "type", metricType, "error", err)
			continue
		}
		if _, err := stmt.Exec(path, string(metricType), data, now); err != nil {
			return err
		}
	}
	return nil
}

// load restores persisted metrics into memory.
func (m *Manager) load() (int, error) {
	rows, err := m.db.Query("SELECT path, type, data FROM metrics")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for rows.Next() {
		var path, metricType string
		var data []byte
		if err := rows.Scan(&path, &metricType, &data); err != nil {
			L_warn("metrics: failed to scan row", "error", err)
			continue
		}
		switch MetricType(metricType) {
		case TypeTiming:
			var p persistTiming
			if err := json.Unmarshal(data, &p); err != nil {
				L_warn("metrics: bad timing row", "path", path, "error", err)
				continue
			}
			m.timings[path] = &TimingMetric{Count: p.Count, Total: p.Total, Min: p.Min, Max: p.Max, Last: p.Last}
		case TypeSuccessFail:
			var p persistSuccessFail
			if err := json.Unmarshal(data, &p); err != nil {
				L_warn("metrics: bad outcome row", "path", path, "error", err)
				continue
			}
			m.successFail[path] = &SuccessFailMetric{
				Success:        p.Success,
				Failures:       p.Failures,
				LastSuccess:    p.LastSuccess,
				LastFailure:    p.LastFailure,
				FailureReasons: p.FailureReasons,
			}
		default:
			continue
		}
		count++
	}
	return count, rows.Err()
}

// prune deletes metrics not updated within the retention period.
func (m *Manager) prune() (int, error) {
	cutoff := time.Now().Add(-pruneMaxAge).Unix()
	result, err := m.db.Exec("DELETE FROM metrics WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// JSON-safe mirrors of the metric structs (no mutexes).

type persistTiming struct {
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Last  time.Duration `json:"last"`
}

type persistSuccessFail struct {
	Success        int64            `json:"success"`
	Failures       int64            `json:"failures"`
	LastSuccess    time.Time        `json:"last_success"`
	LastFailure    time.Time        `json:"last_failure"`
	FailureReasons map[string]int64 `json:"failure_reasons,omitempty"`
}

func marshalTiming(t *TimingMetric) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return json.Marshal(persistTiming{Count: t.Count, Total: t.Total, Min: t.Min, Max: t.Max, Last: t.Last})
}

func marshalSuccessFail(sf *SuccessFailMetric) ([]byte, error) {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return json.Marshal(persistSuccessFail{
		Success:        sf.Success,
		Failures:       sf.Failures,
		LastSuccess:    sf.LastSuccess,
		LastFailure:    sf.LastFailure,
		FailureReasons: sf.FailureReasons,
	})
}
