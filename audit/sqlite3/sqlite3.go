// Package sqlite3 is a SQLite-backed audit.Sink, a thin database/sql
// wrapper in the shape of the teacher's adapter/sqlite3.Database. It
// uses modernc.org/sqlite, a cgo-free driver, matching the teacher's
// choice for the file-based adapter.
package sqlite3

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/unitsys/resolver/audit"
)

// Sink appends resolution events to a unit_resolutions table in a
// local SQLite database file.
type Sink struct {
	db *sql.DB
}

// NewSink opens path (created if absent) and idempotently creates the
// audit table.
func NewSink(ctx context.Context, path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite audit sink: %w", err)
	}
	const ddl = `CREATE TABLE IF NOT EXISTS unit_resolutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		expression TEXT NOT NULL,
		factor REAL NOT NULL,
		offset_value REAL NOT NULL,
		exponents TEXT NOT NULL,
		cache_hit INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		recorded_at DATETIME NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating unit_resolutions table: %w", err)
	}
	return &Sink{db: db}, nil
}

// Record implements audit.Sink.
func (s *Sink) Record(ctx context.Context, e audit.Event) error {
	const q = `INSERT INTO unit_resolutions
		(expression, factor, offset_value, exponents, cache_hit, duration_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, e.Expression, e.Factor, e.Offset,
		exponentsText(e.Exponents), e.CacheHit, e.Duration.Nanoseconds(), e.At)
	return err
}

// Close implements audit.Sink.
func (s *Sink) Close() error { return s.db.Close() }

func exponentsText(exponents []int32) string {
	b := make([]byte, 0, len(exponents)*4)
	for i, e := range exponents {
		if i > 0 {
			b = append(b, ',')
		}
		b = fmt.Appendf(b, "%d", e)
	}
	return string(b)
}
