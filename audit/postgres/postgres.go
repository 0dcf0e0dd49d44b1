// Package postgres is a PostgreSQL-backed audit.Sink, a thin
// database/sql wrapper in the shape of the teacher's
// adapter/postgres.Database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/unitsys/resolver/audit"
)

// Sink appends resolution events to a unit_resolutions table.
type Sink struct {
	db *sql.DB
}

// Config names the connection parameters.
type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	DbName   string
	SslMode  string
}

func buildDSN(c Config) string {
	sslMode := c.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, sslMode)
}

// NewSink opens a connection built from a structured Config and
// idempotently creates the audit table.
func NewSink(ctx context.Context, c Config) (*Sink, error) {
	return NewSinkDSN(ctx, buildDSN(c))
}

// NewSinkDSN opens a connection from a raw lib/pq DSN (e.g. as
// accepted on the CLI's --audit-dsn flag) and idempotently creates the
// audit table.
func NewSinkDSN(ctx context.Context, dsn string) (*Sink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres audit sink: %w", err)
	}
	const ddl = `CREATE TABLE IF NOT EXISTS unit_resolutions (
		id BIGSERIAL PRIMARY KEY,
		expression TEXT NOT NULL,
		factor DOUBLE PRECISION NOT NULL,
		offset_value DOUBLE PRECISION NOT NULL,
		exponents TEXT NOT NULL,
		cache_hit BOOLEAN NOT NULL,
		duration_ns BIGINT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
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
