// Package mssql is a SQL Server-backed audit.Sink, a thin database/sql
// wrapper in the shape of the teacher's adapter/mssql.Database.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"

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
}

func buildDSN(c Config) string {
	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		c.User, c.Password, c.Host, c.Port, c.DbName)
}

// NewSink opens a connection built from a structured Config and
// idempotently creates the audit table.
func NewSink(ctx context.Context, c Config) (*Sink, error) {
	return NewSinkDSN(ctx, buildDSN(c))
}

// NewSinkDSN opens a connection from a raw go-mssqldb DSN (e.g. as
// accepted on the CLI's --audit-dsn flag) and idempotently creates the
// audit table.
func NewSinkDSN(ctx context.Context, dsn string) (*Sink, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mssql audit sink: %w", err)
	}
	const ddl = `IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='unit_resolutions' AND xtype='U')
		CREATE TABLE unit_resolutions (
			id BIGINT IDENTITY PRIMARY KEY,
			expression NVARCHAR(512) NOT NULL,
			factor FLOAT NOT NULL,
			offset_value FLOAT NOT NULL,
			exponents NVARCHAR(256) NOT NULL,
			cache_hit BIT NOT NULL,
			duration_ns BIGINT NOT NULL,
			recorded_at DATETIME2 NOT NULL
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
		VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7)`
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
