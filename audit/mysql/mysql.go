// Package mysql is a MySQL-backed audit.Sink, a thin database/sql
// wrapper in the shape of the teacher's adapter/mysql.Database.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"github.com/unitsys/resolver/audit"
)

// Sink appends resolution events to a unit_resolutions table.
type Sink struct {
	db *sql.DB
}

// Config names the connection parameters, mirroring the teacher's
// per-driver adapter.Config shape.
type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	Socket   string
	DbName   string
}

func buildDSN(c Config) string {
	cfg := driver.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.DBName = c.DbName
	cfg.TLSConfig = "preferred"
	if c.Socket == "" {
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	} else {
		cfg.Net = "unix"
		cfg.Addr = c.Socket
	}
	return cfg.FormatDSN()
}

// NewSink opens a connection built from a structured Config and
// idempotently creates the audit table.
func NewSink(ctx context.Context, c Config) (*Sink, error) {
	return NewSinkDSN(ctx, buildDSN(c))
}

// NewSinkDSN opens a connection from a raw go-sql-driver/mysql DSN
// (e.g. as accepted on the CLI's --audit-dsn flag) and idempotently
// creates the audit table.
func NewSinkDSN(ctx context.Context, dsn string) (*Sink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql audit sink: %w", err)
	}
	const ddl = `CREATE TABLE IF NOT EXISTS unit_resolutions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		expression VARCHAR(512) NOT NULL,
		factor DOUBLE NOT NULL,
		offset_value DOUBLE NOT NULL,
		exponents VARCHAR(256) NOT NULL,
		cache_hit BOOLEAN NOT NULL,
		duration_ns BIGINT NOT NULL,
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
