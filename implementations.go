package main

import (
	"context"
	"database/sql"

	"github.com/kwatts/datamap/profiler"
)

// SQLSessionManager opens one database/sql session from a ConnectionConfig
// and keeps it for the duration of the run.
type SQLSessionManager struct {
	config ConnectionConfig
	db     *sql.DB
}

// NewSQLSessionManager creates a session manager for the given connection.
func NewSQLSessionManager(cfg ConnectionConfig) SessionManager {
	return &SQLSessionManager{config: cfg}
}

func (s *SQLSessionManager) Open(ctx context.Context) error {
	db, err := Connect(ctx, s.config)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *SQLSessionManager) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLSessionManager) DB() *sql.DB {
	return s.db
}

// DialectProfiler runs the catalog walk with a fixed dialect and options.
type DialectProfiler struct {
	dialect profiler.Dialect
	opts    profiler.Options
}

// NewDialectProfiler creates a profiler bound to one dialect.
func NewDialectProfiler(dialect profiler.Dialect, opts profiler.Options) SchemaProfiler {
	return &DialectProfiler{dialect: dialect, opts: opts}
}

func (p *DialectProfiler) Profile(ctx context.Context, db *sql.DB) *profiler.Report {
	return profiler.Run(ctx, db, p.dialect, p.opts)
}

// CSVReportWriter persists reports as CSV files.
type CSVReportWriter struct{}

// NewCSVReportWriter creates the CSV report writer.
func NewCSVReportWriter() ReportWriter {
	return &CSVReportWriter{}
}

func (w *CSVReportWriter) Write(rows []profiler.Row, path string) error {
	return profiler.WriteReport(rows, path)
}
