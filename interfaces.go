package main

import (
	"context"
	"database/sql"

	"github.com/kwatts/datamap/profiler"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// SessionManager handles the lifecycle of one database session. A session is
// opened once per run and reused for every query of the run.
type SessionManager interface {
	// Open establishes the session and verifies connectivity
	Open(ctx context.Context) error
	// Close releases the session
	Close() error
	// DB returns the underlying database connection
	DB() *sql.DB
}

// SchemaProfiler runs the catalog walk against an open session.
type SchemaProfiler interface {
	// Profile enumerates databases, tables and columns, sampling each
	// column, and returns the assembled report
	Profile(ctx context.Context, db *sql.DB) *profiler.Report
}

// ReportWriter persists a finished report.
type ReportWriter interface {
	// Write serializes the rows to path, atomically replacing any
	// previous file
	Write(rows []profiler.Row, path string) error
}
