package profiler

import (
	"context"
	"database/sql"
	"log/slog"
)

// Run performs one profiling pass: enumerate databases, then tables, then
// columns, sampling each column along the way, and assembles the report.
//
// The walk is resilient per unit: a failed metadata query skips that
// database or table and continues with its siblings, and a failed sample
// query degrades that column to the no-data marker. Rows collected before a
// failure are never discarded.
func Run(ctx context.Context, db *sql.DB, dialect Dialect, opts Options) *Report {
	slog.Debug("starting catalog walk", "dialect", dialect.Name())

	report := &Report{}
	limit := opts.sampleSize()
	defaultSchema := dialect.DefaultSchema()

	databases, err := dialect.ListDatabases(ctx, db)
	if err != nil {
		slog.Error("failed to list databases", "dialect", dialect.Name(), "error", err)
		report.Failures = append(report.Failures, &CatalogError{Err: err})
		report.Summary = Summarize(report.Rows, opts.topTypes())
		report.Summary.Failed = 1
		return report
	}
	slog.Info("found databases", "count", len(databases))

	var processed, skipped, failed int

	for _, database := range databases {
		slog.Info("processing database", "database", database)

		tables, err := dialect.ListTables(ctx, db, database)
		if err != nil {
			slog.Error("failed to list tables", "database", database, "error", err)
			report.Failures = append(report.Failures, &CatalogError{Database: database, Err: err})
			failed++
			continue
		}
		if len(tables) == 0 {
			skipped++
			continue
		}

		for _, table := range tables {
			tableName := table.DisplayName(defaultSchema)
			slog.Debug("processing table", "database", database, "table", tableName)

			columns, err := dialect.ListColumns(ctx, db, database, table)
			if err != nil {
				slog.Error("failed to list columns",
					"database", database, "table", tableName, "error", err)
				report.Failures = append(report.Failures,
					&CatalogError{Database: database, Table: tableName, Err: err})
				failed++
				continue
			}
			if len(columns) == 0 {
				skipped++
				continue
			}

			for _, col := range columns {
				samples, err := dialect.SampleColumn(ctx, db, database, table, col.Name, limit)
				if err != nil {
					slog.Warn("failed to sample column",
						"database", database, "table", tableName,
						"column", col.Name, "error", err)
					report.Failures = append(report.Failures,
						&SampleError{Database: database, Table: tableName, Column: col.Name, Err: err})
					samples = nil
				}

				nullable := "NO"
				if col.IsNullable {
					nullable = "YES"
				}

				report.Rows = append(report.Rows, Row{
					Database:     database,
					Table:        tableName,
					Column:       col.Name,
					DataType:     FormatType(col),
					SampleValues: JoinSamples(samples),
					IsNullable:   nullable,
				})
				processed++
			}
		}
	}

	report.Summary = Summarize(report.Rows, opts.topTypes())
	report.Summary.Processed = processed
	report.Summary.Skipped = skipped
	report.Summary.Failed = failed

	slog.Info("catalog walk completed",
		"rows", len(report.Rows), "processed", processed, "skipped", skipped, "failed", failed)
	return report
}
