package profiler

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLServerDialect profiles a SQL Server instance. One session can address
// every database on the instance, so the database axis enumerates
// sys.databases directly.
type SQLServerDialect struct{}

// NewSQLServerDialect creates the SQL Server dialect.
func NewSQLServerDialect() Dialect {
	return &SQLServerDialect{}
}

func (d *SQLServerDialect) Name() string { return "sqlserver" }

func (d *SQLServerDialect) DefaultSchema() string { return "dbo" }

func (d *SQLServerDialect) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	// state = 0 keeps online databases only.
	query := `
		SELECT name
		FROM sys.databases
		WHERE state = 0
		AND name NOT IN ('master', 'tempdb', 'model', 'msdb')
		ORDER BY name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var databases []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		databases = append(databases, name)
	}

	return databases, rows.Err()
}

func (d *SQLServerDialect) ListTables(ctx context.Context, db *sql.DB, database string) ([]Table, error) {
	query := fmt.Sprintf(`
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM %s.INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME
	`, bracketQuote(database))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (d *SQLServerDialect) ListColumns(ctx context.Context, db *sql.DB, database string, table Table) ([]Column, error) {
	query := fmt.Sprintf(`
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE
		FROM %s.INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
		ORDER BY ORDINAL_POSITION
	`, bracketQuote(database))

	rows, err := db.QueryContext(ctx, query,
		sql.Named("schema", table.Schema),
		sql.Named("table", table.Name),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.MaxLength, &col.Precision, &col.Scale); err != nil {
			return nil, err
		}
		col.IsNullable = nullable == "YES"
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (d *SQLServerDialect) SampleColumn(ctx context.Context, db *sql.DB, database string, table Table, column string, limit int) ([]string, error) {
	schema := table.Schema
	if schema == "" {
		schema = d.DefaultSchema()
	}

	// Identifiers come from catalog metadata, but quote them anyway so a
	// name containing ] or . cannot break out of the statement.
	quotedColumn := bracketQuote(column)
	query := fmt.Sprintf(`
		SELECT DISTINCT TOP (%d) %s
		FROM %s.%s.%s
		WHERE %s IS NOT NULL
		ORDER BY %s
	`, limit, quotedColumn,
		bracketQuote(database), bracketQuote(schema), bracketQuote(table.Name),
		quotedColumn, quotedColumn)

	return scanSamples(ctx, db, query)
}

// bracketQuote quotes an identifier the way QUOTENAME() does: square
// brackets, with ] escaped as ]].
func bracketQuote(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// scanSamples runs a single-column sample query and stringifies the values.
func scanSamples(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, formatValue(v))
	}

	return values, rows.Err()
}
