package profiler

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresDialect profiles the PostgreSQL database the session is connected
// to. A postgres session cannot query another database's catalog, so the
// database axis maps to the schemas of the connected database.
type PostgresDialect struct{}

// NewPostgresDialect creates the PostgreSQL dialect.
func NewPostgresDialect() Dialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) DefaultSchema() string { return "" }

func (d *PostgresDialect) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		AND schema_name NOT LIKE 'pg_toast%'
		AND schema_name NOT LIKE 'pg_temp%'
		ORDER BY schema_name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		schemas = append(schemas, name)
	}

	return schemas, rows.Err()
}

func (d *PostgresDialect) ListTables(ctx context.Context, db *sql.DB, database string) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := db.QueryContext(ctx, query, database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (d *PostgresDialect) ListColumns(ctx context.Context, db *sql.DB, database string, table Table) ([]Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			character_maximum_length,
			numeric_precision,
			numeric_scale
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, database, table.Name)
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

func (d *PostgresDialect) SampleColumn(ctx context.Context, db *sql.DB, database string, table Table, column string, limit int) ([]string, error) {
	quotedColumn := doubleQuote(column)
	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM %s.%s
		WHERE %s IS NOT NULL
		ORDER BY %s
		LIMIT %d
	`, quotedColumn,
		doubleQuote(database), doubleQuote(table.Name),
		quotedColumn, quotedColumn, limit)

	return scanSamples(ctx, db, query)
}

// doubleQuote quotes a SQL identifier with double quotes, escaping embedded
// quotes by doubling them.
func doubleQuote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
