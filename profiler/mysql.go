package profiler

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLDialect profiles a MySQL server. Schemas are databases in MySQL, so
// the database axis enumerates information_schema.schemata.
type MySQLDialect struct{}

// NewMySQLDialect creates the MySQL dialect.
func NewMySQLDialect() Dialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) DefaultSchema() string { return "" }

func (d *MySQLDialect) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY schema_name
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

func (d *MySQLDialect) ListTables(ctx context.Context, db *sql.DB, database string) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
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

func (d *MySQLDialect) ListColumns(ctx context.Context, db *sql.DB, database string, table Table) ([]Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			character_maximum_length,
			numeric_precision,
			numeric_scale
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
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

func (d *MySQLDialect) SampleColumn(ctx context.Context, db *sql.DB, database string, table Table, column string, limit int) ([]string, error) {
	quotedColumn := backtickQuote(column)
	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM %s.%s
		WHERE %s IS NOT NULL
		ORDER BY %s
		LIMIT %d
	`, quotedColumn,
		backtickQuote(database), backtickQuote(table.Name),
		quotedColumn, quotedColumn, limit)

	return scanSamples(ctx, db, query)
}

// backtickQuote quotes a MySQL identifier, escaping embedded backticks by
// doubling them.
func backtickQuote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}
