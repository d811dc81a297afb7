package profiler

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteDialect profiles a SQLite database file. The database axis
// enumerates the attached databases of the session (PRAGMA database_list),
// which is just "main" for a plain file.
type SQLiteDialect struct{}

// NewSQLiteDialect creates the SQLite dialect.
func NewSQLiteDialect() Dialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string { return "sqlite3" }

func (d *SQLiteDialect) DefaultSchema() string { return "" }

func (d *SQLiteDialect) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var databases []string
	for rows.Next() {
		var seq int
		var name, file string
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return nil, err
		}
		if name == "temp" {
			continue
		}
		databases = append(databases, name)
	}

	return databases, rows.Err()
}

func (d *SQLiteDialect) ListTables(ctx context.Context, db *sql.DB, database string) ([]Table, error) {
	query := fmt.Sprintf(`
		SELECT name
		FROM %s.sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, doubleQuote(database))

	rows, err := db.QueryContext(ctx, query)
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

func (d *SQLiteDialect) ListColumns(ctx context.Context, db *sql.DB, database string, table Table) ([]Column, error) {
	// table_info reports columns in ordinal (cid) order. SQLite declared
	// types are freeform and may already embed a length, so they pass
	// through as the bare descriptor.
	query := fmt.Sprintf("PRAGMA %s.table_info(%s)",
		doubleQuote(database), doubleQuote(table.Name))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, declaredType string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &declaredType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, Column{
			Name:       name,
			DataType:   declaredType,
			IsNullable: notNull == 0,
		})
	}

	return columns, rows.Err()
}

func (d *SQLiteDialect) SampleColumn(ctx context.Context, db *sql.DB, database string, table Table, column string, limit int) ([]string, error) {
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
