package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Procedure is one stored procedure with its source text.
type Procedure struct {
	Database   string
	Schema     string
	Name       string
	Definition string
}

// ListProcedures returns the user stored procedures of one database with
// their source text, ordered by schema then name. Procedures whose source is
// encrypted have an empty definition.
func ListProcedures(ctx context.Context, db *sql.DB, database string) ([]Procedure, error) {
	// is_ms_shipped = 0 excludes system procedures.
	query := fmt.Sprintf(`
		SELECT
			SCHEMA_NAME(p.schema_id) AS schema_name,
			p.name,
			m.definition
		FROM %s.sys.procedures p
		JOIN %s.sys.sql_modules m ON p.object_id = m.object_id
		WHERE p.is_ms_shipped = 0
		ORDER BY SCHEMA_NAME(p.schema_id), p.name
	`, bracketQuote(database), bracketQuote(database))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query procedures in %s: %w", database, err)
	}
	defer rows.Close()

	var procs []Procedure
	for rows.Next() {
		var p Procedure
		var definition sql.NullString
		if err := rows.Scan(&p.Schema, &p.Name, &definition); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		p.Database = database
		p.Definition = definition.String
		procs = append(procs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate procedures: %w", err)
	}

	slog.Info("listed procedures", "database", database, "count", len(procs))
	return procs, nil
}

// WriteProcedureScripts writes one .sql file per procedure into dir and
// returns the number written.
func WriteProcedureScripts(procs []Procedure, dir string) (int, error) {
	for _, p := range procs {
		name := p.Name
		if p.Schema != "" {
			name = p.Schema + "." + p.Name
		}
		path := filepath.Join(dir, SafeFileName(name)+".sql")

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("-- Procedure: %s\n", name))
		sb.WriteString(fmt.Sprintf("-- Database: %s\n\n", p.Database))
		if p.Definition == "" {
			sb.WriteString("-- (definition unavailable)\n")
		} else {
			sb.WriteString(p.Definition)
			if !strings.HasSuffix(p.Definition, "\n") {
				sb.WriteString("\n")
			}
		}

		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return 0, fmt.Errorf("failed to write procedure script for %s: %w", name, err)
		}
		slog.Debug("wrote procedure script", "procedure", name, "path", path)
	}

	return len(procs), nil
}

// bracketQuote quotes a SQL Server identifier with square brackets, escaping
// ] as ]].
func bracketQuote(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}
