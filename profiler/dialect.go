package profiler

import (
	"context"
	"database/sql"
	"sort"
)

// Dialect abstracts the catalog and sampling queries of one database engine.
// Implementations issue read-only metadata queries against an open session;
// they never own the session.
type Dialect interface {
	// Name returns the dialect name for identification. It matches the
	// database/sql driver name used to open sessions for this engine.
	Name() string

	// DefaultSchema returns the schema elided from table display names,
	// or "" when the engine has no schema level below the database axis.
	DefaultSchema() string

	// ListDatabases returns the online, non-system database names,
	// lexicographically sorted. Engines without cross-database catalog
	// access map the database axis to their closest equivalent.
	ListDatabases(ctx context.Context, db *sql.DB) ([]string, error)

	// ListTables returns the base tables of one database, sorted. Views
	// and system tables are excluded.
	ListTables(ctx context.Context, db *sql.DB, database string) ([]Table, error)

	// ListColumns returns the columns of one table ordered by ordinal
	// position.
	ListColumns(ctx context.Context, db *sql.DB, database string, table Table) ([]Column, error)

	// SampleColumn returns up to limit distinct non-null values from one
	// column, ascending by the column's native ordering, stringified for
	// display.
	SampleColumn(ctx context.Context, db *sql.DB, database string, table Table, column string, limit int) ([]string, error)
}

// Registry manages the available dialects.
type Registry struct {
	dialects map[string]Dialect
}

// NewRegistry creates an empty dialect registry.
func NewRegistry() *Registry {
	return &Registry{dialects: make(map[string]Dialect)}
}

// DefaultRegistry returns a registry with every built-in dialect registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewSQLServerDialect())
	r.Register(NewPostgresDialect())
	r.Register(NewMySQLDialect())
	r.Register(NewSQLiteDialect())
	return r
}

// Register adds a dialect to the registry.
func (r *Registry) Register(d Dialect) {
	r.dialects[d.Name()] = d
}

// Get retrieves a dialect by name.
func (r *Registry) Get(name string) (Dialect, bool) {
	d, exists := r.dialects[name]
	return d, exists
}

// Names returns the registered dialect names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
