package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/lib/pq"               // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"     // SQLite driver
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
)

// ConnectionConfig holds everything needed to open one database session.
// An empty Username selects trusted/integrated authentication where the
// driver supports it.
type ConnectionConfig struct {
	Driver                 string
	Server                 string
	Port                   int
	Database               string
	Username               string
	Password               string
	TrustServerCertificate bool
}

// ConnectError wraps a failure to establish or verify a session. It is
// always fatal for the run; no output file is produced.
type ConnectError struct {
	Target string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.Target, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// dsn builds the driver-specific connection string.
func (c ConnectionConfig) dsn() (string, error) {
	switch c.Driver {
	case "sqlserver":
		return c.sqlServerDSN(), nil
	case "postgres":
		return c.postgresDSN(), nil
	case "mysql":
		return c.mysqlDSN(), nil
	case "sqlite3":
		// The server argument is the database file path.
		return c.Server, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", c.Driver)
	}
}

// sqlServerDSN builds a sqlserver:// connection URL. Omitting the user info
// makes the driver use the logged-in user (integrated authentication).
func (c ConnectionConfig) sqlServerDSN() string {
	port := c.Port
	if port == 0 {
		port = 1433
	}

	query := url.Values{}
	if c.Database != "" {
		query.Add("database", c.Database)
	}
	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if c.Username != "" {
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
			url.QueryEscape(c.Username), url.QueryEscape(c.Password),
			c.Server, port, query.Encode())
	}
	return fmt.Sprintf("sqlserver://%s:%d?%s", c.Server, port, query.Encode())
}

func (c ConnectionConfig) postgresDSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}

	parts := []string{
		fmt.Sprintf("host=%s", c.Server),
		fmt.Sprintf("port=%d", port),
		"sslmode=disable",
	}
	if c.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", c.Database))
	}
	if c.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", c.Username))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	return strings.Join(parts, " ")
}

func (c ConnectionConfig) mysqlDSN() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}

	auth := c.Username
	if c.Password != "" {
		auth += ":" + c.Password
	}
	if auth != "" {
		auth += "@"
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s", auth, c.Server, port, c.Database)
}

// Connect opens and pings a database session. Failures are wrapped in
// ConnectError and abort the whole run.
func Connect(ctx context.Context, cfg ConnectionConfig) (*sql.DB, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, &ConnectError{Target: cfg.Server, Err: err}
	}

	slog.Debug("opening database connection", "driver", cfg.Driver, "server", cfg.Server)
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, &ConnectError{Target: cfg.Server, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectError{Target: cfg.Server, Err: err}
	}

	slog.Info("connected", "driver", cfg.Driver, "server", cfg.Server)
	return db, nil
}
