package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kwatts/datamap/profiler"
)

// StartMCPServer starts the MCP server exposing the extraction tools over
// stdio.
func StartMCPServer() error {
	s := server.NewMCPServer(
		"datamap",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	profileSchemaTool := mcp.NewTool("profile_schema",
		mcp.WithDescription("Profile a database instance: databases, tables, columns, type descriptors and sample values"),
		mcp.WithString("server",
			mcp.Required(),
			mcp.Description("Server host, host:port target, or database file path for sqlite3"),
		),
		mcp.WithString("driver",
			mcp.Description("Database driver (default: sqlserver)"),
			mcp.Enum("sqlserver", "postgres", "mysql", "sqlite3"),
		),
		mcp.WithString("database",
			mcp.Description("Initial database to connect to"),
		),
		mcp.WithString("username",
			mcp.Description("Username (empty selects trusted authentication)"),
		),
		mcp.WithString("password",
			mcp.Description("Password"),
		),
		mcp.WithNumber("samples",
			mcp.Description("Distinct sample values per column (default: 3)"),
		),
	)

	s.AddTool(profileSchemaTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleProfileSchema(ctx, request)
	})

	listDatabasesTool := mcp.NewTool("list_databases",
		mcp.WithDescription("List the online, non-system databases of an instance"),
		mcp.WithString("server",
			mcp.Required(),
			mcp.Description("Server host, host:port target, or database file path for sqlite3"),
		),
		mcp.WithString("driver",
			mcp.Description("Database driver (default: sqlserver)"),
			mcp.Enum("sqlserver", "postgres", "mysql", "sqlite3"),
		),
		mcp.WithString("database",
			mcp.Description("Initial database to connect to"),
		),
		mcp.WithString("username",
			mcp.Description("Username (empty selects trusted authentication)"),
		),
		mcp.WithString("password",
			mcp.Description("Password"),
		),
	)

	s.AddTool(listDatabasesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListDatabases(ctx, request)
	})

	listFilePathsTool := mcp.NewTool("list_file_paths",
		mcp.WithDescription("List file paths in a directory"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Path to the directory to scan"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Include files in subdirectories (default: true)"),
		),
	)

	s.AddTool(listFilePathsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListFilePaths(ctx, request)
	})

	slog.Info("starting datamap mcp server")
	return server.ServeStdio(s)
}

// handleProfileSchema processes the profile_schema tool request
func handleProfileSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireString("server")
	if err != nil {
		return mcp.NewToolResultError("server parameter is required"), nil
	}

	cfg := ConnectionConfig{
		Driver:   request.GetString("driver", "sqlserver"),
		Server:   target,
		Database: request.GetString("database", ""),
		Username: request.GetString("username", ""),
		Password: request.GetString("password", ""),
	}
	samples := request.GetInt("samples", profiler.DefaultSampleSize)

	output, err := profileSchemaCore(ctx, cfg, samples)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(output), nil
}

// profileSchemaCore contains the core logic for the profile_schema tool,
// separated for testing.
func profileSchemaCore(ctx context.Context, cfg ConnectionConfig, samples int) (string, error) {
	dialect, exists := profiler.DefaultRegistry().Get(cfg.Driver)
	if !exists {
		return "", fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer db.Close()

	report := profiler.Run(ctx, db, dialect, profiler.Options{SampleSize: samples})

	csvText, err := renderRowsCSV(report.Rows)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	return fmt.Sprintf("%s\n%s", profiler.FormatSummary(report.Summary), csvText), nil
}

// handleListDatabases processes the list_databases tool request
func handleListDatabases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireString("server")
	if err != nil {
		return mcp.NewToolResultError("server parameter is required"), nil
	}

	cfg := ConnectionConfig{
		Driver:   request.GetString("driver", "sqlserver"),
		Server:   target,
		Database: request.GetString("database", ""),
		Username: request.GetString("username", ""),
		Password: request.GetString("password", ""),
	}

	output, err := listDatabasesCore(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(output), nil
}

// listDatabasesCore contains the core logic for the list_databases tool,
// separated for testing.
func listDatabasesCore(ctx context.Context, cfg ConnectionConfig) (string, error) {
	dialect, exists := profiler.DefaultRegistry().Get(cfg.Driver)
	if !exists {
		return "", fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer db.Close()

	databases, err := dialect.ListDatabases(ctx, db)
	if err != nil {
		return "", fmt.Errorf("failed to list databases: %w", err)
	}

	jsonOutput, err := json.MarshalIndent(databases, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
	}

	return string(jsonOutput), nil
}

// handleListFilePaths processes the list_file_paths tool request
func handleListFilePaths(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	directory, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError("directory parameter is required"), nil
	}

	recursive := request.GetBool("recursive", true)

	output, err := listFilePathsCore(directory, recursive)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(output), nil
}

// listFilePathsCore contains the core logic for the list_file_paths tool,
// separated for testing.
func listFilePathsCore(directory string, recursive bool) (string, error) {
	paths, err := ListFiles(directory, recursive)
	if err != nil {
		return "", err
	}

	result := map[string]interface{}{
		"directory":  directory,
		"file_count": len(paths),
		"files":      paths,
	}

	jsonOutput, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
	}

	return string(jsonOutput), nil
}

// renderRowsCSV renders report rows as CSV text for tool output.
func renderRowsCSV(rows []profiler.Row) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"database", "table", "column", "data_type", "sample_values", "is_nullable"}); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := []string{row.Database, row.Table, row.Column, row.DataType, row.SampleValues, row.IsNullable}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()

	return buf.String(), w.Error()
}
