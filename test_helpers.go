package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kwatts/datamap/profiler"
)

// MockSessionManager is a mock implementation of SessionManager for testing
type MockSessionManager struct {
	OpenFunc  func(ctx context.Context) error
	CloseFunc func() error
	DBFunc    func() *sql.DB

	// Track calls for verification
	OpenCalled  bool
	CloseCalled bool
	DBCalled    bool
}

func (m *MockSessionManager) Open(ctx context.Context) error {
	m.OpenCalled = true
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx)
	}
	return nil
}

func (m *MockSessionManager) Close() error {
	m.CloseCalled = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockSessionManager) DB() *sql.DB {
	m.DBCalled = true
	if m.DBFunc != nil {
		return m.DBFunc()
	}
	return nil
}

// MockSchemaProfiler is a mock implementation of SchemaProfiler for testing
type MockSchemaProfiler struct {
	ProfileFunc func(ctx context.Context, db *sql.DB) *profiler.Report
}

func (m *MockSchemaProfiler) Profile(ctx context.Context, db *sql.DB) *profiler.Report {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, db)
	}
	return &profiler.Report{}
}

// MockReportWriter is a mock implementation of ReportWriter for testing
type MockReportWriter struct {
	WriteFunc func(rows []profiler.Row, path string) error

	WriteCalled bool
	GotRows     []profiler.Row
	GotPath     string
}

func (m *MockReportWriter) Write(rows []profiler.Row, path string) error {
	m.WriteCalled = true
	m.GotRows = rows
	m.GotPath = path
	if m.WriteFunc != nil {
		return m.WriteFunc(rows, path)
	}
	return nil
}

// sampleRows builds a small fixed report for tests.
func sampleRows() []profiler.Row {
	return []profiler.Row{
		{Database: "Sales", Table: "Orders", Column: "OrderId", DataType: "int", SampleValues: "1, 2, 3", IsNullable: "NO"},
		{Database: "Sales", Table: "Orders", Column: "Amount", DataType: "decimal(10,2)", SampleValues: "9.99, 19.99", IsNullable: "YES"},
		{Database: "HR", Table: "People", Column: "Name", DataType: "varchar(50)", SampleValues: "No data", IsNullable: "YES"},
	}
}

// SimulateError simulates various database errors for testing
func SimulateError(errType string) error {
	switch errType {
	case "connection":
		return fmt.Errorf("connection refused")
	case "permission":
		return fmt.Errorf("permission denied")
	default:
		return fmt.Errorf("simulated error: %s", errType)
	}
}
