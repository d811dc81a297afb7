package profiler

import "database/sql"

// UnboundedLength is the catalog sentinel for "no fixed length"
// (e.g. varchar(max) reports -1).
const UnboundedLength = -1

// DefaultSampleSize is the number of distinct values fetched per column
// when Options.SampleSize is not set.
const DefaultSampleSize = 3

// NoDataMarker is emitted in place of sample values when a column has no
// non-null data or its samples could not be fetched.
const NoDataMarker = "No data"

// Table identifies a base table within one database. Schema is only set by
// dialects that qualify tables below the database level (SQL Server).
type Table struct {
	Schema string
	Name   string
}

// DisplayName returns the table name as it appears in the report. The
// dialect's default schema is elided.
func (t Table) DisplayName(defaultSchema string) string {
	if t.Schema == "" || t.Schema == defaultSchema {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column holds the catalog metadata for one column, ordered by ordinal
// position within its table.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	MaxLength  sql.NullInt64
	Precision  sql.NullInt64
	Scale      sql.NullInt64
}

// Row is one line of the data map: one (database, table, column) triple.
type Row struct {
	Database     string
	Table        string
	Column       string
	DataType     string
	SampleValues string
	IsNullable   string
}

// Report is the result of one profiling run: insertion-ordered rows plus
// summary aggregates and the per-unit failures that were skipped over.
type Report struct {
	Rows     []Row
	Summary  Summary
	Failures []error
}

// TypeCount is one entry of the type-descriptor frequency ranking.
type TypeCount struct {
	DataType string
	Count    int
}

// DatabaseCount is the number of distinct tables profiled in one database.
type DatabaseCount struct {
	Database string
	Tables   int
}

// Summary holds the aggregates computed over a finished report.
type Summary struct {
	TotalRows         int
	Databases         int
	Tables            int
	Columns           int
	TopTypes          []TypeCount
	TablesPerDatabase []DatabaseCount

	// Unit outcomes: Processed counts emitted rows, Skipped counts units
	// that yielded nothing, Failed counts units whose metadata or sample
	// query failed and was skipped over.
	Processed int
	Skipped   int
	Failed    int
}

// Options configures one profiling run. The zero value is usable.
type Options struct {
	// SampleSize is the maximum number of distinct values fetched per
	// column. Defaults to DefaultSampleSize.
	SampleSize int

	// TopTypes is the length of the type-descriptor frequency ranking in
	// the summary. Defaults to 10.
	TopTypes int
}

func (o Options) sampleSize() int {
	if o.SampleSize > 0 {
		return o.SampleSize
	}
	return DefaultSampleSize
}

func (o Options) topTypes() int {
	if o.TopTypes > 0 {
		return o.TopTypes
	}
	return 10
}
