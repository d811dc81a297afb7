package profiler

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func num(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		want string
	}{
		{
			name: "character_length_wins",
			col:  Column{DataType: "varchar", MaxLength: num(50), Precision: num(0)},
			want: "varchar(50)",
		},
		{
			name: "unbounded_length_falls_through_to_bare_type",
			col:  Column{DataType: "nvarchar", MaxLength: num(UnboundedLength)},
			want: "nvarchar",
		},
		{
			name: "zero_length_falls_through",
			col:  Column{DataType: "text", MaxLength: num(0)},
			want: "text",
		},
		{
			name: "precision_and_scale",
			col:  Column{DataType: "decimal", Precision: num(10), Scale: num(2)},
			want: "decimal(10,2)",
		},
		{
			name: "zero_scale_decimal_keeps_precision",
			col:  Column{DataType: "numeric", Precision: num(18), Scale: num(0)},
			want: "numeric(18)",
		},
		{
			name: "integer_precision_is_suppressed",
			col:  Column{DataType: "int", Precision: num(10), Scale: num(0)},
			want: "int",
		},
		{
			name: "bigint_precision_is_suppressed",
			col:  Column{DataType: "bigint", Precision: num(19), Scale: num(0)},
			want: "bigint",
		},
		{
			name: "float_keeps_precision",
			col:  Column{DataType: "float", Precision: num(53)},
			want: "float(53)",
		},
		{
			name: "bare_type",
			col:  Column{DataType: "datetime"},
			want: "datetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatType(tt.col))
		})
	}
}

func TestJoinSamples(t *testing.T) {
	assert.Equal(t, NoDataMarker, JoinSamples(nil))
	assert.Equal(t, NoDataMarker, JoinSamples([]string{}))
	assert.Equal(t, "a", JoinSamples([]string{"a"}))
	assert.Equal(t, "a, b, c", JoinSamples([]string{"a", "b", "c"}))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "hello", formatValue("hello"))
	assert.Equal(t, "bytes", formatValue([]byte("bytes")))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "9.99", formatValue(9.99))
	assert.Equal(t, "true", formatValue(true))

	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15 10:30:00", formatValue(ts))
}

func TestFormatSummary(t *testing.T) {
	rows := []Row{
		{Database: "Sales", Table: "Orders", Column: "Id", DataType: "int"},
		{Database: "Sales", Table: "Orders", Column: "Total", DataType: "decimal(10,2)"},
		{Database: "HR", Table: "People", Column: "Name", DataType: "varchar(50)"},
	}
	summary := Summarize(rows, 5)
	summary.Processed = 3

	out := FormatSummary(summary)
	assert.Contains(t, out, "=== DATA MAP SUMMARY ===")
	assert.Contains(t, out, "Total records: 3")
	assert.Contains(t, out, "Databases: 2")
	assert.Contains(t, out, "Tables: 2")
	assert.Contains(t, out, "Units processed: 3, skipped: 0, failed: 0")
	assert.Contains(t, out, "Most common data types:")
	assert.Contains(t, out, "Tables per database:")
}
