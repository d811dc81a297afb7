package profiler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatType derives the composite type descriptor for one column. The
// precedence is: length, then (precision,scale), then precision alone, then
// the bare type. The unbounded-length sentinel falls through to the later
// forms, and precision alone is only rendered for types where it is part of
// the declaration.
func FormatType(col Column) string {
	if col.MaxLength.Valid && col.MaxLength.Int64 != UnboundedLength && col.MaxLength.Int64 != 0 {
		return fmt.Sprintf("%s(%d)", col.DataType, col.MaxLength.Int64)
	}
	if col.Precision.Valid && col.Scale.Valid && col.Scale.Int64 > 0 {
		return fmt.Sprintf("%s(%d,%d)", col.DataType, col.Precision.Int64, col.Scale.Int64)
	}
	if col.Precision.Valid && col.Precision.Int64 > 0 && hasPrecisionDisplay(col.DataType) {
		return fmt.Sprintf("%s(%d)", col.DataType, col.Precision.Int64)
	}
	return col.DataType
}

// hasPrecisionDisplay reports whether a bare precision belongs in the type
// descriptor. Integer types also report a precision in the catalog, but
// "int(10)" is not how anyone declares an int.
func hasPrecisionDisplay(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "decimal", "numeric", "dec", "float", "real", "double precision", "double":
		return true
	default:
		return false
	}
}

// JoinSamples renders a sample set as the single report field: values joined
// by comma-and-space, or the no-data marker when the set is empty.
func JoinSamples(values []string) string {
	if len(values) == 0 {
		return NoDataMarker
	}
	return strings.Join(values, ", ")
}

// formatValue stringifies one sampled value for display.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// FormatSummary renders the run summary as human-readable text for stdout.
func FormatSummary(s Summary) string {
	var sb strings.Builder

	sb.WriteString("=== DATA MAP SUMMARY ===\n")
	sb.WriteString(fmt.Sprintf("Total records: %d\n", s.TotalRows))
	sb.WriteString(fmt.Sprintf("Databases: %d\n", s.Databases))
	sb.WriteString(fmt.Sprintf("Tables: %d\n", s.Tables))
	sb.WriteString(fmt.Sprintf("Unique columns: %d\n", s.Columns))
	sb.WriteString(fmt.Sprintf("Units processed: %d, skipped: %d, failed: %d\n",
		s.Processed, s.Skipped, s.Failed))

	if len(s.TopTypes) > 0 {
		sb.WriteString("\nMost common data types:\n")
		for _, tc := range s.TopTypes {
			sb.WriteString(fmt.Sprintf("  %-24s %d\n", tc.DataType, tc.Count))
		}
	}

	if len(s.TablesPerDatabase) > 0 {
		sb.WriteString("\nTables per database:\n")
		for _, dc := range s.TablesPerDatabase {
			sb.WriteString(fmt.Sprintf("  %-24s %d\n", dc.Database, dc.Tables))
		}
	}

	return sb.String()
}
