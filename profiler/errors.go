package profiler

import "fmt"

// CatalogError records a failed metadata query for one unit of the walk.
// The walk skips the unit and continues with its siblings.
type CatalogError struct {
	Database string
	Table    string
	Err      error
}

func (e *CatalogError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("catalog query failed for %s.%s: %v", e.Database, e.Table, e.Err)
	}
	if e.Database != "" {
		return fmt.Sprintf("catalog query failed for %s: %v", e.Database, e.Err)
	}
	return fmt.Sprintf("catalog query failed: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// SampleError records a failed sample query for one column. The column still
// appears in the report with the no-data marker.
type SampleError struct {
	Database string
	Table    string
	Column   string
	Err      error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sampling failed for %s.%s.%s: %v", e.Database, e.Table, e.Column, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }
