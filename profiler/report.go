package profiler

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// reportHeader is the field order of the delimited report file.
var reportHeader = []string{"database", "table", "column", "data_type", "sample_values", "is_nullable"}

// Summarize computes the report aggregates over an ordered row sequence.
func Summarize(rows []Row, topN int) Summary {
	databases := make(map[string]struct{})
	columns := make(map[string]struct{})
	typeCounts := make(map[string]int)
	tablesByDatabase := make(map[string]map[string]struct{})
	tables := make(map[string]struct{})

	for _, row := range rows {
		databases[row.Database] = struct{}{}
		columns[row.Column] = struct{}{}
		typeCounts[row.DataType]++
		tables[row.Table] = struct{}{}

		if tablesByDatabase[row.Database] == nil {
			tablesByDatabase[row.Database] = make(map[string]struct{})
		}
		tablesByDatabase[row.Database][row.Table] = struct{}{}
	}

	topTypes := make([]TypeCount, 0, len(typeCounts))
	for dataType, count := range typeCounts {
		topTypes = append(topTypes, TypeCount{DataType: dataType, Count: count})
	}
	sort.Slice(topTypes, func(i, j int) bool {
		if topTypes[i].Count != topTypes[j].Count {
			return topTypes[i].Count > topTypes[j].Count
		}
		return topTypes[i].DataType < topTypes[j].DataType
	})
	if len(topTypes) > topN {
		topTypes = topTypes[:topN]
	}

	perDatabase := make([]DatabaseCount, 0, len(tablesByDatabase))
	for database, dbTables := range tablesByDatabase {
		perDatabase = append(perDatabase, DatabaseCount{Database: database, Tables: len(dbTables)})
	}
	sort.Slice(perDatabase, func(i, j int) bool {
		if perDatabase[i].Tables != perDatabase[j].Tables {
			return perDatabase[i].Tables > perDatabase[j].Tables
		}
		return perDatabase[i].Database < perDatabase[j].Database
	})

	return Summary{
		TotalRows:         len(rows),
		Databases:         len(databases),
		Tables:            len(tables),
		Columns:           len(columns),
		TopTypes:          topTypes,
		TablesPerDatabase: perDatabase,
	}
}

// WriteReport serializes the report rows to a UTF-8 CSV file at path. The
// file is written to a temporary location and atomically renamed into place,
// so that path is either absent, the old content, or fully valid. An empty
// report still produces a valid file with the header row.
func WriteReport(rows []Row, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".datamap-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeRows(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace report file: %w", err)
	}
	return nil
}

func writeRows(f *os.File, rows []Row) error {
	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.Database, row.Table, row.Column, row.DataType, row.SampleValues, row.IsNullable}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadReport parses a report file written by WriteReport back into its
// ordered row sequence.
func ReadReport(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse report file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report file is empty: %s", path)
	}
	if len(records[0]) != len(reportHeader) {
		return nil, fmt.Errorf("unexpected report header: %v", records[0])
	}

	var rows []Row
	for _, rec := range records[1:] {
		rows = append(rows, Row{
			Database:     rec[0],
			Table:        rec[1],
			Column:       rec[2],
			DataType:     rec[3],
			SampleValues: rec[4],
			IsNullable:   rec[5],
		})
	}
	return rows, nil
}
