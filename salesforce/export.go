package salesforce

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlanEntry selects one object to export. An empty field list means all
// queryable fields from the object describe.
type PlanEntry struct {
	Object string   `yaml:"object"`
	Fields []string `yaml:"fields"`
	Where  string   `yaml:"where"`
	Limit  int      `yaml:"limit"`
}

// Plan is the list of objects to export.
type Plan struct {
	Objects []PlanEntry `yaml:"objects"`
}

// LoadPlan reads an export plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	if len(plan.Objects) == 0 {
		return nil, fmt.Errorf("plan file %s lists no objects", path)
	}
	for i, entry := range plan.Objects {
		if entry.Object == "" {
			return nil, fmt.Errorf("plan entry %d has no object name", i+1)
		}
	}
	return &plan, nil
}

// API is the slice of the Salesforce client the exporter needs.
type API interface {
	QueryAll(ctx context.Context, soql string) ([]map[string]any, error)
	Describe(ctx context.Context, object string) (*ObjectDescription, error)
}

// ExportOptions controls where and how exported objects are written.
type ExportOptions struct {
	OutputDir string
	Format    string // "csv" or "json"

	// Now stamps output filenames. Defaults to time.Now.
	Now func() time.Time
}

// ExportResult summarizes one export run.
type ExportResult struct {
	Exported int // objects written
	Records  int // total records across all objects
	Skipped  int // objects with no records
	Failed   int // objects that errored
}

// Export runs every entry of the plan against the org and writes one file
// per object. A failing entry is logged and counted; the remaining entries
// still run.
func Export(ctx context.Context, api API, plan *Plan, opts ExportOptions) ExportResult {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "csv"
	}

	var result ExportResult
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		slog.Error("failed to create output directory", "dir", opts.OutputDir, "error", err)
		result.Failed = len(plan.Objects)
		return result
	}

	for _, entry := range plan.Objects {
		records, fields, err := fetchObject(ctx, api, entry)
		if err != nil {
			slog.Error("failed to export object", "object", entry.Object, "error", err)
			result.Failed++
			continue
		}
		if len(records) == 0 {
			slog.Info("no records, skipping object", "object", entry.Object)
			result.Skipped++
			continue
		}

		name := fmt.Sprintf("%s_%s.%s", entry.Object, now().Format("20060102_150405"), format)
		path := filepath.Join(opts.OutputDir, name)
		switch format {
		case "json":
			err = writeJSON(path, records)
		default:
			err = writeCSV(path, fields, records)
		}
		if err != nil {
			slog.Error("failed to write export file", "object", entry.Object, "path", path, "error", err)
			result.Failed++
			continue
		}

		slog.Info("exported object", "object", entry.Object, "records", len(records), "path", path)
		result.Exported++
		result.Records += len(records)
	}
	return result
}

// fetchObject queries one plan entry and returns its records plus the
// field order for CSV output.
func fetchObject(ctx context.Context, api API, entry PlanEntry) ([]map[string]any, []string, error) {
	fields := entry.Fields
	if len(fields) == 0 {
		desc, err := api.Describe(ctx, entry.Object)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range desc.Fields {
			fields = append(fields, f.Name)
		}
		if len(fields) == 0 {
			return nil, nil, fmt.Errorf("object %s has no fields", entry.Object)
		}
	}

	records, err := api.QueryAll(ctx, buildSOQL(entry, fields))
	if err != nil {
		return nil, nil, err
	}
	return records, fields, nil
}

// buildSOQL renders the query for one plan entry.
func buildSOQL(entry PlanEntry, fields []string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(entry.Object)
	if entry.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(entry.Where)
	}
	if entry.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(entry.Limit))
	}
	return b.String()
}

// writeCSV writes records as CSV with fields as the column order. Fields
// present in records but not in the plan are appended alphabetically so
// no data is dropped.
func writeCSV(path string, fields []string, records []map[string]any) error {
	header := append([]string(nil), fields...)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	var extra []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	header = append(header, extra...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, col := range header {
			row[i] = cellValue(rec[col])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return f.Close()
}

// writeJSON writes records as an indented JSON array.
func writeJSON(path string, records []map[string]any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// cellValue renders one record value for CSV output.
func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
