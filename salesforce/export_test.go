package salesforce

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves queries and describes from fixtures.
type fakeAPI struct {
	records   map[string][]map[string]any
	describes map[string]*ObjectDescription
	errs      map[string]error
	queries   []string
}

func (f *fakeAPI) QueryAll(ctx context.Context, soql string) ([]map[string]any, error) {
	f.queries = append(f.queries, soql)
	for object, err := range f.errs {
		if strings.Contains(soql, " FROM "+object) {
			return nil, err
		}
	}
	for object, recs := range f.records {
		if strings.Contains(soql, " FROM "+object) {
			return recs, nil
		}
	}
	return nil, nil
}

func (f *fakeAPI) Describe(ctx context.Context, object string) (*ObjectDescription, error) {
	if desc, ok := f.describes[object]; ok {
		return desc, nil
	}
	return nil, errors.New("no such object: " + object)
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestLoadPlan(t *testing.T) {
	t.Run("valid_plan", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
objects:
  - object: Account
    fields: [Id, Name]
    where: IsDeleted = false
    limit: 100
  - object: Contact
`), 0o644))

		plan, err := LoadPlan(path)
		require.NoError(t, err)
		require.Len(t, plan.Objects, 2)
		assert.Equal(t, PlanEntry{Object: "Account", Fields: []string{"Id", "Name"}, Where: "IsDeleted = false", Limit: 100}, plan.Objects[0])
		assert.Empty(t, plan.Objects[1].Fields)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty_plan", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.yaml")
		require.NoError(t, os.WriteFile(path, []byte("objects: []\n"), 0o644))
		_, err := LoadPlan(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no objects")
	})

	t.Run("entry_without_object_name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.yaml")
		require.NoError(t, os.WriteFile(path, []byte("objects:\n  - fields: [Id]\n"), 0o644))
		_, err := LoadPlan(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no object name")
	})
}

func TestBuildSOQL(t *testing.T) {
	entry := PlanEntry{Object: "Account", Where: "IsDeleted = false", Limit: 50}
	soql := buildSOQL(entry, []string{"Id", "Name"})
	assert.Equal(t, "SELECT Id, Name FROM Account WHERE IsDeleted = false LIMIT 50", soql)

	bare := buildSOQL(PlanEntry{Object: "Contact"}, []string{"Id"})
	assert.Equal(t, "SELECT Id FROM Contact", bare)
}

func TestExportWritesCSV(t *testing.T) {
	api := &fakeAPI{
		records: map[string][]map[string]any{
			"Account": {
				{"Id": "001", "Name": "acme", "Employees": float64(12)},
				{"Id": "002", "Name": "globex", "Employees": nil},
			},
		},
	}
	plan := &Plan{Objects: []PlanEntry{{Object: "Account", Fields: []string{"Id", "Name", "Employees"}}}}
	dir := t.TempDir()

	result := Export(context.Background(), api, plan, ExportOptions{OutputDir: dir, Format: "csv", Now: fixedClock()})
	assert.Equal(t, ExportResult{Exported: 1, Records: 2}, result)

	f, err := os.Open(filepath.Join(dir, "Account_20240315_103000.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Id", "Name", "Employees"}, rows[0])
	assert.Equal(t, []string{"001", "acme", "12"}, rows[1])
	assert.Equal(t, []string{"002", "globex", ""}, rows[2])
}

func TestExportWritesJSON(t *testing.T) {
	api := &fakeAPI{
		records: map[string][]map[string]any{
			"Contact": {{"Id": "003", "Email": "a@b.c"}},
		},
	}
	plan := &Plan{Objects: []PlanEntry{{Object: "Contact", Fields: []string{"Id", "Email"}}}}
	dir := t.TempDir()

	result := Export(context.Background(), api, plan, ExportOptions{OutputDir: dir, Format: "json", Now: fixedClock()})
	assert.Equal(t, 1, result.Exported)

	data, err := os.ReadFile(filepath.Join(dir, "Contact_20240315_103000.json"))
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "a@b.c", records[0]["Email"])
}

func TestExportDescribesWhenFieldsOmitted(t *testing.T) {
	api := &fakeAPI{
		describes: map[string]*ObjectDescription{
			"Lead": {Name: "Lead", Fields: []Field{{Name: "Id"}, {Name: "Company"}}},
		},
		records: map[string][]map[string]any{
			"Lead": {{"Id": "00Q", "Company": "acme"}},
		},
	}
	plan := &Plan{Objects: []PlanEntry{{Object: "Lead"}}}

	result := Export(context.Background(), api, plan, ExportOptions{OutputDir: t.TempDir(), Now: fixedClock()})
	assert.Equal(t, 1, result.Exported)
	require.Len(t, api.queries, 1)
	assert.Equal(t, "SELECT Id, Company FROM Lead", api.queries[0])
}

func TestExportCountsSkippedAndFailed(t *testing.T) {
	api := &fakeAPI{
		errs: map[string]error{"Broken": errors.New("query timeout")},
		records: map[string][]map[string]any{
			"Account": {{"Id": "001"}},
		},
	}
	plan := &Plan{Objects: []PlanEntry{
		{Object: "Account", Fields: []string{"Id"}},
		{Object: "Empty", Fields: []string{"Id"}},
		{Object: "Broken", Fields: []string{"Id"}},
		{Object: "Unknown"}, // describe fails
	}}

	result := Export(context.Background(), api, plan, ExportOptions{OutputDir: t.TempDir(), Now: fixedClock()})
	assert.Equal(t, 1, result.Exported)
	assert.Equal(t, 1, result.Records)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Failed)
}

func TestExportAppendsUnplannedFields(t *testing.T) {
	api := &fakeAPI{
		records: map[string][]map[string]any{
			"Account": {{"Id": "001", "Zebra__c": "z", "Alpha__c": "a"}},
		},
	}
	plan := &Plan{Objects: []PlanEntry{{Object: "Account", Fields: []string{"Id"}}}}
	dir := t.TempDir()

	Export(context.Background(), api, plan, ExportOptions{OutputDir: dir, Now: fixedClock()})

	f, err := os.Open(filepath.Join(dir, "Account_20240315_103000.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Alpha__c", "Zebra__c"}, rows[0])
}
