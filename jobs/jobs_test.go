package jobs

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepFixture() []Step {
	return []Step{
		{JobName: "Nightly ETL", JobEnabled: true, StepID: 1, StepName: "Stage", Subsystem: "TSQL", DatabaseName: "Staging", Command: "EXEC dbo.LoadStage"},
		{JobName: "Nightly ETL", JobEnabled: true, StepID: 2, StepName: "Merge", Subsystem: "TSQL", DatabaseName: "Warehouse", Command: "EXEC dbo.MergeFacts"},
		{JobName: "Cleanup: temp/files", JobEnabled: false, StepID: 1, StepName: "Purge", Subsystem: "CmdExec", DatabaseName: "", Command: ""},
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nightly ETL", "Nightly ETL"},
		{"Cleanup: temp/files", "Cleanup_ temp_files"},
		{"db.backup_job-v2", "db.backup_job-v2"},
		{"weird\\name*?", "weird_name__"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFileName(tt.in), "input %q", tt.in)
	}
}

func TestRenderJobScript(t *testing.T) {
	steps := stepFixture()[:2]
	script := RenderJobScript(steps)

	assert.Contains(t, script, "-- Job: Nightly ETL\n-- Enabled: true\n")
	assert.Contains(t, script, "-- Step 1: Stage\n-- Subsystem: TSQL | Database: Staging\n")
	assert.Contains(t, script, "EXEC dbo.LoadStage")
	assert.Contains(t, script, "-- Step 2: Merge")

	disabled := RenderJobScript(stepFixture()[2:])
	assert.Contains(t, disabled, "-- Enabled: false")
	assert.Contains(t, disabled, "-- (no command)")
}

func TestWriteStepsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_agent_jobs.csv")
	require.NoError(t, WriteStepsCSV(stepFixture(), path))

	rows, err := readCSV(t, path)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"job_name", "job_enabled", "step_id", "step_name", "subsystem", "database_name", "command"}, rows[0])
	assert.Equal(t, []string{"Nightly ETL", "1", "1", "Stage", "TSQL", "Staging", "EXEC dbo.LoadStage"}, rows[1])
	assert.Equal(t, "0", rows[3][1], "disabled job must serialize as 0")
}

func TestWriteStepsCSVMissingDirectory(t *testing.T) {
	err := WriteStepsCSV(stepFixture(), filepath.Join(t.TempDir(), "missing", "jobs.csv"))
	assert.Error(t, err)
}

func TestWriteJobScripts(t *testing.T) {
	dir := t.TempDir()

	count, err := WriteJobScripts(stepFixture(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	etl, err := os.ReadFile(filepath.Join(dir, "Nightly ETL.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(etl), "-- Step 1: Stage")
	assert.Contains(t, string(etl), "-- Step 2: Merge")

	cleanup, err := os.ReadFile(filepath.Join(dir, "Cleanup_ temp_files.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(cleanup), "-- (no command)")
}

func TestWriteProcedureScripts(t *testing.T) {
	dir := t.TempDir()
	procs := []Procedure{
		{Database: "Sales", Schema: "dbo", Name: "GetOrders", Definition: "CREATE PROCEDURE dbo.GetOrders AS SELECT 1"},
		{Database: "Sales", Schema: "audit", Name: "LogAccess", Definition: ""},
	}

	count, err := WriteProcedureScripts(procs, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	get, err := os.ReadFile(filepath.Join(dir, "dbo.GetOrders.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(get), "CREATE PROCEDURE dbo.GetOrders")

	logp, err := os.ReadFile(filepath.Join(dir, "audit.LogAccess.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(logp), "-- (definition unavailable)")
}

func readCSV(t *testing.T, path string) ([][]string, error) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}
