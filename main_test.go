package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kwatts/datamap/mocks"
	"github.com/kwatts/datamap/profiler"
)

func TestProcessProfileUnit(t *testing.T) {
	ctx := context.Background()

	t.Run("connect_failure_is_fatal", func(t *testing.T) {
		sessions := &MockSessionManager{
			OpenFunc: func(ctx context.Context) error {
				return SimulateError("connection")
			},
		}
		prof := &MockSchemaProfiler{}
		writer := &MockReportWriter{}

		report, err := processProfile(ctx, sessions, prof, writer, "out.csv")
		require.Error(t, err)
		assert.Nil(t, report)
		assert.Contains(t, err.Error(), "failed to connect")
		assert.False(t, writer.WriteCalled, "no report file should be written when the connection fails")
	})

	t.Run("report_rows_are_passed_to_the_writer", func(t *testing.T) {
		rows := sampleRows()
		sessions := &MockSessionManager{}
		prof := &MockSchemaProfiler{
			ProfileFunc: func(ctx context.Context, db *sql.DB) *profiler.Report {
				return &profiler.Report{
					Rows:    rows,
					Summary: profiler.Summarize(rows, 5),
				}
			},
		}
		writer := &MockReportWriter{}

		outPath := filepath.Join(t.TempDir(), "data_map.csv")
		report, err := processProfile(ctx, sessions, prof, writer, outPath)
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.True(t, sessions.OpenCalled)
		assert.True(t, sessions.CloseCalled)
		assert.Equal(t, rows, writer.GotRows)
		assert.Equal(t, outPath, writer.GotPath)
		assert.Equal(t, 3, report.Summary.TotalRows)
	})

	t.Run("write_failure_is_fatal", func(t *testing.T) {
		sessions := &MockSessionManager{}
		prof := &MockSchemaProfiler{}
		writer := &MockReportWriter{
			WriteFunc: func(rows []profiler.Row, path string) error {
				return errors.New("disk full")
			},
		}

		report, err := processProfile(ctx, sessions, prof, writer, "out.csv")
		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, sessions.CloseCalled, "session must be closed even when the write fails")
	})

	t.Run("close_failure_is_logged_not_returned", func(t *testing.T) {
		sessions := &MockSessionManager{
			CloseFunc: func() error { return errors.New("already closed") },
		}
		prof := &MockSchemaProfiler{}
		writer := &MockReportWriter{}

		_, err := processProfile(ctx, sessions, prof, writer, "out.csv")
		assert.NoError(t, err)
	})
}

func TestProcessProfileWithGeneratedMocks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := mocks.NewMockSessionManager(ctrl)
	prof := mocks.NewMockSchemaProfiler(ctrl)
	writer := mocks.NewMockReportWriter(ctrl)

	rows := sampleRows()
	report := &profiler.Report{Rows: rows, Summary: profiler.Summarize(rows, 5)}

	sessions.EXPECT().Open(gomock.Any()).Return(nil)
	sessions.EXPECT().DB().Return(nil)
	sessions.EXPECT().Close().Return(nil)
	prof.EXPECT().Profile(gomock.Any(), gomock.Any()).Return(report)
	writer.EXPECT().Write(rows, "map.csv").Return(nil)

	got, err := processProfile(context.Background(), sessions, prof, writer, "map.csv")
	require.NoError(t, err)
	assert.Same(t, report, got)
}

func TestRunProfileUnknownDriver(t *testing.T) {
	resetCommand()
	rootCmd.SetArgs([]string{"profile", "--driver", "oracle", "localhost"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
	assert.Contains(t, err.Error(), "available:")
}

func TestCommandRegistration(t *testing.T) {
	resetCommand()

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"profile", "jobs", "procs", "sfexport", "ls", "mcp"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	// Re-registration must not duplicate flags or subcommands.
	before := len(rootCmd.Commands())
	registerCommands()
	assert.Equal(t, before, len(rootCmd.Commands()))
}

func TestRunLs(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "a.txt"), []byte("a"), 0o644))

	t.Run("writes_output_file", func(t *testing.T) {
		resetCommand()
		outFile := filepath.Join(t.TempDir(), "listing.txt")
		rootCmd.SetArgs([]string{"ls", "-o", outFile, tempDir})
		err := rootCmd.Execute()
		require.NoError(t, err)

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "a.txt")
		assert.Contains(t, string(data), "b.txt")
	})

	t.Run("rejects_missing_directory", func(t *testing.T) {
		resetCommand()
		rootCmd.SetArgs([]string{"ls", filepath.Join(tempDir, "nope")})
		err := rootCmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a valid directory")
	})
}

func resetCommand() {
	profileDriver = "sqlserver"
	profilePort = 0
	profileDatabase = ""
	profileUsername = ""
	profilePassword = ""
	profileOutput = "data_map.csv"
	profileSamples = profiler.DefaultSampleSize
	profileTrustCert = false
	lsRecursive = true
	lsOutput = ""
	profileCmd.ResetFlags()
	jobsCmd.ResetFlags()
	procsCmd.ResetFlags()
	sfexportCmd.ResetFlags()
	lsCmd.ResetFlags()
	registerCommands()
}

func isDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}
