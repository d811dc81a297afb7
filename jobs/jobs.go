// Package jobs extracts SQL Server Agent job definitions and stored-procedure
// source text for offline review.
package jobs

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Step is one step of one SQL Server Agent job.
type Step struct {
	JobName      string
	JobEnabled   bool
	StepID       int
	StepName     string
	Subsystem    string
	DatabaseName string
	Command      string
}

// ListSteps returns every step of every Agent job on the instance, ordered
// by job name then step id.
func ListSteps(ctx context.Context, db *sql.DB) ([]Step, error) {
	query := `
		SELECT
			j.name AS job_name,
			j.enabled AS job_enabled,
			js.step_id,
			js.step_name,
			js.subsystem,
			js.database_name,
			js.command
		FROM msdb.dbo.sysjobs j
		JOIN msdb.dbo.sysjobsteps js ON j.job_id = js.job_id
		ORDER BY j.name, js.step_id
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent jobs: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var s Step
		var enabled int
		var databaseName, command sql.NullString
		if err := rows.Scan(&s.JobName, &enabled, &s.StepID, &s.StepName, &s.Subsystem, &databaseName, &command); err != nil {
			return nil, fmt.Errorf("failed to scan job step: %w", err)
		}
		s.JobEnabled = enabled == 1
		s.DatabaseName = databaseName.String
		s.Command = command.String
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job steps: %w", err)
	}

	slog.Info("listed agent job steps", "count", len(steps))
	return steps, nil
}

// WriteStepsCSV writes all steps to a summary CSV. The file is written to a
// temporary location and renamed into place.
func WriteStepsCSV(steps []Step, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jobs-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	header := []string{"job_name", "job_enabled", "step_id", "step_name", "subsystem", "database_name", "command"}
	writeErr := w.Write(header)
	for _, s := range steps {
		if writeErr != nil {
			break
		}
		enabled := "0"
		if s.JobEnabled {
			enabled = "1"
		}
		writeErr = w.Write([]string{
			s.JobName, enabled, fmt.Sprintf("%d", s.StepID),
			s.StepName, s.Subsystem, s.DatabaseName, s.Command,
		})
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = tmp.Close()
	} else {
		tmp.Close()
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write jobs csv: %w", writeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace jobs csv: %w", err)
	}
	return nil
}

// WriteJobScripts writes one .sql file per job into dir and returns the
// number of jobs written. Step order within a job is preserved.
func WriteJobScripts(steps []Step, dir string) (int, error) {
	var order []string
	byJob := make(map[string][]Step)
	for _, s := range steps {
		if _, seen := byJob[s.JobName]; !seen {
			order = append(order, s.JobName)
		}
		byJob[s.JobName] = append(byJob[s.JobName], s)
	}

	for _, jobName := range order {
		jobSteps := byJob[jobName]
		path := filepath.Join(dir, SafeFileName(jobName)+".sql")

		if err := os.WriteFile(path, []byte(RenderJobScript(jobSteps)), 0o644); err != nil {
			return 0, fmt.Errorf("failed to write job script for %s: %w", jobName, err)
		}
		slog.Debug("wrote job script", "job", jobName, "steps", len(jobSteps), "path", path)
	}

	return len(order), nil
}

// RenderJobScript renders the steps of one job as an annotated .sql script.
func RenderJobScript(steps []Step) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("-- Job: %s\n", steps[0].JobName))
	sb.WriteString(fmt.Sprintf("-- Enabled: %t\n\n", steps[0].JobEnabled))

	for _, s := range steps {
		sb.WriteString(fmt.Sprintf("-- Step %d: %s\n", s.StepID, s.StepName))
		sb.WriteString(fmt.Sprintf("-- Subsystem: %s | Database: %s\n", s.Subsystem, s.DatabaseName))
		command := s.Command
		if command == "" {
			command = "-- (no command)"
		}
		sb.WriteString(command)
		sb.WriteString("\n\n")
		sb.WriteString(strings.Repeat("-", 80))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// SafeFileName maps a job or procedure name to a filename: letters, digits
// and ". _-" pass through, everything else becomes an underscore.
func SafeFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == ' ':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
