package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwatts/datamap/jobs"
	"github.com/kwatts/datamap/profiler"
	"github.com/kwatts/datamap/salesforce"
)

var rootCmd = &cobra.Command{
	Use:   "datamap",
	Short: "Extraction utilities for SQL Server, PostgreSQL, MySQL, SQLite and Salesforce",
	Long: `datamap is a set of small extraction utilities:

  profile   Walk a database catalog and write a data map (database, table,
            column, type, sample values) to a delimited report file
  jobs      Extract SQL Server Agent job definitions to CSV and .sql files
  procs     Extract stored-procedure source text to .sql files
  sfexport  Export Salesforce object records to CSV or JSON per a YAML plan
  ls        List file paths in a directory
  mcp       Run as Model Context Protocol server`,
	SilenceUsage: true,
}

var (
	profileDriver    string
	profilePort      int
	profileDatabase  string
	profileUsername  string
	profilePassword  string
	profileOutput    string
	profileSamples   int
	profileTrustCert bool
	jobsUsername     string
	jobsPassword     string
	jobsPort         int
	jobsOutputDir    string
	procsUsername    string
	procsPassword    string
	procsPort        int
	procsOutputDir   string
	sfPlanPath       string
	sfOutputDir      string
	sfFormat         string
	lsRecursive      bool
	lsOutput         string
)

var profileCmd = &cobra.Command{
	Use:   "profile [server]",
	Short: "Profile a database instance into a delimited data map",
	Long: `profile connects to a database instance, enumerates its databases, base
tables and columns, fetches a bounded set of distinct sample values per
column, and writes one report row per column to a CSV file.

Omitting --username selects trusted/integrated authentication.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs [server]",
	Short: "Extract SQL Server Agent job definitions",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobs,
}

var procsCmd = &cobra.Command{
	Use:   "procs [server] [database]",
	Short: "Extract stored-procedure source text from one database",
	Args:  cobra.ExactArgs(2),
	RunE:  runProcs,
}

var sfexportCmd = &cobra.Command{
	Use:   "sfexport",
	Short: "Export Salesforce object records per a YAML extraction plan",
	Long: `sfexport authenticates to Salesforce using SF_* environment variables
(SF_USERNAME, SF_PASSWORD, SF_SECURITY_TOKEN, SF_CONSUMER_KEY,
SF_CONSUMER_SECRET, SF_INSTANCE_URL, SF_SESSION_ID, SF_DOMAIN), runs each
object query from the plan file, and writes one timestamped output file per
object.`,
	RunE: runSfexport,
}

var lsCmd = &cobra.Command{
	Use:   "ls [directory]",
	Short: "List file paths in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runLs,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as Model Context Protocol server",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("starting mcp server")
		return StartMCPServer()
	},
}

func main() {
	if err := run(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	registerCommands()
	return rootCmd.Execute()
}

func registerCommands() {
	if profileCmd.Flags().Lookup("driver") == nil {
		profileCmd.Flags().StringVar(&profileDriver, "driver", "sqlserver", "database driver: sqlserver, postgres, mysql or sqlite3")
		profileCmd.Flags().IntVar(&profilePort, "port", 0, "server port (driver default when 0)")
		profileCmd.Flags().StringVar(&profileDatabase, "database", "", "initial database to connect to")
		profileCmd.Flags().StringVarP(&profileUsername, "username", "u", "", "username (empty selects trusted authentication)")
		profileCmd.Flags().StringVarP(&profilePassword, "password", "p", "", "password")
		profileCmd.Flags().StringVarP(&profileOutput, "output", "o", "data_map.csv", "output CSV file")
		profileCmd.Flags().IntVar(&profileSamples, "samples", profiler.DefaultSampleSize, "distinct sample values per column")
		profileCmd.Flags().BoolVar(&profileTrustCert, "trust-server-certificate", false, "skip server certificate validation (sqlserver)")
	}
	if jobsCmd.Flags().Lookup("username") == nil {
		jobsCmd.Flags().StringVarP(&jobsUsername, "username", "u", "", "username (empty selects trusted authentication)")
		jobsCmd.Flags().StringVarP(&jobsPassword, "password", "p", "", "password")
		jobsCmd.Flags().IntVar(&jobsPort, "port", 0, "server port (driver default when 0)")
		jobsCmd.Flags().StringVarP(&jobsOutputDir, "output-dir", "o", filepath.Join(os.TempDir(), "sql_agent_jobs"), "output directory")
	}
	if procsCmd.Flags().Lookup("username") == nil {
		procsCmd.Flags().StringVarP(&procsUsername, "username", "u", "", "username (empty selects trusted authentication)")
		procsCmd.Flags().StringVarP(&procsPassword, "password", "p", "", "password")
		procsCmd.Flags().IntVar(&procsPort, "port", 0, "server port (driver default when 0)")
		procsCmd.Flags().StringVarP(&procsOutputDir, "output-dir", "o", "procedures", "output directory")
	}
	if sfexportCmd.Flags().Lookup("plan") == nil {
		sfexportCmd.Flags().StringVar(&sfPlanPath, "plan", "", "YAML extraction plan file (required)")
		sfexportCmd.Flags().StringVarP(&sfOutputDir, "output-dir", "o", "output", "output directory")
		sfexportCmd.Flags().StringVar(&sfFormat, "format", "csv", "output format: csv or json")
		sfexportCmd.MarkFlagRequired("plan")
	}
	if lsCmd.Flags().Lookup("recursive") == nil {
		lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", true, "include files in subdirectories")
		lsCmd.Flags().StringVarP(&lsOutput, "output", "o", "", "optional output file to write results to")
	}

	for _, cmd := range []*cobra.Command{profileCmd, jobsCmd, procsCmd, sfexportCmd, lsCmd, mcpCmd} {
		if !hasCommand(rootCmd, cmd) {
			rootCmd.AddCommand(cmd)
		}
	}
}

func hasCommand(parent, child *cobra.Command) bool {
	for _, c := range parent.Commands() {
		if c == child {
			return true
		}
	}
	return false
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg := ConnectionConfig{
		Driver:                 profileDriver,
		Server:                 args[0],
		Port:                   profilePort,
		Database:               profileDatabase,
		Username:               profileUsername,
		Password:               profilePassword,
		TrustServerCertificate: profileTrustCert,
	}

	registry := profiler.DefaultRegistry()
	dialect, exists := registry.Get(cfg.Driver)
	if !exists {
		return fmt.Errorf("unknown driver: %s (available: %s)",
			cfg.Driver, strings.Join(registry.Names(), ", "))
	}

	sessions := NewSQLSessionManager(cfg)
	prof := NewDialectProfiler(dialect, profiler.Options{SampleSize: profileSamples})
	writer := NewCSVReportWriter()

	report, err := processProfile(cmd.Context(), sessions, prof, writer, profileOutput)
	if err != nil {
		return err
	}

	fmt.Println(profiler.FormatSummary(report.Summary))
	fmt.Printf("Data map saved to: %s\n", profileOutput)
	return nil
}

// processProfile drives the profiling pipeline: open a session, walk the
// catalog, write the report. Connection and final-write failures are fatal;
// everything else is recovered per unit inside the walk, so no output file
// is produced when the connection fails.
func processProfile(ctx context.Context, sessions SessionManager, prof SchemaProfiler, writer ReportWriter, outputPath string) (*profiler.Report, error) {
	slog.Info("opening database session")
	if err := sessions.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			slog.Error("failed to close session", "error", err)
		}
	}()

	slog.Info("profiling catalog")
	report := prof.Profile(ctx, sessions.DB())

	slog.Info("writing report", "path", outputPath, "rows", len(report.Rows))
	if err := writer.Write(report.Rows, outputPath); err != nil {
		return nil, err
	}

	return report, nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg := ConnectionConfig{
		Driver:   "sqlserver",
		Server:   args[0],
		Port:     jobsPort,
		Database: "msdb",
		Username: jobsUsername,
		Password: jobsPassword,
	}

	db, err := Connect(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	steps, err := jobs.ListSteps(cmd.Context(), db)
	if err != nil {
		return fmt.Errorf("failed to list agent job steps: %w", err)
	}
	if len(steps) == 0 {
		fmt.Println("No agent jobs found.")
		return nil
	}

	if err := os.MkdirAll(jobsOutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath := filepath.Join(jobsOutputDir, "all_agent_jobs.csv")
	if err := jobs.WriteStepsCSV(steps, csvPath); err != nil {
		return err
	}

	count, err := jobs.WriteJobScripts(steps, jobsOutputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Done. %d jobs extracted to %s\n", count, jobsOutputDir)
	fmt.Printf("CSV summary: %s\n", csvPath)
	return nil
}

func runProcs(cmd *cobra.Command, args []string) error {
	cfg := ConnectionConfig{
		Driver:   "sqlserver",
		Server:   args[0],
		Port:     procsPort,
		Username: procsUsername,
		Password: procsPassword,
	}

	db, err := Connect(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	procs, err := jobs.ListProcedures(cmd.Context(), db, args[1])
	if err != nil {
		return fmt.Errorf("failed to list procedures: %w", err)
	}
	if len(procs) == 0 {
		fmt.Println("No stored procedures found.")
		return nil
	}

	if err := os.MkdirAll(procsOutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	count, err := jobs.WriteProcedureScripts(procs, procsOutputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Done. %d procedures extracted to %s\n", count, procsOutputDir)
	return nil
}

func runSfexport(cmd *cobra.Command, args []string) error {
	creds, err := salesforce.CredentialsFromEnv()
	if err != nil {
		return fmt.Errorf("failed to read credentials from environment: %w", err)
	}

	plan, err := salesforce.LoadPlan(sfPlanPath)
	if err != nil {
		return fmt.Errorf("failed to load extraction plan: %w", err)
	}

	client := salesforce.NewClient(creds)
	if err := client.Login(cmd.Context()); err != nil {
		return fmt.Errorf("failed to authenticate to salesforce: %w", err)
	}

	result := salesforce.Export(cmd.Context(), client, plan, salesforce.ExportOptions{
		OutputDir: sfOutputDir,
		Format:    sfFormat,
	})

	fmt.Printf("Exported %d objects (%d records), %d skipped, %d failed.\n",
		result.Exported, result.Records, result.Skipped, result.Failed)
	return nil
}

func runLs(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("not a valid directory: %s", dir)
	}

	paths, err := ListFiles(dir, lsRecursive)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	fmt.Printf("Found %d file(s) in %s:\n\n", len(paths), dir)
	for _, path := range paths {
		fmt.Println(path)
	}

	if lsOutput != "" {
		if err := os.WriteFile(lsOutput, []byte(strings.Join(paths, "\n")), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("\nResults written to %s\n", lsOutput)
	}
	return nil
}
