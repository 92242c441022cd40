package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vocabpractice/internal/config"
	"vocabpractice/internal/database"
	"vocabpractice/internal/logger"
	"vocabpractice/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "backup",
		Short: "Export and import VocabPractice data as JSON",
		Long: `Export and import VocabPractice data as JSON.

The database is selected with DATABASE_TYPE (sqlite, postgres or mysql),
DB_PATH for SQLite and DATABASE_URL for PostgreSQL or MySQL.`,
		SilenceUsage: true,
	}
	root.AddCommand(newExportCmd(), newImportCmd())
	return root
}

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write every teacher, word set and submission to a JSON file",
		Example: "  backup export\n  backup export --output backups/monday.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackupService(cmd.Context(), func(backups *service.BackupService, log *logger.Logger) error {
				return runExport(cmd.Context(), backups, log, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		input      string
		clearFirst bool
		yes        bool
	)
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Load a JSON backup into the database",
		Example: "  backup import --input backup.json\n  backup import --input backup.json --clear",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clearFirst && !yes && !confirm(cmd, "WARNING: this deletes all existing data. Type 'yes' to confirm: ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
				return nil
			}
			return withBackupService(cmd.Context(), func(backups *service.BackupService, log *logger.Logger) error {
				return runImport(cmd.Context(), backups, log, input, clearFirst)
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "backup file to import")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete existing data before importing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the --clear confirmation prompt")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

// withBackupService opens the configured database, brings its schema up to
// date and hands a BackupService to fn.
func withBackupService(ctx context.Context, fn func(*service.BackupService, *logger.Logger) error) error {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if _, err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return fn(service.NewBackupService(db, log), log)
}

func runExport(ctx context.Context, backups *service.BackupService, log *logger.Logger, output string) error {
	if output == "" {
		output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	data, err := backups.Export(ctx, f)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	log.Info("export complete",
		"file", output,
		"teachers", len(data.Teachers),
		"word_sets", len(data.WordSets),
		"words", len(data.Words),
		"submissions", len(data.Submissions),
		"answers", len(data.Answers),
	)
	return nil
}

func runImport(ctx context.Context, backups *service.BackupService, log *logger.Logger, input string, clearFirst bool) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer f.Close()

	stats, err := backups.Import(ctx, f, clearFirst)
	if err != nil {
		return err
	}
	log.Info("import complete",
		"file", input,
		"cleared", clearFirst,
		"teachers", stats.Teachers,
		"word_sets", stats.WordSets,
		"words", stats.Words,
		"submissions", stats.Submissions,
		"answers", stats.Answers,
	)
	return nil
}
