// Command migrate manages the procurement database schema.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/migration"
	"github.com/erp/procurement/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsDir string
	logLevel      string
	log           = zap.NewNop()
	cfg           *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the procurement database schema",
	Long: `Applies and rolls back the versioned SQL migrations of the procurement service.

Migrations are embedded in the binary. Pass --dir to run them from a
directory on disk instead. Connection settings come from config.toml
and PROCUREMENT_DATABASE_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout", Service: "procurement-migrate"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync(log)
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error { return m.Up() })
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("confirm")
		if !confirmed {
			return fmt.Errorf("down drops every purchase order table; rerun with --confirm")
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Down() })
	},
}

var stepsCmd = &cobra.Command{
	Use:     "steps <n>",
	Short:   "Apply n migrations, or roll back when n is negative",
	Example: "  migrate steps 2\n  migrate steps -- -1",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(version)) })
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			status, err := m.Status()
			if err != nil {
				return err
			}
			if !status.Applied {
				log.Info("No migrations applied")
				return nil
			}
			log.Info("Current schema version",
				zap.Uint("version", status.Version),
				zap.Bool("dirty", status.Dirty),
			)
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running SQL (clears the dirty flag)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Force(version) })
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty up/down migration pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := migrationsDir
		if dir == "" {
			dir = cfg.Database.MigrationsPath
		}
		mg, err := migration.CreateMigration(dir, args[0])
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", mg.Version),
			zap.String("up_file", mg.UpPath),
			zap.String("down_file", mg.DownPath),
		)
		return nil
	},
}

func withMigrator(run func(*migration.Migrator) error) error {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var m *migration.Migrator
	if migrationsDir != "" {
		m, err = migration.NewFromDir(db, migrationsDir, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return run(m)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "Read migrations from this directory instead of the embedded set")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	downCmd.Flags().Bool("confirm", false, "Confirm rolling back every migration")

	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, gotoCmd, versionCmd, forceCmd, createCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}
