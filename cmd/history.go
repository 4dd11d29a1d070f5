package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/iostore"
	"github.com/huangsam/riskgate/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads the configuration and opens only the history store.
func historySetup(_ *cobra.Command, _ []string) error {
	if err := baseSetup(false); err != nil {
		return err
	}
	return storeSetup(false, true)
}

func requireHistoryStore() (contract.HistoryStore, error) {
	store := iostore.Manager.GetHistoryStore()
	if store == nil {
		return nil, errors.New("history store is not initialized")
	}
	return store, nil
}

// historyCmd focused on run history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded run history and exports",
	Long: `Manage the history of riskgate runs used for trend tracking and reporting.

Every run records its range, analyzer version, score, level, counts, delta
counts, and gate outcome.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  list    - List recent runs
  export  - Export runs and the artifact index to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Show the last 10 runs
  riskgate history list --limit 10

  # Export for analysis in pandas/DuckDB
  riskgate history export --output-file riskgate-data`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := requireHistoryStore()
		if err != nil {
			return err
		}
		status, err := store.GetStatus(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		iostore.PrintHistoryStatus(os.Stdout, status)
		return nil
	},
}

// historyListCmd lists recent runs.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recent runs, newest first",
	PreRunE: historySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := requireHistoryStore()
		if err != nil {
			return err
		}
		runs, err := store.ListRuns(rootCtx, viper.GetInt("limit"))
		if err != nil {
			return err
		}
		return outwriter.PrintRuns(runs, cfg)
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded run history",
	Long: `Delete all recorded runs.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  riskgate history export --output-file backup
  riskgate history clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return baseSetup(false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iostore.ClearHistory(rootCtx, iostore.StoreConfigFrom(cfg)); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("Run history cleared successfully.")
		return nil
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export the run history, and the artifact index when an artifact store is
configured, to Parquet.

Requires: --output-file parameter, used as the prefix of
{prefix}.runs.parquet and {prefix}.artifacts.parquet

Examples:
  riskgate history export --output-file riskgate-data
  duckdb -c "SELECT risk_level, count(*) FROM read_parquet('riskgate-data.runs.parquet') GROUP BY 1"`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := baseSetup(false); err != nil {
			return err
		}
		return storeSetup(true, true)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return iostore.ExportHistory(rootCtx, os.Stdout, iostore.Manager.GetHistoryStore(), iostore.Manager.GetArtifactStore(), cfg.OutputFile)
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  riskgate history migrate

  # Rollback to initial state
  riskgate history migrate --target-version 0`,
	// Migrations run on a fresh database, so the store is not opened here
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return baseSetup(false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return iostore.MigrateHistory(rootCtx, os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version"))
	},
}
