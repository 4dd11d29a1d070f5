package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/iostore"
	"github.com/huangsam/riskgate/internal/outwriter"
	"github.com/spf13/cobra"
)

// artifactSetup loads the configuration and opens only the artifact store.
func artifactSetup(_ *cobra.Command, _ []string) error {
	if err := baseSetup(false); err != nil {
		return err
	}
	return storeSetup(true, false)
}

func requireArtifactStore() (contract.BlobStore, error) {
	store := iostore.Manager.GetArtifactStore()
	if store == nil {
		return nil, errors.New("artifact store is not initialized")
	}
	return store, nil
}

// artifactCmd focused on artifact store management.
//
// Note: Artifact subcommands skip the analyzer and platform validation
// that the run command needs.
var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Manage published run artifacts (baselines for later runs)",
	Long: `Manage the artifacts that runs publish and later runs read as baselines.

Every run publishes {name}-facts and {name}-risk-report, plus {name}-sarif when
SARIF is enabled.

Supported backends: SQLite (default), MySQL, PostgreSQL, GCS, or None (disabled)

Subcommands:
  status - Show artifact store statistics and connection info
  list   - List stored artifacts, newest first
  clear  - Remove all stored artifacts

Examples:
  # Check artifact store status
  riskgate artifact status

  # List artifacts in a bucket
  riskgate artifact list --artifact-backend gcs --artifact-bucket my-ci-artifacts`,
}

// artifactStatusCmd shows artifact store status.
var artifactStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display artifact store statistics and connection details",
	PreRunE: artifactSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := requireArtifactStore()
		if err != nil {
			return err
		}
		status, err := store.GetStatus(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to get artifact status: %w", err)
		}
		iostore.PrintArtifactStatus(os.Stdout, status)
		return nil
	},
}

// artifactListCmd lists stored artifacts.
var artifactListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored artifacts, newest first",
	PreRunE: artifactSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := requireArtifactStore()
		if err != nil {
			return err
		}
		infos, err := store.List(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.PrintArtifacts(infos, cfg)
	},
}

// artifactClearCmd clears the artifact store.
var artifactClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored artifacts",
	Long: `Delete every artifact from the configured backend.

WARNING: Later runs lose their baselines until the default branch publishes again.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the artifacts table
For GCS: Deletes every object under the riskgate/ prefix

Examples:
  # Clear SQLite artifacts (default)
  riskgate artifact clear

  # Clear MySQL artifacts (set connection string via env variable)
  RISKGATE_ARTIFACT_BACKEND=mysql RISKGATE_ARTIFACT_DB_CONNECT="..." riskgate artifact clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return baseSetup(false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iostore.ClearArtifacts(rootCtx, iostore.StoreConfigFrom(cfg)); err != nil {
			return fmt.Errorf("failed to clear artifacts: %w", err)
		}
		fmt.Println("Artifacts cleared successfully.")
		return nil
	},
}
