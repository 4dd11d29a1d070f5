package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/riskgate/core"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/ghaction"
	"github.com/huangsam/riskgate/internal/ghclient"
	"github.com/huangsam/riskgate/internal/iostore"
	"github.com/huangsam/riskgate/internal/registry"
	"github.com/spf13/cobra"
)

// runSetup validates the full run configuration and opens both stores.
// A store that cannot be opened is logged and skipped: the run goes on
// without a baseline, artifacts, or history.
func runSetup(_ *cobra.Command, _ []string) error {
	if err := baseSetup(true); err != nil {
		return err
	}
	if err := contract.ProcessRunInputs(cfg, input); err != nil {
		return err
	}
	if err := iostore.InitStoresDegraded(rootCtx, iostore.StoreConfigFrom(cfg)); err != nil {
		contract.LogError("Persistence unavailable, continuing without it", err)
	}
	return nil
}

// runCmd is the CI entrypoint.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze a commit range, publish reports, and apply the score gate",
	Long: `Run the change-risk analyzer over a commit range and publish everything it produced.

A run:
- Resolves the analyzer version against the npm registry
- Fetches the baseline artifacts when --baseline-artifact is set
- Runs the analyzer for facts, risk report, narrative, and optionally SARIF
- Publishes {name}-facts, {name}-risk-report and {name}-sarif artifacts
- Computes new, resolved and unchanged findings against the baseline
- Writes the job summary and, with --comment, one pull request comment
- Emits step outputs and records the run in history
- Fails when the score is at or above --fail-on-score

Inside GitHub Actions the range, repository, and output files come from the
standard GITHUB_* environment.

Examples:
  # Gate a pull request at a score of 70
  riskgate run --comment --fail-on-score 70 --baseline-artifact main

  # Analyze a local range with a pinned analyzer
  riskgate run --base origin/main --head HEAD --analyzer-version 1.4.2

  # Publish the default branch as the next baseline
  riskgate run --base HEAD~1 --artifact-name main`,
	Args:    cobra.NoArgs,
	PreRunE: runSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		deps := core.RunDeps{
			Analyzer:  contract.NewLocalAnalyzerClient(cfg.AnalyzerBin, cfg.AnalyzerPackage, cfg.AnalyzerVersion, cfg.WorkDir),
			Resolver:  registry.NewNPMResolver(cfg.RegistryURL, cfg.AnalyzerPackage, cfg.ResolveTimeout),
			Artifacts: iostore.Manager.GetArtifactStore(),
			History:   iostore.Manager.GetHistoryStore(),
			Summary:   ghaction.NewSummaryFile(cfg.SummaryPath, os.Stdout),
			Outputs:   ghaction.NewOutputFile(cfg.OutputPath, os.Stdout),
		}
		if cfg.Comment {
			if client, err := ghclient.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL); err != nil {
				contract.LogWarn("PR comments disabled", err)
			} else {
				deps.Comments = client
			}
		}

		report, err := core.ExecuteRun(rootCtx, cfg, deps)
		if err != nil {
			if contract.IsFatalAnalysisError(err) {
				return fmt.Errorf("analysis failed: %w", err)
			}
			if errors.Is(err, core.ErrThresholdExceeded) {
				contract.LogError("Risk gate failed", err)
			}
			return err
		}
		contract.LogInfo("Run complete", "run", report.RunID, "score", report.Result.Snapshot.Risk.Score)
		return nil
	},
}
