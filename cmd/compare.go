package cmd

import (
	"github.com/huangsam/riskgate/core"
	"github.com/huangsam/riskgate/internal/iostore"
	"github.com/spf13/cobra"
)

// compareCmd compares two published runs without running the analyzer.
var compareCmd = &cobra.Command{
	Use:   "compare <baseline-name> <current-name>",
	Short: "Compare the findings of two published runs",
	Long: `Compare the findings of two runs already published to the artifact store.

Findings are matched by their identity key and reported as new, resolved, or
unchanged, together with the score and level of both runs. When the runs cover
different commit ranges a scope warning is shown; --strict-scope turns it into
an error.

Ideal for:
- Reviewing how a branch evolved between two pushes
- Auditing a release against the previous one
- Exporting deltas to CSV or JSON for tracking

Examples:
  # Compare a pull request against the main baseline
  riskgate compare main pr-42

  # Export the delta as JSON
  riskgate compare main pr-42 --output json --output-file delta.json`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := baseSetup(false); err != nil {
			return err
		}
		return storeSetup(true, false)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, err := cmd.Flags().GetBool("strict-scope")
		if err != nil {
			return err
		}
		cfg.StrictScope = strict
		return core.ExecuteCompare(rootCtx, cfg, iostore.Manager.GetArtifactStore(), args[0], args[1])
	},
}
