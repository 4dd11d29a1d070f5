// Package cmd defines the command-line interface for riskgate.
package cmd

import (
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(artifactCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the artifact subcommands to the parent artifact command
	artifactCmd.AddCommand(artifactStatusCmd)
	artifactCmd.AddCommand(artifactListCmd)
	artifactCmd.AddCommand(artifactClearCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("artifact-backend", string(schema.SQLiteBackend), "Artifact backend: sqlite or mysql or postgresql or gcs or none")
	rootCmd.PersistentFlags().String("artifact-db-connect", "", "Database connection string for mysql/postgresql artifacts (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("artifact-bucket", "", "GCS bucket for the gcs artifact backend")
	rootCmd.PersistentFlags().String("gcs-credentials-file", "", "Service account key for the gcs backend (default: Application Default Credentials)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from artifact-db-connect)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Terminal output format: text or csv or json or yaml")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write terminal output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runCmd to Viper
	runCmd.Flags().String("analyzer-bin", "", "Analyzer executable (default: run the analyzer package through npx)")
	runCmd.Flags().String("analyzer-package", contract.DefaultAnalyzerPackage, "npm package of the analyzer")
	runCmd.Flags().String("analyzer-version", contract.DefaultAnalyzerVersion, "Analyzer version, dist-tag, or range")
	runCmd.Flags().String("registry-url", contract.DefaultRegistryURL, "npm registry used to resolve the analyzer version")
	runCmd.Flags().String("work-dir", "", "Repository checkout to analyze (default: current directory)")
	runCmd.Flags().String("profile", contract.DefaultProfile, "Analyzer rule profile")
	runCmd.Flags().String("base", "", "Base commit of the range (default: pull request base)")
	runCmd.Flags().String("head", "", "Head commit of the range (default: pull request head, else HEAD)")
	runCmd.Flags().String("include", "", "Comma-separated globs of paths to include")
	runCmd.Flags().String("exclude", "", "Comma-separated globs of paths to exclude")
	runCmd.Flags().Int64("max-file-bytes", 0, "Skip files larger than this (0 = analyzer default)")
	runCmd.Flags().Int64("max-diff-bytes", 0, "Skip diffs larger than this (0 = analyzer default)")
	runCmd.Flags().Bool("sarif", false, "Also produce and publish a SARIF report for code scanning")
	runCmd.Flags().String("command-timeout", contract.DefaultCommandTimeout.String(), "Wall-clock limit for each analyzer invocation")
	runCmd.Flags().String("resolve-timeout", contract.DefaultResolveTimeout.String(), "Limit for the registry version lookup")
	runCmd.Flags().String("artifact-name", contract.DefaultArtifactBase, "Base name of the published artifacts")
	runCmd.Flags().String("baseline-artifact", "", "Base name of a previous run to compute the delta against")
	runCmd.Flags().Bool("comment", false, "Create or update the report comment on the pull request")
	runCmd.Flags().Bool("strict-scope", false, "Fail when the baseline covers a different commit range")
	runCmd.Flags().Int("fail-on-score", contract.DisabledThreshold, "Fail when the risk score is at or above this value (-1 disables the gate)")
	runCmd.Flags().Int("output-limit", contract.DefaultOutputLimit, "Maximum bytes for each JSON step output")
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		contract.LogFatal("Error binding run flags", err)
	}

	// compare reads its own strict-scope flag so it does not shadow the run binding
	compareCmd.Flags().Bool("strict-scope", false, "Fail when the two runs cover different commit ranges")

	// Bind all flags of historyListCmd to Viper
	historyListCmd.Flags().Int("limit", 20, "Number of runs to display (0 = all)")
	if err := viper.BindPFlags(historyListCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history list flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}

	versionCmd.Flags().Bool("analyzer", false, "Also resolve the configured analyzer version")
}
