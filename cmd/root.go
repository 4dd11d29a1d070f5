package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/ghaction"
	"github.com/huangsam/riskgate/internal/iostore"
	"github.com/huangsam/riskgate/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// githubEnv maps config keys to the environment GitHub Actions provides.
var githubEnv = map[string]string{
	"github-token":        "GITHUB_TOKEN",
	"github-api-url":      "GITHUB_API_URL",
	"github-repository":   "GITHUB_REPOSITORY",
	"github-event-path":   "GITHUB_EVENT_PATH",
	"github-output":       "GITHUB_OUTPUT",
	"github-step-summary": "GITHUB_STEP_SUMMARY",
	"github-run-id":       "GITHUB_RUN_ID",
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "riskgate",
	Short:              "Run the change-risk analyzer in CI and gate pull requests on its score.",
	Long:               `Riskgate runs the change-risk analyzer over a commit range, publishes its reports, and fails the build when the risk score crosses a threshold.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("RISKGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// The GitHub context keeps its standard names; RISKGATE_* still wins
	for key, env := range githubEnv {
		if err := viper.BindEnv(key, "RISKGATE_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), env); err != nil {
			contract.LogFatal("Error binding environment", err)
		}
	}

	// Set defaults in Viper
	viper.SetDefault("analyzer-package", contract.DefaultAnalyzerPackage)
	viper.SetDefault("analyzer-version", contract.DefaultAnalyzerVersion)
	viper.SetDefault("registry-url", contract.DefaultRegistryURL)
	viper.SetDefault("profile", contract.DefaultProfile)
	viper.SetDefault("artifact-name", contract.DefaultArtifactBase)
	viper.SetDefault("fail-on-score", contract.DisabledThreshold)
	viper.SetDefault("output-limit", contract.DefaultOutputLimit)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("artifact-backend", schema.SQLiteBackend)
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".riskgate") // Name of config file (without extension)
		viper.SetConfigType("yaml")      // We'll use YAML format
		viper.AddConfigPath(".")         // Look in the current directory
		viper.AddConfigPath("$HOME")     // Look in the home directory
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// baseSetup merges defaults, file, env, and flags, then validates the shared settings.
// With withEvent the pull request event payload feeds the commit range and comment target.
func baseSetup(withEvent bool) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	var pr *schema.PullRequestContext
	if withEvent {
		var err error
		if pr, err = ghaction.LoadPullRequest(viper.GetString("github-event-path")); err != nil {
			return err
		}
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessAndValidate(cfg, input, pr); err != nil {
		return err
	}
	contract.SetDebug(cfg.Debug)
	return nil
}

// storeSetup initializes only the stores a command needs.
func storeSetup(artifacts, history bool) error {
	storeCfg := iostore.StoreConfigFrom(cfg)
	if !artifacts {
		storeCfg.ArtifactBackend = ""
	}
	if !history {
		storeCfg.HistoryBackend = ""
	}
	if err := iostore.InitStores(rootCtx, storeCfg); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer iostore.CloseStores()
	return rootCmd.Execute()
}
