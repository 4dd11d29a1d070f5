package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/riskgate/schema"
)

// Default values for configuration.
const (
	DefaultAnalyzerPackage = "change-risk"
	DefaultAnalyzerVersion = "latest"
	DefaultRegistryURL     = "https://registry.npmjs.org"
	DefaultProfile         = "default"
	DefaultCommandTimeout  = 10 * time.Minute
	DefaultResolveTimeout  = 5 * time.Second
	DefaultOutputLimit     = 1 << 20 // 1 MiB per platform output
	DefaultCommentLimit    = 65000   // GitHub rejects comment bodies above 65536 characters
	DefaultArtifactBase    = "riskgate"
	DefaultGitHubAPIURL    = "https://api.github.com/"
	DisabledThreshold      = -1
)

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	// Analyzer invocation
	AnalyzerBin     string // Explicit analyzer executable; empty runs the package through npx
	AnalyzerPackage string
	AnalyzerVersion string
	RegistryURL     string
	WorkDir         string
	Profile         string
	Range           schema.Range
	Includes        []string
	Excludes        []string
	MaxFileBytes    int64
	MaxDiffBytes    int64
	Sarif           bool
	CommandTimeout  time.Duration
	ResolveTimeout  time.Duration

	// Artifacts
	ArtifactName     string // Base name for {base}-facts, {base}-risk-report, {base}-sarif
	BaselineArtifact string // Base name of the baseline to compare against; empty disables delta mode

	ArtifactBackend    schema.DatabaseBackend
	ArtifactDBConnect  string // Please use env var as this is plaintext
	ArtifactBucket     string
	GCSCredentialsFile string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	// Reporting
	Comment      bool
	StrictScope  bool
	FailOnScore  int // DisabledThreshold turns the gate off
	OutputLimit  int
	CommentLimit int

	// Platform context
	GitHubToken  string
	GitHubAPIURL string
	Repository   schema.RepoRef
	EventPath    string
	OutputPath   string
	SummaryPath  string
	RunID        string
	PullRequest  *schema.PullRequestContext

	// Terminal output
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Debug      bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from runCmd.Flags() ---
	AnalyzerBin      string `mapstructure:"analyzer-bin"`
	AnalyzerPackage  string `mapstructure:"analyzer-package"`
	AnalyzerVersion  string `mapstructure:"analyzer-version"`
	RegistryURL      string `mapstructure:"registry-url"`
	WorkDir          string `mapstructure:"work-dir"`
	Profile          string `mapstructure:"profile"`
	Base             string `mapstructure:"base"`
	Head             string `mapstructure:"head"`
	Include          string `mapstructure:"include"`
	Exclude          string `mapstructure:"exclude"`
	MaxFileBytes     int64  `mapstructure:"max-file-bytes"`
	MaxDiffBytes     int64  `mapstructure:"max-diff-bytes"`
	Sarif            bool   `mapstructure:"sarif"`
	CommandTimeout   string `mapstructure:"command-timeout"`
	ResolveTimeout   string `mapstructure:"resolve-timeout"`
	ArtifactName     string `mapstructure:"artifact-name"`
	BaselineArtifact string `mapstructure:"baseline-artifact"`
	Comment          bool   `mapstructure:"comment"`
	StrictScope      bool   `mapstructure:"strict-scope"`
	FailOnScore      int    `mapstructure:"fail-on-score"`
	OutputLimit      int    `mapstructure:"output-limit"`

	// --- Fields from rootCmd.PersistentFlags() ---
	ArtifactBackend    string `mapstructure:"artifact-backend"`
	ArtifactDBConnect  string `mapstructure:"artifact-db-connect"`
	ArtifactBucket     string `mapstructure:"artifact-bucket"`
	GCSCredentialsFile string `mapstructure:"gcs-credentials-file"`
	HistoryBackend     string `mapstructure:"history-backend"`
	HistoryDBConnect   string `mapstructure:"history-db-connect"`
	Output             string `mapstructure:"output"`
	OutputFile         string `mapstructure:"output-file"`
	Width              int    `mapstructure:"width"`
	Color              string `mapstructure:"color"`
	Debug              bool   `mapstructure:"debug"`

	// --- Bound to the standard GitHub Actions environment ---
	GitHubToken  string `mapstructure:"github-token"`
	GitHubAPIURL string `mapstructure:"github-api-url"`
	Repository   string `mapstructure:"github-repository"`
	EventPath    string `mapstructure:"github-event-path"`
	OutputPath   string `mapstructure:"github-output"`
	SummaryPath  string `mapstructure:"github-step-summary"`
	RunID        string `mapstructure:"github-run-id"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Includes != nil {
		clone.Includes = append([]string(nil), c.Includes...)
	}
	if c.Excludes != nil {
		clone.Excludes = append([]string(nil), c.Excludes...)
	}
	if c.PullRequest != nil {
		pr := *c.PullRequest
		clone.PullRequest = &pr
	}
	return &clone
}

// CommentTarget returns where the PR comment should go, or false if this run has no pull request.
func (c *Config) CommentTarget() (schema.CommentTarget, bool) {
	if c.PullRequest == nil || c.PullRequest.Number <= 0 {
		return schema.CommentTarget{}, false
	}
	return schema.CommentTarget{
		Repo:   c.Repository,
		Number: c.PullRequest.Number,
		Fork:   c.PullRequest.Fork,
	}, true
}

// GateEnabled reports whether the score threshold gate is active.
func (c *Config) GateEnabled() bool {
	return c.FailOnScore >= 0
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. The pull request context, when known,
// supplies the default commit range.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, pr *schema.PullRequestContext) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processPlatformContext(cfg, input, pr); err != nil {
		return err
	}
	return nil
}

// ProcessRunInputs validates the analyzer inputs needed by the run command.
func ProcessRunInputs(cfg *Config, input *ConfigRawInput) error {
	if err := processAnalyzerInputs(cfg, input); err != nil {
		return err
	}
	if err := processRange(cfg, input); err != nil {
		return err
	}
	return processReporting(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend, schema.GCSBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the terminal output fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Debug = input.Debug

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, yaml", input.Output)
	}
	if cfg.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", cfg.Width)
	}
	return nil
}

// validateBackendConfigs validates artifact and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Artifact Backend Validation ---
	cfg.ArtifactBackend = schema.DatabaseBackend(strings.ToLower(defaultString(input.ArtifactBackend, string(schema.SQLiteBackend))))
	if _, ok := schema.ValidArtifactBackends[cfg.ArtifactBackend]; !ok {
		return fmt.Errorf("invalid artifact backend '%s'. must be sqlite, mysql, postgresql, gcs, none", input.ArtifactBackend)
	}
	cfg.ArtifactDBConnect = input.ArtifactDBConnect
	if err := ValidateDatabaseConnectionString(cfg.ArtifactBackend, cfg.ArtifactDBConnect); err != nil {
		return fmt.Errorf("artifact-db-connect: %w", err)
	}
	cfg.ArtifactBucket = strings.TrimSpace(input.ArtifactBucket)
	cfg.GCSCredentialsFile = input.GCSCredentialsFile
	if cfg.ArtifactBackend == schema.GCSBackend && cfg.ArtifactBucket == "" {
		return fmt.Errorf("artifact-bucket is required when using %s backend", schema.GCSBackend)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(defaultString(input.HistoryBackend, string(schema.SQLiteBackend))))
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// Artifacts and history must not share a SQLite file, their tables are migrated differently.
	if cfg.ArtifactBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		artifactPath := defaultString(cfg.ArtifactDBConnect, GetArtifactDBFilePath())
		historyPath := defaultString(cfg.HistoryDBConnect, GetHistoryDBFilePath())
		if artifactPath == historyPath {
			return fmt.Errorf("artifact and history storage must use different SQLite database files. Both resolve to %q", artifactPath)
		}
	}
	return nil
}

// processAnalyzerInputs validates how the analyzer is invoked.
func processAnalyzerInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.AnalyzerBin = strings.TrimSpace(input.AnalyzerBin)
	cfg.AnalyzerPackage = defaultString(strings.TrimSpace(input.AnalyzerPackage), DefaultAnalyzerPackage)
	cfg.AnalyzerVersion = defaultString(strings.TrimSpace(input.AnalyzerVersion), DefaultAnalyzerVersion)
	cfg.RegistryURL = strings.TrimRight(defaultString(input.RegistryURL, DefaultRegistryURL), "/")
	cfg.WorkDir = input.WorkDir
	cfg.Profile = defaultString(strings.TrimSpace(input.Profile), DefaultProfile)
	cfg.Sarif = input.Sarif

	cfg.Includes = SplitList(input.Include)
	cfg.Excludes = SplitList(input.Exclude)
	for _, g := range append(append([]string{}, cfg.Includes...), cfg.Excludes...) {
		if err := ValidateGlob(g); err != nil {
			return err
		}
	}

	if input.MaxFileBytes < 0 {
		return fmt.Errorf("max-file-bytes cannot be negative (received %d)", input.MaxFileBytes)
	}
	if input.MaxDiffBytes < 0 {
		return fmt.Errorf("max-diff-bytes cannot be negative (received %d)", input.MaxDiffBytes)
	}
	cfg.MaxFileBytes = input.MaxFileBytes
	cfg.MaxDiffBytes = input.MaxDiffBytes

	var err error
	if cfg.CommandTimeout, err = parseDuration("command-timeout", input.CommandTimeout, DefaultCommandTimeout); err != nil {
		return err
	}
	if cfg.ResolveTimeout, err = parseDuration("resolve-timeout", input.ResolveTimeout, DefaultResolveTimeout); err != nil {
		return err
	}
	return nil
}

// processRange resolves the commit range. Explicit flags win over the pull request event.
func processRange(cfg *Config, input *ConfigRawInput) error {
	cfg.Range.Base = strings.TrimSpace(input.Base)
	cfg.Range.Head = strings.TrimSpace(input.Head)
	if pr := cfg.PullRequest; pr != nil {
		if cfg.Range.Base == "" {
			cfg.Range.Base = pr.BaseSHA
		}
		if cfg.Range.Head == "" {
			cfg.Range.Head = pr.HeadSHA
		}
	}
	if cfg.Range.Base == "" {
		return fmt.Errorf("must specify --base when not running on a pull request event")
	}
	if cfg.Range.Head == "" {
		cfg.Range.Head = "HEAD"
	}
	return nil
}

// processReporting validates artifact naming, the threshold gate, and output limits.
func processReporting(cfg *Config, input *ConfigRawInput) error {
	cfg.ArtifactName = defaultString(strings.TrimSpace(input.ArtifactName), DefaultArtifactBase)
	cfg.BaselineArtifact = strings.TrimSpace(input.BaselineArtifact)
	if strings.ContainsAny(cfg.ArtifactName, "/\\") {
		return fmt.Errorf("artifact-name cannot contain path separators (received %q)", cfg.ArtifactName)
	}
	cfg.Comment = input.Comment
	cfg.StrictScope = input.StrictScope

	if input.FailOnScore < DisabledThreshold || input.FailOnScore > 100 {
		return fmt.Errorf("fail-on-score must be between 0 and 100, or %d to disable (received %d)", DisabledThreshold, input.FailOnScore)
	}
	cfg.FailOnScore = input.FailOnScore

	cfg.OutputLimit = input.OutputLimit
	if cfg.OutputLimit == 0 {
		cfg.OutputLimit = DefaultOutputLimit
	}
	if cfg.OutputLimit < 0 {
		return fmt.Errorf("output-limit cannot be negative (received %d)", input.OutputLimit)
	}
	cfg.CommentLimit = DefaultCommentLimit
	return nil
}

// processPlatformContext copies the GitHub Actions context into the config.
func processPlatformContext(cfg *Config, input *ConfigRawInput, pr *schema.PullRequestContext) error {
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	cfg.GitHubAPIURL = defaultString(input.GitHubAPIURL, DefaultGitHubAPIURL)
	cfg.EventPath = input.EventPath
	cfg.OutputPath = input.OutputPath
	cfg.SummaryPath = input.SummaryPath
	cfg.RunID = input.RunID
	cfg.PullRequest = pr

	if input.Repository != "" {
		repo, err := schema.ParseRepoRef(input.Repository)
		if err != nil {
			return err
		}
		cfg.Repository = repo
	}
	return nil
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive (received %s)", name, value)
	}
	return d, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
