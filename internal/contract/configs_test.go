package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRawInput(t *testing.T) *ConfigRawInput {
	t.Helper()
	dir := t.TempDir()
	return &ConfigRawInput{
		Base:              "abc123",
		Head:              "def456",
		Output:            "text",
		Color:             "no",
		FailOnScore:       DisabledThreshold,
		ArtifactBackend:   "sqlite",
		ArtifactDBConnect: filepath.Join(dir, "artifacts.db"),
		HistoryBackend:    "sqlite",
		HistoryDBConnect:  filepath.Join(dir, "history.db"),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "negative width", mutate: func(in *ConfigRawInput) { in.Width = -1 }, expectError: true},
		{name: "invalid artifact backend", mutate: func(in *ConfigRawInput) { in.ArtifactBackend = "redis" }, expectError: true},
		{name: "gcs history backend rejected", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "gcs" }, expectError: true},
		{name: "gcs without bucket", mutate: func(in *ConfigRawInput) { in.ArtifactBackend = "gcs" }, expectError: true},
		{
			name: "gcs with bucket",
			mutate: func(in *ConfigRawInput) {
				in.ArtifactBackend = "gcs"
				in.ArtifactBucket = "ci-artifacts"
			},
		},
		{
			name: "mysql missing tcp",
			mutate: func(in *ConfigRawInput) {
				in.ArtifactBackend = "mysql"
				in.ArtifactDBConnect = "user:pass@localhost/db"
			},
			expectError: true,
		},
		{
			name: "postgres valid",
			mutate: func(in *ConfigRawInput) {
				in.HistoryBackend = "postgresql"
				in.HistoryDBConnect = "host=localhost dbname=riskgate"
			},
		},
		{
			name: "shared sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.HistoryDBConnect = in.ArtifactDBConnect
			},
			expectError: true,
		},
		{name: "bad repository", mutate: func(in *ConfigRawInput) { in.Repository = "no-slash" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput(t)
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input, nil)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessRunInputs(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid", mutate: func(*ConfigRawInput) {}},
		{name: "bad glob", mutate: func(in *ConfigRawInput) { in.Include = "src/[a" }, expectError: true},
		{name: "double star glob", mutate: func(in *ConfigRawInput) { in.Exclude = "**/vendor/**, *.lock" }},
		{name: "negative file ceiling", mutate: func(in *ConfigRawInput) { in.MaxFileBytes = -1 }, expectError: true},
		{name: "negative diff ceiling", mutate: func(in *ConfigRawInput) { in.MaxDiffBytes = -5 }, expectError: true},
		{name: "bad timeout", mutate: func(in *ConfigRawInput) { in.CommandTimeout = "soon" }, expectError: true},
		{name: "zero timeout", mutate: func(in *ConfigRawInput) { in.CommandTimeout = "0s" }, expectError: true},
		{name: "missing base", mutate: func(in *ConfigRawInput) { in.Base = "" }, expectError: true},
		{name: "threshold above 100", mutate: func(in *ConfigRawInput) { in.FailOnScore = 101 }, expectError: true},
		{name: "threshold below disabled", mutate: func(in *ConfigRawInput) { in.FailOnScore = -2 }, expectError: true},
		{name: "artifact name with slash", mutate: func(in *ConfigRawInput) { in.ArtifactName = "a/b" }, expectError: true},
		{name: "negative output limit", mutate: func(in *ConfigRawInput) { in.OutputLimit = -1 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput(t)
			tt.mutate(input)
			cfg := &Config{}
			require.NoError(t, ProcessAndValidate(cfg, input, nil))
			err := ProcessRunInputs(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessRunInputsDefaults(t *testing.T) {
	input := validRawInput(t)
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, nil))
	require.NoError(t, ProcessRunInputs(cfg, input))

	assert.Equal(t, DefaultAnalyzerPackage, cfg.AnalyzerPackage)
	assert.Equal(t, DefaultAnalyzerVersion, cfg.AnalyzerVersion)
	assert.Equal(t, DefaultRegistryURL, cfg.RegistryURL)
	assert.Equal(t, DefaultProfile, cfg.Profile)
	assert.Equal(t, DefaultCommandTimeout, cfg.CommandTimeout)
	assert.Equal(t, DefaultResolveTimeout, cfg.ResolveTimeout)
	assert.Equal(t, DefaultOutputLimit, cfg.OutputLimit)
	assert.Equal(t, DefaultArtifactBase, cfg.ArtifactName)
	assert.Equal(t, schema.SQLiteBackend, cfg.ArtifactBackend)
	assert.False(t, cfg.GateEnabled())
}

func TestProcessRangeFromPullRequest(t *testing.T) {
	input := validRawInput(t)
	input.Base = ""
	input.Head = ""
	input.Repository = "octo/widgets"
	input.CommandTimeout = "90s"
	pr := &schema.PullRequestContext{Number: 12, BaseSHA: "base-sha", HeadSHA: "head-sha", Fork: true}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, pr))
	require.NoError(t, ProcessRunInputs(cfg, input))

	assert.Equal(t, schema.Range{Base: "base-sha", Head: "head-sha"}, cfg.Range)
	assert.Equal(t, 90*time.Second, cfg.CommandTimeout)

	target, ok := cfg.CommentTarget()
	require.True(t, ok)
	assert.Equal(t, schema.CommentTarget{Repo: schema.RepoRef{Owner: "octo", Name: "widgets"}, Number: 12, Fork: true}, target)

	// Explicit flags win over the event.
	input.Base = "override"
	cfg = &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, pr))
	require.NoError(t, ProcessRunInputs(cfg, input))
	assert.Equal(t, "override", cfg.Range.Base)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Includes:    []string{"src/**"},
		Excludes:    []string{"*.lock"},
		PullRequest: &schema.PullRequestContext{Number: 3},
	}
	clone := cfg.Clone()
	clone.Includes[0] = "changed"
	clone.PullRequest.Number = 4

	assert.Equal(t, "src/**", cfg.Includes[0])
	assert.Equal(t, 3, cfg.PullRequest.Number)
}

func TestGateEnabled(t *testing.T) {
	assert.False(t, (&Config{FailOnScore: DisabledThreshold}).GateEnabled())
	assert.True(t, (&Config{FailOnScore: 0}).GateEnabled())
	assert.True(t, (&Config{FailOnScore: 70}).GateEnabled())
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "root:pw@tcp(localhost:3306)/riskgate"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, ""))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost"))
}
