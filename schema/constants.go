package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of terminal output.
	OutputMode string

	// OutputShape represents the output shape requested from the analyzer.
	OutputShape string

	// RiskLevel represents the enumerated risk level reported by the analyzer.
	RiskLevel string

	// FindingKind tags the payload carried by a Finding.
	FindingKind string

	// DatabaseBackend represents the backend used for artifact and history storage.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	YAMLOut OutputMode = "yaml"
)

// All analyzer output shapes.
const (
	FactsShape     OutputShape = "facts-json"
	RiskShape      OutputShape = "risk-json"
	NarrativeShape OutputShape = "text"
	SarifShape     OutputShape = "sarif"
)

// All risk levels reported by the analyzer.
const (
	CriticalLevel RiskLevel = "critical"
	HighLevel     RiskLevel = "high"
	MediumLevel   RiskLevel = "medium"
	LowLevel      RiskLevel = "low"
	UnknownLevel  RiskLevel = "unknown"
)

// Finding kinds with a typed payload.
const (
	FilePatternKind      FindingKind = "file_pattern"
	DependencyChangeKind FindingKind = "dependency_change"
	SizeThresholdKind    FindingKind = "size_threshold"
)

// All storage backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	GCSBackend        DatabaseBackend = "gcs"
	NoneBackend       DatabaseBackend = "none"
)

// Artifact name suffixes appended to a caller-supplied base name.
const (
	FactsArtifactSuffix = "-facts"
	RiskArtifactSuffix  = "-risk-report"
	SarifArtifactSuffix = "-sarif"
)

// ReportMarker identifies the PR comment owned by riskgate. It must never change,
// otherwise comments posted by earlier versions are orphaned.
const ReportMarker = "<!-- riskgate:report -->"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
	YAMLOut: {},
}

// ValidArtifactBackends lists all valid artifact backends.
var ValidArtifactBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	GCSBackend:        {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid run history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// FactsArtifactName returns the facts artifact name for a base name.
func FactsArtifactName(base string) string { return base + FactsArtifactSuffix }

// RiskArtifactName returns the risk-report artifact name for a base name.
func RiskArtifactName(base string) string { return base + RiskArtifactSuffix }

// SarifArtifactName returns the SARIF artifact name for a base name.
func SarifArtifactName(base string) string { return base + SarifArtifactSuffix }
