package schema

import "time"

// ArtifactRecord represents a row from the riskgate_artifacts table, or an object in a bucket.
type ArtifactRecord struct {
	Name      string
	RunID     string
	Content   []byte
	SizeBytes int64
	CreatedAt time.Time
}

// ArtifactInfo is an ArtifactRecord without its content.
type ArtifactInfo struct {
	Name      string    `json:"name" yaml:"name"`
	RunID     string    `json:"run_id" yaml:"run_id"`
	SizeBytes int64     `json:"size_bytes" yaml:"size_bytes"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// RunRecord represents a row from the riskgate_runs table.
type RunRecord struct {
	RunID           string
	Repository      string
	PullNumber      int
	BaseSHA         string
	HeadSHA         string
	AnalyzerVersion string
	Score           int
	Level           RiskLevel
	FindingCount    int
	FlagCount       int
	Blocking        bool
	DeltaNew        *int
	DeltaResolved   *int
	ScopeMatch      *bool
	GateFailed      bool
	StartTime       time.Time
	EndTime         time.Time
}

// ArtifactHandle lists the artifacts written by one publish call.
type ArtifactHandle struct {
	FactsName string
	RiskName  string
	SarifName string // empty when no SARIF was written
}

// Names returns the non-empty artifact names in publish order.
func (h ArtifactHandle) Names() []string {
	var names []string
	for _, n := range []string{h.FactsName, h.RiskName, h.SarifName} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
