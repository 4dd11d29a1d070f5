package schema

// FindingStatus is the delta status of a single finding.
type FindingStatus string

// All finding statuses in a comparison.
const (
	NewStatus       FindingStatus = "new"
	ResolvedStatus  FindingStatus = "resolved"
	UnchangedStatus FindingStatus = "unchanged"
)

// ComparisonDetail holds one finding's identity and where it sits in the delta.
type ComparisonDetail struct {
	FindingID  string        `json:"finding_id" yaml:"finding_id"`
	Kind       FindingKind   `json:"kind" yaml:"kind"`
	Category   string        `json:"category" yaml:"category"`
	Confidence float64       `json:"confidence" yaml:"confidence"`
	Status     FindingStatus `json:"status" yaml:"status"`
}

// ComparisonSummary has high-level deltas and counts.
type ComparisonSummary struct {
	BaselineScore  int       `json:"baseline_score" yaml:"baseline_score"`
	CurrentScore   int       `json:"current_score" yaml:"current_score"`
	NetScoreDelta  int       `json:"net_score_delta" yaml:"net_score_delta"` // current minus baseline; positive means riskier
	BaselineLevel  RiskLevel `json:"baseline_level" yaml:"baseline_level"`
	CurrentLevel   RiskLevel `json:"current_level" yaml:"current_level"`
	TotalNew       int       `json:"total_new" yaml:"total_new"`
	TotalResolved  int       `json:"total_resolved" yaml:"total_resolved"`
	TotalUnchanged int       `json:"total_unchanged" yaml:"total_unchanged"`
	ScopeMatch     bool      `json:"scope_match" yaml:"scope_match"`
	ScopeWarning   string    `json:"scope_warning,omitempty" yaml:"scope_warning,omitempty"`
}

// ComparisonResult holds the comparison details and summary.
type ComparisonResult struct {
	BaselineName string             `json:"baseline_name" yaml:"baseline_name"`
	CurrentName  string             `json:"current_name" yaml:"current_name"`
	Details      []ComparisonDetail `json:"details" yaml:"details"`
	Summary      ComparisonSummary  `json:"summary" yaml:"summary"`
}
