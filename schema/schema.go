// Package schema holds the documents exchanged with the analyzer and the
// records produced by a riskgate run.
package schema

// Range is the commit range a document describes.
type Range struct {
	Base string `json:"base"`
	Head string `json:"head"`
}

// IsZero reports whether neither end of the range is recorded.
func (r *Range) IsZero() bool {
	return r == nil || (r.Base == "" && r.Head == "")
}

// String formats the range as base..head.
func (r *Range) String() string {
	if r == nil {
		return "<unrecorded>"
	}
	return r.Base + ".." + r.Head
}

// FileEntry is a single changed file in the facts document.
type FileEntry struct {
	Path      string `json:"path"`
	Status    string `json:"status,omitempty"`
	Category  string `json:"category,omitempty"`
	Additions int    `json:"additions,omitempty"`
	Deletions int    `json:"deletions,omitempty"`
}

// FactsSummary is the risk summary block of the facts document.
type FactsSummary struct {
	TotalFiles    int       `json:"totalFiles"`
	TotalFindings int       `json:"totalFindings"`
	Level         RiskLevel `json:"level,omitempty"`
}

// Action is a follow-up the analyzer recommends. Blocking actions must be
// resolved before merge.
type Action struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Blocking bool   `json:"blocking"`
}

// FactsDocument is the analyzer's facts-json output.
type FactsDocument struct {
	SchemaVersion string         `json:"schemaVersion"`
	Range         *Range         `json:"range,omitempty"`
	Profile       string         `json:"profile,omitempty"`
	Files         []FileEntry    `json:"files"`
	Categories    map[string]int `json:"categories,omitempty"`
	Findings      []Finding      `json:"findings"`
	Summary       *FactsSummary  `json:"summary,omitempty"`
	Actions       []Action       `json:"actions,omitempty"`
}

// HasBlockingActions reports whether any action is marked blocking.
func (d *FactsDocument) HasBlockingActions() bool {
	if d == nil {
		return false
	}
	for _, a := range d.Actions {
		if a.Blocking {
			return true
		}
	}
	return false
}

// FindingIDs returns the identity keys in document order.
func (d *FactsDocument) FindingIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Findings))
	for _, f := range d.Findings {
		ids = append(ids, f.FindingID)
	}
	return ids
}

// CategoryScore is the per-category score of a risk report.
type CategoryScore struct {
	Score     int `json:"score"`
	FlagCount int `json:"flagCount"`
}

// Flag aggregates one or more findings under a named rule.
type Flag struct {
	FlagID     string   `json:"flagId"`
	RuleID     string   `json:"ruleId"`
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Score      int      `json:"score"`
	FindingIDs []string `json:"findingIds,omitempty"`
}

// RiskReport is the analyzer's risk-json output.
type RiskReport struct {
	SchemaVersion string                   `json:"schemaVersion"`
	Range         *Range                   `json:"range,omitempty"`
	Score         int                      `json:"score"`
	Level         RiskLevel                `json:"level"`
	Categories    map[string]CategoryScore `json:"categories,omitempty"`
	Flags         []Flag                   `json:"flags"`
}

// Snapshot pairs the facts and risk-report documents of one analyzer run over one range.
// The raw bytes are kept so artifacts and outputs carry exactly what the analyzer emitted.
type Snapshot struct {
	Facts     *FactsDocument
	Risk      *RiskReport
	FactsJSON []byte
	RiskJSON  []byte
}

// Range returns the range recorded by the facts document, falling back to the risk report.
func (s *Snapshot) Range() *Range {
	if s == nil {
		return nil
	}
	if s.Facts != nil && !s.Facts.Range.IsZero() {
		return s.Facts.Range
	}
	if s.Risk != nil && !s.Risk.Range.IsZero() {
		return s.Risk.Range
	}
	return nil
}

// DeltaResult is the reconciliation of a baseline snapshot against the current one.
type DeltaResult struct {
	NewFindingIDs       []string `json:"newFindingIds"`
	ResolvedFindingIDs  []string `json:"resolvedFindingIds"`
	UnchangedFindingIDs []string `json:"unchangedFindingIds"`
	ScopeMatch          bool     `json:"scopeMatch"`
	ScopeWarning        string   `json:"scopeWarning,omitempty"`
}

// TruncatedOutput is a value bounded to a byte ceiling.
type TruncatedOutput struct {
	Value     string `json:"value"`
	Truncated bool   `json:"truncated"`
}
