package schema

// Platform output keys.
const (
	OutRiskScore          = "risk-score"
	OutRiskLevel          = "risk-level"
	OutFlagCount          = "flag-count"
	OutFindingCount       = "finding-count"
	OutBlocking           = "blocking"
	OutFactsArtifact      = "facts-artifact"
	OutRiskArtifact       = "risk-artifact"
	OutSarifArtifact      = "sarif-artifact"
	OutDeltaNew           = "delta-new"
	OutDeltaResolved      = "delta-resolved"
	OutScoreBreakdown     = "score-breakdown"
	OutFactsJSON          = "facts-json"
	OutFactsJSONTruncated = "facts-json-truncated"
	OutRiskJSON           = "risk-json"
	OutRiskJSONTruncated  = "risk-json-truncated"
)

// OutputEntry is a single platform output.
type OutputEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RunOutputs is the ordered set of outputs a run emits. A key that was never
// set is absent, which is distinct from being set to an empty or zero value.
type RunOutputs struct {
	entries []OutputEntry
	index   map[string]int
}

// Set adds or replaces an output, keeping first-insertion order.
func (o *RunOutputs) Set(key, value string) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.entries[i].Value = value
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, OutputEntry{Key: key, Value: value})
}

// Get returns an output value and whether it was set.
func (o *RunOutputs) Get(key string) (string, bool) {
	if o == nil || o.index == nil {
		return "", false
	}
	i, ok := o.index[key]
	if !ok {
		return "", false
	}
	return o.entries[i].Value, true
}

// Has reports whether the key was set.
func (o *RunOutputs) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Entries returns a copy of the outputs in insertion order.
func (o *RunOutputs) Entries() []OutputEntry {
	if o == nil {
		return nil
	}
	out := make([]OutputEntry, len(o.entries))
	copy(out, o.entries)
	return out
}

// Len returns the number of outputs set.
func (o *RunOutputs) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}
