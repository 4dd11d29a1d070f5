package core

import (
	"fmt"
	"sort"

	"github.com/huangsam/riskgate/schema"
)

// CompareSnapshots partitions the union of both snapshots' finding ids into new,
// resolved and unchanged sets. The output is sorted and does not depend on the
// order of findings in either snapshot.
func CompareSnapshots(baseline, current *schema.Snapshot) schema.DeltaResult {
	baseKeys := findingKeys(baseline)
	currKeys := findingKeys(current)

	result := schema.DeltaResult{
		NewFindingIDs:       []string{},
		ResolvedFindingIDs:  []string{},
		UnchangedFindingIDs: []string{},
	}
	for id := range currKeys {
		if _, ok := baseKeys[id]; ok {
			result.UnchangedFindingIDs = append(result.UnchangedFindingIDs, id)
		} else {
			result.NewFindingIDs = append(result.NewFindingIDs, id)
		}
	}
	for id := range baseKeys {
		if _, ok := currKeys[id]; !ok {
			result.ResolvedFindingIDs = append(result.ResolvedFindingIDs, id)
		}
	}
	sort.Strings(result.NewFindingIDs)
	sort.Strings(result.ResolvedFindingIDs)
	sort.Strings(result.UnchangedFindingIDs)

	result.ScopeMatch, result.ScopeWarning = CheckScope(baseline.Range(), current.Range())
	return result
}

// CheckScope reports whether a baseline range is comparable to the current one.
// Both ranges must be recorded and share the same base commit.
func CheckScope(baseline, current *schema.Range) (bool, string) {
	switch {
	case baseline.IsZero() && current.IsZero():
		return false, "neither the baseline nor the current snapshot records its commit range; the delta may compare unrelated changes"
	case baseline.IsZero():
		return false, fmt.Sprintf("baseline snapshot does not record its commit range (current %s); the delta may compare unrelated changes", current)
	case current.IsZero():
		return false, fmt.Sprintf("current snapshot does not record its commit range (baseline %s); the delta may compare unrelated changes", baseline)
	case !sameCommit(baseline.Base, current.Base):
		return false, fmt.Sprintf("baseline range %s and current range %s start from different base commits; the delta may compare unrelated changes", baseline, current)
	}
	return true, ""
}

// findingKeys returns the identity set of a snapshot's findings.
func findingKeys(s *schema.Snapshot) map[string]struct{} {
	keys := make(map[string]struct{})
	if s == nil || s.Facts == nil {
		return keys
	}
	for _, f := range s.Facts.Findings {
		keys[f.FindingID] = struct{}{}
	}
	return keys
}

// BuildComparison expands a delta into per-finding details for terminal output.
func BuildComparison(baselineName, currentName string, baseline, current *schema.Snapshot) schema.ComparisonResult {
	delta := CompareSnapshots(baseline, current)

	details := make([]schema.ComparisonDetail, 0, len(delta.NewFindingIDs)+len(delta.ResolvedFindingIDs)+len(delta.UnchangedFindingIDs))
	appendDetails := func(ids []string, source *schema.Snapshot, status schema.FindingStatus) {
		byID := findingsByID(source)
		for _, id := range ids {
			f := byID[id]
			details = append(details, schema.ComparisonDetail{
				FindingID:  id,
				Kind:       f.Kind,
				Category:   f.Category,
				Confidence: f.Confidence,
				Status:     status,
			})
		}
	}
	appendDetails(delta.NewFindingIDs, current, schema.NewStatus)
	appendDetails(delta.ResolvedFindingIDs, baseline, schema.ResolvedStatus)
	appendDetails(delta.UnchangedFindingIDs, current, schema.UnchangedStatus)

	summary := schema.ComparisonSummary{
		TotalNew:       len(delta.NewFindingIDs),
		TotalResolved:  len(delta.ResolvedFindingIDs),
		TotalUnchanged: len(delta.UnchangedFindingIDs),
		ScopeMatch:     delta.ScopeMatch,
		ScopeWarning:   delta.ScopeWarning,
	}
	if baseline != nil && baseline.Risk != nil {
		summary.BaselineScore = baseline.Risk.Score
		summary.BaselineLevel = baseline.Risk.Level
	}
	if current != nil && current.Risk != nil {
		summary.CurrentScore = current.Risk.Score
		summary.CurrentLevel = current.Risk.Level
	}
	summary.NetScoreDelta = summary.CurrentScore - summary.BaselineScore

	return schema.ComparisonResult{
		BaselineName: baselineName,
		CurrentName:  currentName,
		Details:      details,
		Summary:      summary,
	}
}

func findingsByID(s *schema.Snapshot) map[string]schema.Finding {
	out := make(map[string]schema.Finding)
	if s == nil || s.Facts == nil {
		return out
	}
	for _, f := range s.Facts.Findings {
		out[f.FindingID] = f
	}
	return out
}
