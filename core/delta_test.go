package core

import (
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareSnapshotsScenario(t *testing.T) {
	rng := &schema.Range{Base: baseSHA, Head: headSHA}
	baseline := snapshotOf(rng, "A", "B", "C")
	current := snapshotOf(rng, "B", "C", "D")

	delta := CompareSnapshots(baseline, current)
	assert.Equal(t, []string{"D"}, delta.NewFindingIDs)
	assert.Equal(t, []string{"A"}, delta.ResolvedFindingIDs)
	assert.Equal(t, []string{"B", "C"}, delta.UnchangedFindingIDs)
	assert.True(t, delta.ScopeMatch)
	assert.Empty(t, delta.ScopeWarning)
}

func TestCompareSnapshotsSelf(t *testing.T) {
	rng := &schema.Range{Base: baseSHA, Head: headSHA}
	s := snapshotOf(rng, "X", "Y", "Z")

	delta := CompareSnapshots(s, s)
	assert.Empty(t, delta.NewFindingIDs)
	assert.Empty(t, delta.ResolvedFindingIDs)
	assert.Equal(t, []string{"X", "Y", "Z"}, delta.UnchangedFindingIDs)
}

func TestCompareSnapshotsOrderIndependent(t *testing.T) {
	rng := &schema.Range{Base: baseSHA, Head: headSHA}
	a := CompareSnapshots(snapshotOf(rng, "C", "A", "B"), snapshotOf(rng, "D", "C", "B"))
	b := CompareSnapshots(snapshotOf(rng, "B", "C", "A"), snapshotOf(rng, "B", "D", "C"))
	assert.Equal(t, a, b)
}

func TestCompareSnapshotsEmpty(t *testing.T) {
	rng := &schema.Range{Base: baseSHA, Head: headSHA}
	delta := CompareSnapshots(snapshotOf(rng), snapshotOf(rng))
	assert.NotNil(t, delta.NewFindingIDs)
	assert.NotNil(t, delta.ResolvedFindingIDs)
	assert.NotNil(t, delta.UnchangedFindingIDs)
}

func TestCompareSnapshotsScopeMismatchStillComputes(t *testing.T) {
	baseline := snapshotOf(&schema.Range{Base: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Head: headSHA}, "A")
	current := snapshotOf(&schema.Range{Base: baseSHA, Head: headSHA}, "B")

	delta := CompareSnapshots(baseline, current)
	assert.False(t, delta.ScopeMatch)
	assert.Contains(t, delta.ScopeWarning, "different base commits")
	assert.Equal(t, []string{"B"}, delta.NewFindingIDs)
	assert.Equal(t, []string{"A"}, delta.ResolvedFindingIDs)
}

func TestCheckScope(t *testing.T) {
	full := &schema.Range{Base: baseSHA, Head: headSHA}
	tests := []struct {
		name     string
		baseline *schema.Range
		current  *schema.Range
		match    bool
		warning  string
	}{
		{name: "same range", baseline: full, current: full, match: true},
		{name: "head moved", baseline: full, current: &schema.Range{Base: baseSHA, Head: "3333333"}, match: true},
		{name: "abbreviated base", baseline: &schema.Range{Base: baseSHA[:8], Head: "x"}, current: full, match: true},
		{name: "different base", baseline: &schema.Range{Base: "9999999", Head: headSHA}, current: full, warning: "different base commits"},
		{name: "baseline unrecorded", baseline: nil, current: full, warning: "baseline snapshot does not record"},
		{name: "current unrecorded", baseline: full, current: &schema.Range{}, warning: "current snapshot does not record"},
		{name: "both unrecorded", warning: "neither the baseline nor the current"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, warning := CheckScope(tt.baseline, tt.current)
			assert.Equal(t, tt.match, match)
			if tt.warning == "" {
				assert.Empty(t, warning)
			} else {
				assert.Contains(t, warning, tt.warning)
			}
		})
	}
}

func TestBuildComparison(t *testing.T) {
	rng := &schema.Range{Base: baseSHA, Head: headSHA}
	baseline, err := ParseSnapshot(factsJSON(rng, "A", "B"), riskJSON(rng, 30, schema.MediumLevel))
	require.NoError(t, err)
	current, err := ParseSnapshot(factsJSON(rng, "B", "C"), riskJSON(rng, 55, schema.HighLevel))
	require.NoError(t, err)

	result := BuildComparison("main", "pr-1", baseline, current)
	assert.Equal(t, "main", result.BaselineName)
	assert.Equal(t, "pr-1", result.CurrentName)
	require.Len(t, result.Details, 3)
	assert.Equal(t, schema.ComparisonDetail{FindingID: "C", Kind: schema.FilePatternKind, Category: "infra", Confidence: 1, Status: schema.NewStatus}, result.Details[0])
	assert.Equal(t, "A", result.Details[1].FindingID)
	assert.Equal(t, schema.ResolvedStatus, result.Details[1].Status)
	assert.Equal(t, schema.UnchangedStatus, result.Details[2].Status)

	s := result.Summary
	assert.Equal(t, 30, s.BaselineScore)
	assert.Equal(t, 55, s.CurrentScore)
	assert.Equal(t, 25, s.NetScoreDelta)
	assert.Equal(t, schema.HighLevel, s.CurrentLevel)
	assert.Equal(t, 1, s.TotalNew)
	assert.Equal(t, 1, s.TotalResolved)
	assert.Equal(t, 1, s.TotalUnchanged)
	assert.True(t, s.ScopeMatch)
}

// FuzzCompareSnapshots checks that the delta partitions the union of both key sets.
func FuzzCompareSnapshots(f *testing.F) {
	f.Add("A,B,C", "B,C,D")
	f.Add("", "X")
	f.Add("same", "same")
	f.Add("a,a,b", ",")

	f.Fuzz(func(t *testing.T, baseList, currList string) {
		rng := &schema.Range{Base: baseSHA, Head: headSHA}
		baseIDs := uniqueIDs(baseList)
		currIDs := uniqueIDs(currList)
		delta := CompareSnapshots(rawSnapshot(rng, baseIDs), rawSnapshot(rng, currIDs))

		seen := map[string]int{}
		for _, set := range [][]string{delta.NewFindingIDs, delta.ResolvedFindingIDs, delta.UnchangedFindingIDs} {
			if !sort.StringsAreSorted(set) {
				t.Fatalf("set not sorted: %v", set)
			}
			for _, id := range set {
				seen[id]++
			}
		}
		union := map[string]struct{}{}
		for _, id := range append(slices.Clone(baseIDs), currIDs...) {
			union[id] = struct{}{}
		}
		if len(seen) != len(union) {
			t.Fatalf("partition covers %d ids, union has %d", len(seen), len(union))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("id %q appears in %d sets", id, n)
			}
			if _, ok := union[id]; !ok {
				t.Fatalf("id %q not in either snapshot", id)
			}
		}
	})
}

// uniqueIDs splits a comma list into distinct non-empty ids.
func uniqueIDs(list string) []string {
	var ids []string
	seen := map[string]struct{}{}
	for _, id := range strings.Split(list, ",") {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// rawSnapshot builds a snapshot without a JSON round trip, so arbitrary ids survive.
func rawSnapshot(rng *schema.Range, ids []string) *schema.Snapshot {
	facts := &schema.FactsDocument{Range: rng}
	for _, id := range ids {
		facts.Findings = append(facts.Findings, schema.Finding{FindingID: id})
	}
	return &schema.Snapshot{Facts: facts, Risk: &schema.RiskReport{Range: rng}}
}
