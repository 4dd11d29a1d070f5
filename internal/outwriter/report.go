package outwriter

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// maxCommentFlags limits the flag table in the PR comment; the summary lists all.
const maxCommentFlags = 10

// ReportView is everything the job summary and PR comment render from.
type ReportView struct {
	AnalyzerVersion string
	Range           schema.Range
	Snapshot        *schema.Snapshot
	Narrative       string
	BaselineName    string
	Delta           *schema.DeltaResult // nil when no baseline was compared
	Artifacts       schema.ArtifactHandle
	ArtifactError   bool
	Threshold       int // contract.DisabledThreshold when the gate is off
}

func (v ReportView) risk() *schema.RiskReport {
	if v.Snapshot == nil || v.Snapshot.Risk == nil {
		return &schema.RiskReport{Level: schema.UnknownLevel}
	}
	return v.Snapshot.Risk
}

func (v ReportView) facts() *schema.FactsDocument {
	if v.Snapshot == nil || v.Snapshot.Facts == nil {
		return &schema.FactsDocument{}
	}
	return v.Snapshot.Facts
}

// RenderSummary renders the full markdown job summary.
func RenderSummary(v ReportView) (string, error) {
	var b strings.Builder
	writeHeadline(&b, v)

	risk := v.risk()
	if len(risk.Categories) > 0 {
		b.WriteString("\n### Categories\n\n")
		if err := writeCategoryTable(&b, risk.Categories); err != nil {
			return "", err
		}
	}
	if len(risk.Flags) > 0 {
		b.WriteString("\n### Flags\n\n")
		if err := writeFlagTable(&b, risk.Flags, 0); err != nil {
			return "", err
		}
	}
	writeBlockingActions(&b, v.facts())
	writeDelta(&b, v, true)

	if narrative := strings.TrimSpace(v.Narrative); narrative != "" {
		b.WriteString("\n<details><summary>Analyzer report</summary>\n\n```text\n")
		b.WriteString(strings.ReplaceAll(narrative, "```", "ˋˋˋ"))
		b.WriteString("\n```\n\n</details>\n")
	}

	b.WriteString("\n### Artifacts\n\n")
	names := v.Artifacts.Names()
	if len(names) == 0 {
		b.WriteString("_No artifacts were published._\n")
	}
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s`\n", name)
	}
	if v.ArtifactError {
		b.WriteString("\n> [!WARNING]\n> Some artifacts failed to publish. Later runs cannot use this run as a baseline.\n")
	}
	return b.String(), nil
}

// RenderComment renders the compact markdown PR comment body, without the marker.
func RenderComment(v ReportView) (string, error) {
	var b strings.Builder
	writeHeadline(&b, v)

	flags := v.risk().Flags
	if len(flags) > 0 {
		b.WriteString("\n")
		if err := writeFlagTable(&b, flags, maxCommentFlags); err != nil {
			return "", err
		}
		if len(flags) > maxCommentFlags {
			fmt.Fprintf(&b, "\n_%d more flag(s) in the job summary._\n", len(flags)-maxCommentFlags)
		}
	}
	writeBlockingActions(&b, v.facts())
	writeDelta(&b, v, false)
	return b.String(), nil
}

func writeHeadline(b *strings.Builder, v ReportView) {
	risk := v.risk()
	facts := v.facts()
	fmt.Fprintf(b, "## %s Change risk: %s (%d/100)\n\n", levelEmoji(risk.Level), contract.GetPlainLabel(risk.Level), risk.Score)
	fmt.Fprintf(b, "Range `%s` · %d finding(s) · %d flag(s)", shortRange(v.Range), len(facts.Findings), len(risk.Flags))
	if v.AnalyzerVersion != "" {
		fmt.Fprintf(b, " · analyzer `%s`", v.AnalyzerVersion)
	}
	b.WriteString("\n")
	if v.Threshold >= 0 {
		if risk.Score >= v.Threshold {
			fmt.Fprintf(b, "\n**Gate failed:** score %d is at or above the threshold of %d.\n", risk.Score, v.Threshold)
		} else {
			fmt.Fprintf(b, "\nGate passed: score %d is below the threshold of %d.\n", risk.Score, v.Threshold)
		}
	}
}

func writeCategoryTable(b *strings.Builder, categories map[string]schema.CategoryScore) error {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := categories[names[i]], categories[names[j]]
		if ci.Score != cj.Score {
			return ci.Score > cj.Score
		}
		return names[i] < names[j]
	})

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		c := categories[name]
		rows = append(rows, []string{name, strconv.Itoa(c.Score), strconv.Itoa(c.FlagCount)})
	}
	return writeMarkdownTable(b, []string{"Category", "Score", "Flags"}, rows)
}

func writeFlagTable(b *strings.Builder, flags []schema.Flag, limit int) error {
	sorted := append([]schema.Flag(nil), flags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].FlagID < sorted[j].FlagID
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([][]string, 0, len(sorted))
	for _, f := range sorted {
		rows = append(rows, []string{
			escapeCell(f.Title),
			escapeCell(f.Category),
			strconv.Itoa(f.Score),
			"`" + escapeCell(f.RuleID) + "`",
		})
	}
	return writeMarkdownTable(b, []string{"Flag", "Category", "Score", "Rule"}, rows)
}

func writeBlockingActions(b *strings.Builder, facts *schema.FactsDocument) {
	var blocking []schema.Action
	for _, a := range facts.Actions {
		if a.Blocking {
			blocking = append(blocking, a)
		}
	}
	if len(blocking) == 0 {
		return
	}
	b.WriteString("\n### Blocking actions\n\n")
	for _, a := range blocking {
		fmt.Fprintf(b, "- [ ] %s\n", escapeInline(a.Text))
	}
}

func writeDelta(b *strings.Builder, v ReportView, listIDs bool) {
	if v.Delta == nil {
		return
	}
	d := v.Delta
	fmt.Fprintf(b, "\n### Since `%s`\n\n", v.BaselineName)
	fmt.Fprintf(b, "%d new · %d resolved · %d unchanged\n", len(d.NewFindingIDs), len(d.ResolvedFindingIDs), len(d.UnchangedFindingIDs))
	if !d.ScopeMatch && d.ScopeWarning != "" {
		fmt.Fprintf(b, "\n> [!CAUTION]\n> %s\n", d.ScopeWarning)
	}
	if !listIDs {
		return
	}
	writeIDList(b, "New", d.NewFindingIDs)
	writeIDList(b, "Resolved", d.ResolvedFindingIDs)
}

func writeIDList(b *strings.Builder, title string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s**\n\n", title)
	for _, id := range ids {
		fmt.Fprintf(b, "- `%s`\n", id)
	}
}

// writeMarkdownTable renders a GitHub-flavored markdown table.
func writeMarkdownTable(b *strings.Builder, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(b, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build markdown table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render markdown table: %w", err)
	}
	return nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// escapeInline keeps analyzer text on one markdown line and inert as HTML.
func escapeInline(s string) string {
	return escapeCell(html.EscapeString(s))
}

func levelEmoji(level schema.RiskLevel) string {
	switch schema.RiskLevel(strings.ToLower(string(level))) {
	case schema.CriticalLevel:
		return "🟥"
	case schema.HighLevel:
		return "🟧"
	case schema.MediumLevel:
		return "🟨"
	case schema.LowLevel:
		return "🟩"
	default:
		return "⬜"
	}
}

func shortRange(r schema.Range) string {
	return shortSHA(r.Base) + ".." + shortSHA(r.Head)
}

func shortSHA(s string) string {
	if len(s) == 40 || len(s) == 64 {
		return s[:7]
	}
	return s
}
