package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintComparisonResults writes the comparison to the configured output file or stdout.
func PrintComparisonResults(result schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteComparisonResults(w, result, cfg, duration)
	}, "Wrote comparison")
}

// WriteComparisonResults outputs the comparison, dispatching based on the output format configured.
func WriteComparisonResults(w io.Writer, result schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, result); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeYAML(w, result); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForComparison(w, result); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := writeComparisonTable(w, result, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// writeComparisonTable writes one row per finding followed by the score summary.
func writeComparisonTable(w io.Writer, result schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"#", "Finding", "Kind", "Category", "Confidence", "Status"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	idWidth := GetMaxTableTextWidth(cfg, 45)
	var data [][]string
	for i, d := range result.Details {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(d.FindingID, idWidth),
			string(d.Kind),
			d.Category,
			strconv.FormatFloat(d.Confidence, 'f', 2, 64),
			contract.GetStatusLabel(d.Status, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := result.Summary
	if _, err := fmt.Fprintf(w, "Compared %s against %s\n", result.CurrentName, result.BaselineName); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Score: %d -> %d (%s), Level: %s -> %s\n",
		s.BaselineScore, s.CurrentScore, formatScoreDelta(s.NetScoreDelta, cfg.UseColors),
		levelLabel(s.BaselineLevel, cfg.UseColors), levelLabel(s.CurrentLevel, cfg.UseColors)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "New findings: %d, Resolved findings: %d, Unchanged findings: %d\n",
		s.TotalNew, s.TotalResolved, s.TotalUnchanged); err != nil {
		return err
	}
	if !s.ScopeMatch && s.ScopeWarning != "" {
		warn := colorizer(cfg.UseColors, color.New(color.FgYellow).SprintFunc())
		if _, err := fmt.Fprintf(w, "%s %s\n", warn("Scope warning:"), s.ScopeWarning); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Comparison completed in %v\n", duration); err != nil {
		return err
	}
	return nil
}

// formatScoreDelta renders a signed score change with a direction marker.
func formatScoreDelta(delta int, useColors bool) string {
	red := colorizer(useColors, color.New(color.FgRed).SprintFunc())
	green := colorizer(useColors, color.New(color.FgGreen).SprintFunc())
	yellow := colorizer(useColors, color.New(color.FgYellow).SprintFunc())
	switch {
	case delta > 0:
		return red(fmt.Sprintf("+%d ▲", delta))
	case delta < 0:
		return green(fmt.Sprintf("%d ▼", delta))
	default:
		return yellow("0")
	}
}

func levelLabel(level schema.RiskLevel, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(level)
	}
	return contract.GetPlainLabel(level)
}

// writeCSVResultsForComparison writes one row per finding.
func writeCSVResultsForComparison(w io.Writer, result schema.ComparisonResult) error {
	header := []string{"rank", "finding_id", "kind", "category", "confidence", "status"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, d := range result.Details {
			row := []string{
				strconv.Itoa(i + 1),
				d.FindingID,
				string(d.Kind),
				d.Category,
				strconv.FormatFloat(d.Confidence, 'f', 2, 64),
				string(d.Status),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
