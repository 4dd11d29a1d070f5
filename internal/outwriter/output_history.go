package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/olekukonko/tablewriter"
)

const timeLayout = "2006-01-02 15:04:05"

// runRow is the serialized form of a RunRecord for json, yaml, and csv output.
type runRow struct {
	RunID           string `json:"run_id" yaml:"run_id"`
	Repository      string `json:"repository" yaml:"repository"`
	PullNumber      int    `json:"pull_number" yaml:"pull_number"`
	BaseSHA         string `json:"base_sha" yaml:"base_sha"`
	HeadSHA         string `json:"head_sha" yaml:"head_sha"`
	AnalyzerVersion string `json:"analyzer_version" yaml:"analyzer_version"`
	Score           int    `json:"score" yaml:"score"`
	Level           string `json:"risk_level" yaml:"risk_level"`
	FindingCount    int    `json:"finding_count" yaml:"finding_count"`
	FlagCount       int    `json:"flag_count" yaml:"flag_count"`
	Blocking        bool   `json:"blocking" yaml:"blocking"`
	DeltaNew        *int   `json:"delta_new,omitempty" yaml:"delta_new,omitempty"`
	DeltaResolved   *int   `json:"delta_resolved,omitempty" yaml:"delta_resolved,omitempty"`
	ScopeMatch      *bool  `json:"scope_match,omitempty" yaml:"scope_match,omitempty"`
	GateFailed      bool   `json:"gate_failed" yaml:"gate_failed"`
	StartTime       string `json:"start_time" yaml:"start_time"`
	DurationMs      int64  `json:"duration_ms" yaml:"duration_ms"`
}

func toRunRows(runs []schema.RunRecord) []runRow {
	rows := make([]runRow, 0, len(runs))
	for _, r := range runs {
		var durationMs int64
		if !r.EndTime.IsZero() {
			durationMs = r.EndTime.Sub(r.StartTime).Milliseconds()
		}
		rows = append(rows, runRow{
			RunID:           r.RunID,
			Repository:      r.Repository,
			PullNumber:      r.PullNumber,
			BaseSHA:         r.BaseSHA,
			HeadSHA:         r.HeadSHA,
			AnalyzerVersion: r.AnalyzerVersion,
			Score:           r.Score,
			Level:           string(r.Level),
			FindingCount:    r.FindingCount,
			FlagCount:       r.FlagCount,
			Blocking:        r.Blocking,
			DeltaNew:        r.DeltaNew,
			DeltaResolved:   r.DeltaResolved,
			ScopeMatch:      r.ScopeMatch,
			GateFailed:      r.GateFailed,
			StartTime:       r.StartTime.UTC().Format(time.RFC3339),
			DurationMs:      durationMs,
		})
	}
	return rows
}

// PrintRuns writes recorded runs to the configured output file or stdout.
func PrintRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteRuns(w, runs, cfg)
	}, "Wrote run history")
}

// WriteRuns outputs recorded runs, dispatching based on the output format configured.
func WriteRuns(w io.Writer, runs []schema.RunRecord, cfg *contract.Config) error {
	rows := toRunRows(runs)
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, rows)
	case schema.YAMLOut:
		return writeYAML(w, rows)
	case schema.CSVOut:
		header := []string{"run_id", "repository", "pull_number", "base_sha", "head_sha", "analyzer_version",
			"score", "risk_level", "finding_count", "flag_count", "blocking",
			"delta_new", "delta_resolved", "scope_match", "gate_failed", "start_time", "duration_ms"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, r := range rows {
				record := []string{
					r.RunID, r.Repository, strconv.Itoa(r.PullNumber), r.BaseSHA, r.HeadSHA, r.AnalyzerVersion,
					strconv.Itoa(r.Score), r.Level, strconv.Itoa(r.FindingCount), strconv.Itoa(r.FlagCount),
					strconv.FormatBool(r.Blocking), optInt(r.DeltaNew), optInt(r.DeltaResolved), optBool(r.ScopeMatch),
					strconv.FormatBool(r.GateFailed), r.StartTime, strconv.FormatInt(r.DurationMs, 10),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return writeRunsTable(w, runs, cfg)
	}
}

func writeRunsTable(w io.Writer, runs []schema.RunRecord, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Started", "Run", "PR", "Range", "Score", "Level", "Δ New", "Δ Resolved", "Gate"})
	idWidth := GetMaxTableTextWidth(cfg, 90)
	var data [][]string
	for _, r := range runs {
		pr := "-"
		if r.PullNumber > 0 {
			pr = "#" + strconv.Itoa(r.PullNumber)
		}
		gate := "pass"
		if r.GateFailed {
			gate = "FAIL"
		}
		data = append(data, []string{
			r.StartTime.Local().Format(timeLayout),
			contract.TruncateText(r.RunID, idWidth),
			pr,
			shortSHA(r.BaseSHA) + ".." + shortSHA(r.HeadSHA),
			strconv.Itoa(r.Score),
			levelLabel(r.Level, cfg.UseColors),
			orDash(optInt(r.DeltaNew)),
			orDash(optInt(r.DeltaResolved)),
			gate,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d run(s)\n", len(runs))
	return err
}

// PrintArtifacts writes artifact metadata to the configured output file or stdout.
func PrintArtifacts(infos []schema.ArtifactInfo, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteArtifacts(w, infos, cfg)
	}, "Wrote artifact list")
}

// WriteArtifacts outputs artifact metadata, dispatching based on the output format configured.
func WriteArtifacts(w io.Writer, infos []schema.ArtifactInfo, cfg *contract.Config) error {
	if infos == nil {
		infos = []schema.ArtifactInfo{}
	}
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, infos)
	case schema.YAMLOut:
		return writeYAML(w, infos)
	case schema.CSVOut:
		return writeCSVWithHeader(w, []string{"name", "run_id", "size_bytes", "created_at"}, func(cw *csv.Writer) error {
			for _, a := range infos {
				if err := cw.Write([]string{a.Name, a.RunID, strconv.FormatInt(a.SizeBytes, 10), a.CreatedAt.UTC().Format(time.RFC3339)}); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		table := tablewriter.NewWriter(w)
		defer func() { _ = table.Close() }()
		table.Header([]string{"Name", "Run", "Size", "Created"})
		nameWidth := GetMaxTableTextWidth(cfg, 50)
		var data [][]string
		for _, a := range infos {
			data = append(data, []string{
				contract.TruncateText(a.Name, nameWidth),
				a.RunID,
				formatBytes(a.SizeBytes),
				a.CreatedAt.Local().Format(timeLayout),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
