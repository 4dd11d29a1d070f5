// Package parquet exports riskgate run history and the artifact index to
// Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/riskgate/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one recorded riskgate run. It maps to the riskgate_runs table.
type Run struct {
	RunID           string `parquet:"run_id,snappy"`
	Repository      string `parquet:"repository,snappy"`
	PullNumber      int32  `parquet:"pull_number,snappy"`
	BaseSHA         string `parquet:"base_sha,snappy"`
	HeadSHA         string `parquet:"head_sha,snappy"`
	AnalyzerVersion string `parquet:"analyzer_version,snappy"`

	// Score is the analyzer's aggregate 0-100 risk score
	Score        int32  `parquet:"score,snappy"`
	RiskLevel    string `parquet:"risk_level,snappy"`
	FindingCount int32  `parquet:"finding_count,snappy"`
	FlagCount    int32  `parquet:"flag_count,snappy"`
	Blocking     bool   `parquet:"blocking,snappy"`

	// Delta columns are null when no baseline was compared
	DeltaNew      *int32 `parquet:"delta_new,optional,snappy"`
	DeltaResolved *int32 `parquet:"delta_resolved,optional,snappy"`
	ScopeMatch    *bool  `parquet:"scope_match,optional,snappy"`

	GateFailed    bool       `parquet:"gate_failed,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int64     `parquet:"run_duration_ms,optional,snappy"`
}

// Artifact is one entry of the artifact index. Content is not exported.
type Artifact struct {
	Name      string    `parquet:"artifact_name,snappy"`
	RunID     string    `parquet:"run_id,snappy"`
	SizeBytes int64     `parquet:"size_bytes,snappy"`
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// WriteRunsParquet writes run rows to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteArtifactsParquet writes artifact index rows to a Parquet file.
func WriteArtifactsParquet(data []Artifact, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet infers the schema from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord values to Run rows.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, rec := range records {
		row := Run{
			RunID:           rec.RunID,
			Repository:      rec.Repository,
			PullNumber:      int32(rec.PullNumber),
			BaseSHA:         rec.BaseSHA,
			HeadSHA:         rec.HeadSHA,
			AnalyzerVersion: rec.AnalyzerVersion,
			Score:           int32(rec.Score),
			RiskLevel:       string(rec.Level),
			FindingCount:    int32(rec.FindingCount),
			FlagCount:       int32(rec.FlagCount),
			Blocking:        rec.Blocking,
			DeltaNew:        int32Ptr(rec.DeltaNew),
			DeltaResolved:   int32Ptr(rec.DeltaResolved),
			ScopeMatch:      rec.ScopeMatch,
			GateFailed:      rec.GateFailed,
			StartTime:       rec.StartTime,
		}
		if !rec.EndTime.IsZero() {
			end := rec.EndTime
			row.EndTime = &end
			if !rec.StartTime.IsZero() {
				ms := end.Sub(rec.StartTime).Milliseconds()
				row.RunDurationMs = &ms
			}
		}
		result[i] = row
	}
	return result
}

// ConvertArtifactInfos converts schema.ArtifactInfo values to Artifact rows.
func ConvertArtifactInfos(infos []schema.ArtifactInfo) []Artifact {
	result := make([]Artifact, len(infos))
	for i, info := range infos {
		result[i] = Artifact{
			Name:      info.Name,
			RunID:     info.RunID,
			SizeBytes: info.SizeBytes,
			CreatedAt: info.CreatedAt,
		}
	}
	return result
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}
