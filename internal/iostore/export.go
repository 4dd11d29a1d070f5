package iostore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/parquet"
)

// ExportHistory writes the run history and the artifact index to Parquet files
// named after outputFile. A nil artifact store skips the artifact index.
func ExportHistory(ctx context.Context, w io.Writer, history contract.HistoryStore, artifacts contract.BlobStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if history == nil {
		return errors.New("history store is not initialized")
	}

	status, err := history.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)

	runs, err := history.ListRuns(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	runsFile := outputFile + ".runs.parquet"
	rows := parquet.ConvertRunRecords(runs)
	if err := parquet.WriteRunsParquet(rows, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(rows), runsFile)

	if artifacts != nil {
		infos, err := artifacts.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list artifacts: %w", err)
		}
		artifactsFile := outputFile + ".artifacts.parquet"
		artifactRows := parquet.ConvertArtifactInfos(infos)
		if err := parquet.WriteArtifactsParquet(artifactRows, artifactsFile); err != nil {
			return fmt.Errorf("failed to write artifact index: %w", err)
		}
		_, _ = fmt.Fprintf(w, "Exported %d artifacts to: %s\n", len(artifactRows), artifactsFile)
	}

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with DuckDB, Pandas (via pyarrow) or Apache Spark.")
	return nil
}
