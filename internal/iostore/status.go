package iostore

import (
	"fmt"
	"io"
	"sort"

	"github.com/huangsam/riskgate/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintArtifactStatus prints artifact store status information.
func PrintArtifactStatus(w io.Writer, status schema.ArtifactStatus) {
	_, _ = fmt.Fprintf(w, "Artifact Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Artifacts: %d\n", status.TotalArtifacts)
	if status.TotalArtifacts > 0 {
		_, _ = fmt.Fprintf(w, "Last Artifact: %s\n", status.LastArtifactTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Oldest Artifact: %s\n", status.OldestArtifactTime.Format(statusTimeLayout))
	}
	_, _ = fmt.Fprintf(w, "Total Size: %d bytes\n", status.TotalBytes)
}

// PrintHistoryStatus prints run history status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Gate Failures: %d\n", status.GateFailures)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
