package schema

import "time"

// ArtifactStatus represents the status of the artifact store.
type ArtifactStatus struct {
	Backend            string    `json:"backend"`
	Connected          bool      `json:"connected"`
	TotalArtifacts     int       `json:"total_artifacts"`
	TotalBytes         int64     `json:"total_bytes"`
	LastArtifactTime   time.Time `json:"last_artifact_time"`
	OldestArtifactTime time.Time `json:"oldest_artifact_time"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	GateFailures  int              `json:"gate_failures"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
