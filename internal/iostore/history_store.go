package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

// RunsTable is the name of the table holding run history.
const RunsTable = "riskgate_runs"

var runColumns = []string{
	"run_id", "repository", "pull_number", "base_sha", "head_sha", "analyzer_version",
	"score", "risk_level", "finding_count", "flag_count", "blocking",
	"delta_new", "delta_resolved", "scope_match", "gate_failed", "start_time", "end_time",
}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(ctx, backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, getCreateRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// getCreateRunsQuery returns the CREATE TABLE query for riskgate_runs.
// It matches migrations/1_create_runs.up.sql for each backend.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(RunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(255) PRIMARY KEY,
				repository VARCHAR(255) NOT NULL,
				pull_number INT NOT NULL,
				base_sha VARCHAR(64) NOT NULL,
				head_sha VARCHAR(64) NOT NULL,
				analyzer_version VARCHAR(100) NOT NULL,
				score INT NOT NULL,
				risk_level VARCHAR(20) NOT NULL,
				finding_count INT NOT NULL,
				flag_count INT NOT NULL,
				blocking BOOLEAN NOT NULL,
				delta_new INT,
				delta_resolved INT,
				scope_match BOOLEAN,
				gate_failed BOOLEAN NOT NULL,
				start_time BIGINT NOT NULL,
				end_time BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				repository TEXT NOT NULL,
				pull_number INT NOT NULL,
				base_sha TEXT NOT NULL,
				head_sha TEXT NOT NULL,
				analyzer_version TEXT NOT NULL,
				score INT NOT NULL,
				risk_level TEXT NOT NULL,
				finding_count INT NOT NULL,
				flag_count INT NOT NULL,
				blocking BOOLEAN NOT NULL,
				delta_new INT,
				delta_resolved INT,
				scope_match BOOLEAN,
				gate_failed BOOLEAN NOT NULL,
				start_time BIGINT NOT NULL,
				end_time BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				repository TEXT NOT NULL,
				pull_number INTEGER NOT NULL,
				base_sha TEXT NOT NULL,
				head_sha TEXT NOT NULL,
				analyzer_version TEXT NOT NULL,
				score INTEGER NOT NULL,
				risk_level TEXT NOT NULL,
				finding_count INTEGER NOT NULL,
				flag_count INTEGER NOT NULL,
				blocking BOOLEAN NOT NULL,
				delta_new INTEGER,
				delta_resolved INTEGER,
				scope_match BOOLEAN,
				gate_failed BOOLEAN NOT NULL,
				start_time INTEGER NOT NULL,
				end_time INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// RecordRun implements the HistoryStore interface.
func (hs *HistoryStoreImpl) RecordRun(ctx context.Context, rec schema.RunRecord) error {
	// Skip for NoneBackend
	if hs.db == nil {
		return nil
	}
	if rec.RunID == "" {
		return errors.New("run ID cannot be empty")
	}

	query := upsertQuery(hs.backend, RunsTable, "run_id", runColumns)
	args := []any{
		rec.RunID, rec.Repository, rec.PullNumber, rec.BaseSHA, rec.HeadSHA, rec.AnalyzerVersion,
		rec.Score, string(rec.Level), rec.FindingCount, rec.FlagCount, rec.Blocking,
		nullInt(rec.DeltaNew), nullInt(rec.DeltaResolved), nullBool(rec.ScopeMatch), rec.GateFailed,
		toMillis(rec.StartTime), toMillis(rec.EndTime),
	}
	if _, err := hs.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.RunID, err)
	}
	return nil
}

// ListRuns implements the HistoryStore interface.
func (hs *HistoryStoreImpl) ListRuns(ctx context.Context, limit int) ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, repository, pull_number, base_sha, head_sha, analyzer_version,
		score, risk_level, finding_count, flag_count, blocking,
		delta_new, delta_resolved, scope_match, gate_failed, start_time, end_time
		FROM %s ORDER BY start_time DESC, run_id DESC`, quoteTableName(RunsTable, hs.backend))
	var args []any
	if limit > 0 {
		query += " LIMIT " + placeholder(hs.backend, 1)
		args = append(args, limit)
	}

	rows, err := hs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var rec schema.RunRecord
		var level string
		var deltaNew, deltaResolved sql.NullInt64
		var scopeMatch sql.NullBool
		var start, end int64
		if err := rows.Scan(&rec.RunID, &rec.Repository, &rec.PullNumber, &rec.BaseSHA, &rec.HeadSHA, &rec.AnalyzerVersion,
			&rec.Score, &level, &rec.FindingCount, &rec.FlagCount, &rec.Blocking,
			&deltaNew, &deltaResolved, &scopeMatch, &rec.GateFailed, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Level = schema.RiskLevel(level)
		if deltaNew.Valid {
			v := int(deltaNew.Int64)
			rec.DeltaNew = &v
		}
		if deltaResolved.Valid {
			v := int(deltaResolved.Int64)
			rec.DeltaResolved = &v
		}
		if scopeMatch.Valid {
			v := scopeMatch.Bool
			rec.ScopeMatch = &v
		}
		rec.StartTime = fromMillis(start)
		rec.EndTime = fromMillis(end)
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus(ctx context.Context) (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(RunsTable, hs.backend)
	countQuery := fmt.Sprintf(`SELECT COUNT(*), COALESCE(MAX(start_time), 0), COALESCE(MIN(start_time), 0) FROM %s`, quoted)
	var last, oldest int64
	if err := hs.db.QueryRowContext(ctx, countQuery).Scan(&status.TotalRuns, &last, &oldest); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	status.TableSizes[RunsTable] = int64(status.TotalRuns)
	if status.TotalRuns == 0 {
		return status, nil
	}
	status.LastRunTime = fromMillis(last)
	status.OldestRunTime = fromMillis(oldest)

	lastQuery := fmt.Sprintf(`SELECT run_id FROM %s ORDER BY start_time DESC, run_id DESC LIMIT 1`, quoted)
	if err := hs.db.QueryRowContext(ctx, lastQuery).Scan(&status.LastRunID); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}

	failQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE gate_failed = %s`, quoted, placeholder(hs.backend, 1))
	if err := hs.db.QueryRowContext(ctx, failQuery, true).Scan(&status.GateFailures); err != nil {
		return status, fmt.Errorf("failed to count gate failures: %w", err)
	}
	return status, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
