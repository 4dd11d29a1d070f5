package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

// ArtifactsTable is the name of the table holding artifacts.
const ArtifactsTable = "riskgate_artifacts"

var artifactColumns = []string{"artifact_name", "run_id", "content", "size_bytes", "created_at"}

// SQLBlobStore stores artifacts as rows in a SQL database.
type SQLBlobStore struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
}

var _ contract.BlobStore = &SQLBlobStore{} // Compile-time check

// NewSQLBlobStore opens the artifact table on the given SQL backend. The none
// backend yields a store that keeps nothing.
func NewSQLBlobStore(ctx context.Context, tableName string, backend schema.DatabaseBackend, connStr string) (*SQLBlobStore, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return &SQLBlobStore{tableName: tableName, backend: backend}, nil
	}

	db, err := openDB(ctx, backend, connStr, contract.GetArtifactDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, getCreateArtifactsQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &SQLBlobStore{db: db, tableName: tableName, backend: backend}, nil
}

// getCreateArtifactsQuery returns the CREATE TABLE query for the given backend.
func getCreateArtifactsQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				artifact_name VARCHAR(255) PRIMARY KEY,
				run_id VARCHAR(255) NOT NULL,
				content LONGBLOB NOT NULL,
				size_bytes BIGINT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				artifact_name TEXT PRIMARY KEY,
				run_id TEXT NOT NULL,
				content BYTEA NOT NULL,
				size_bytes BIGINT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				artifact_name TEXT PRIMARY KEY,
				run_id TEXT NOT NULL,
				content BLOB NOT NULL,
				size_bytes INTEGER NOT NULL,
				created_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Put implements the BlobStore interface.
func (s *SQLBlobStore) Put(ctx context.Context, rec schema.ArtifactRecord) error {
	if s.db == nil {
		return nil
	}
	if rec.Name == "" {
		return errors.New("artifact name cannot be empty")
	}
	content := rec.Content
	if content == nil {
		content = []byte{}
	}
	query := upsertQuery(s.backend, s.tableName, "artifact_name", artifactColumns)
	_, err := s.db.ExecContext(ctx, query, rec.Name, rec.RunID, content, int64(len(content)), toMillis(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", rec.Name, err)
	}
	return nil
}

// Get implements the BlobStore interface.
func (s *SQLBlobStore) Get(ctx context.Context, name string) (*schema.ArtifactRecord, error) {
	if s.db == nil {
		return nil, contract.ErrArtifactNotFound
	}

	query := fmt.Sprintf(`SELECT artifact_name, run_id, content, size_bytes, created_at FROM %s WHERE artifact_name = %s`,
		quoteTableName(s.tableName, s.backend), placeholder(s.backend, 1))

	var rec schema.ArtifactRecord
	var created int64
	err := s.db.QueryRowContext(ctx, query, name).Scan(&rec.Name, &rec.RunID, &rec.Content, &rec.SizeBytes, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, contract.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	rec.CreatedAt = fromMillis(created)
	return &rec, nil
}

// List implements the BlobStore interface.
func (s *SQLBlobStore) List(ctx context.Context) ([]schema.ArtifactInfo, error) {
	if s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT artifact_name, run_id, size_bytes, created_at FROM %s ORDER BY created_at DESC, artifact_name`,
		quoteTableName(s.tableName, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ArtifactInfo
	for rows.Next() {
		var info schema.ArtifactInfo
		var created int64
		if err := rows.Scan(&info.Name, &info.RunID, &info.SizeBytes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		info.CreatedAt = fromMillis(created)
		results = append(results, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifacts: %w", err)
	}
	return results, nil
}

// Delete implements the BlobStore interface.
func (s *SQLBlobStore) Delete(ctx context.Context, name string) error {
	if s.db == nil {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE artifact_name = %s`, quoteTableName(s.tableName, s.backend), placeholder(s.backend, 1))
	if _, err := s.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (s *SQLBlobStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStatus returns status information about the artifact store.
func (s *SQLBlobStore) GetStatus(ctx context.Context) (schema.ArtifactStatus, error) {
	status := schema.ArtifactStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	query := fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0), COALESCE(MAX(created_at), 0), COALESCE(MIN(created_at), 0) FROM %s`,
		quoteTableName(s.tableName, s.backend))
	var last, oldest int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&status.TotalArtifacts, &status.TotalBytes, &last, &oldest); err != nil {
		return status, fmt.Errorf("failed to get artifact totals: %w", err)
	}
	status.LastArtifactTime = fromMillis(last)
	status.OldestArtifactTime = fromMillis(oldest)
	return status, nil
}
