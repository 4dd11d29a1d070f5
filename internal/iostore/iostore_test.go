package iostore

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlobStore(t *testing.T) *SQLBlobStore {
	t.Helper()
	store, err := NewSQLBlobStore(context.Background(), ArtifactsTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestHistoryStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(context.Background(), schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLBlobStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestBlobStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, schema.ArtifactRecord{
		Name: "riskgate-facts", RunID: "41", Content: []byte(`{"a":1}`), CreatedAt: created,
	}))

	rec, err := store.Get(ctx, "riskgate-facts")
	require.NoError(t, err)
	assert.Equal(t, "41", rec.RunID)
	assert.Equal(t, []byte(`{"a":1}`), rec.Content)
	assert.Equal(t, int64(7), rec.SizeBytes)
	assert.True(t, created.Equal(rec.CreatedAt))

	// Upsert replaces the previous content
	require.NoError(t, store.Put(ctx, schema.ArtifactRecord{
		Name: "riskgate-facts", RunID: "42", Content: []byte(`{}`), CreatedAt: created.Add(time.Minute),
	}))
	rec, err = store.Get(ctx, "riskgate-facts")
	require.NoError(t, err)
	assert.Equal(t, "42", rec.RunID)
	assert.Equal(t, []byte(`{}`), rec.Content)
}

func TestSQLBlobStore_NotFound(t *testing.T) {
	store := newTestBlobStore(t)
	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrArtifactNotFound)
}

func TestSQLBlobStore_EmptyName(t *testing.T) {
	store := newTestBlobStore(t)
	err := store.Put(context.Background(), schema.ArtifactRecord{Content: []byte("x")})
	assert.Error(t, err)
}

func TestSQLBlobStore_ListDeleteStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestBlobStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, schema.ArtifactRecord{Name: "old", RunID: "1", Content: []byte("aa"), CreatedAt: base}))
	require.NoError(t, store.Put(ctx, schema.ArtifactRecord{Name: "new", RunID: "2", Content: []byte("bbb"), CreatedAt: base.Add(time.Hour)}))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "new", infos[0].Name)
	assert.Equal(t, "old", infos[1].Name)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalArtifacts)
	assert.Equal(t, int64(5), status.TotalBytes)
	assert.True(t, base.Add(time.Hour).Equal(status.LastArtifactTime))
	assert.True(t, base.Equal(status.OldestArtifactTime))

	require.NoError(t, store.Delete(ctx, "old"))
	infos, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestSQLBlobStore_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLBlobStore(ctx, ArtifactsTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Put(ctx, schema.ArtifactRecord{Name: "x"}))
	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, contract.ErrArtifactNotFound)
	infos, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, infos)

	status, err := store.GetStatus(ctx)
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestSQLBlobStore_InvalidTableName(t *testing.T) {
	_, err := NewSQLBlobStore(context.Background(), "bad;name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestHistoryStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t)
	start := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	first := schema.RunRecord{
		RunID: "100", Repository: "acme/api", PullNumber: 7, BaseSHA: "b1", HeadSHA: "h1",
		AnalyzerVersion: "1.2.3", Score: 42, Level: schema.MediumLevel, FindingCount: 3, FlagCount: 2,
		StartTime: start, EndTime: start.Add(time.Minute),
	}
	second := schema.RunRecord{
		RunID: "101", Repository: "acme/api", PullNumber: 7, BaseSHA: "b1", HeadSHA: "h2",
		AnalyzerVersion: "1.2.3", Score: 80, Level: schema.HighLevel, FindingCount: 5, FlagCount: 4,
		Blocking: true, DeltaNew: intPtr(2), DeltaResolved: intPtr(0), ScopeMatch: boolPtr(true), GateFailed: true,
		StartTime: start.Add(time.Hour), EndTime: start.Add(time.Hour + time.Minute),
	}
	require.NoError(t, store.RecordRun(ctx, first))
	require.NoError(t, store.RecordRun(ctx, second))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "101", runs[0].RunID)
	assert.Equal(t, schema.HighLevel, runs[0].Level)
	require.NotNil(t, runs[0].DeltaNew)
	assert.Equal(t, 2, *runs[0].DeltaNew)
	require.NotNil(t, runs[0].ScopeMatch)
	assert.True(t, *runs[0].ScopeMatch)
	assert.True(t, runs[0].GateFailed)

	assert.Equal(t, "100", runs[1].RunID)
	assert.Nil(t, runs[1].DeltaNew)
	assert.Nil(t, runs[1].DeltaResolved)
	assert.Nil(t, runs[1].ScopeMatch)
	assert.True(t, start.Equal(runs[1].StartTime))

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "101", limited[0].RunID)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, "101", status.LastRunID)
	assert.Equal(t, 1, status.GateFailures)
	assert.Equal(t, int64(2), status.TableSizes[RunsTable])
}

func TestHistoryStore_RerunReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestHistoryStore(t)
	rec := schema.RunRecord{RunID: "7", Repository: "acme/api", Score: 10, Level: schema.LowLevel, StartTime: time.Now()}
	require.NoError(t, store.RecordRun(ctx, rec))
	rec.Score = 90
	require.NoError(t, store.RecordRun(ctx, rec))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 90, runs[0].Score)
}

func TestHistoryStore_EmptyRunID(t *testing.T) {
	store := newTestHistoryStore(t)
	assert.Error(t, store.RecordRun(context.Background(), schema.RunRecord{}))
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewHistoryStore(ctx, schema.NoneBackend, "")
	require.NoError(t, err)
	assert.NoError(t, store.RecordRun(ctx, schema.RunRecord{RunID: "1"}))
	runs, err := store.ListRuns(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	status, err := store.GetStatus(ctx)
	assert.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestMigrateHistory_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	require.NoError(t, MigrateHistory(ctx, &out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 1")

	out.Reset()
	require.NoError(t, MigrateHistory(ctx, &out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	// The migrated schema is usable by the store
	store, err := NewHistoryStore(ctx, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(ctx, schema.RunRecord{RunID: "1", Level: schema.LowLevel, StartTime: time.Now()}))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, MigrateHistory(ctx, &out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "rolled back")
}

func TestMigrateHistory_NoneBackend(t *testing.T) {
	err := MigrateHistory(context.Background(), &bytes.Buffer{}, schema.NoneBackend, "", -1)
	assert.Error(t, err)
}

func TestStoreManager(t *testing.T) {
	blobs := &MockBlobStore{}
	history := &MockHistoryStore{}
	mgr := NewStoreManager(blobs, history)
	assert.Same(t, blobs, mgr.GetArtifactStore())
	assert.Same(t, history, mgr.GetHistoryStore())
}

func TestOpenStores_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	artifacts, history, err := openStores(context.Background(), StoreConfig{
		ArtifactBackend:   schema.MySQLBackend,
		ArtifactDBConnect: "user:pass@tcp(127.0.0.1:1)/riskgate",
		HistoryBackend:    schema.SQLiteBackend,
		HistoryDBConnect:  filepath.Join(dir, "history.db"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize artifact store")
	assert.NotContains(t, err.Error(), "history store")
	assert.Nil(t, artifacts)
	require.NotNil(t, history)

	// The store that opened is usable
	require.NoError(t, history.RecordRun(context.Background(), schema.RunRecord{RunID: "1", Score: 5}))

	mgr := &StoreManager{}
	mgr.set(artifacts, history)
	assert.Nil(t, mgr.GetArtifactStore())
	assert.Same(t, history, mgr.GetHistoryStore())
	closeOpened(artifacts, history)
}

func TestOpenStores_Unset(t *testing.T) {
	artifacts, history, err := openStores(context.Background(), StoreConfig{})
	assert.NoError(t, err)
	assert.Nil(t, artifacts)
	assert.Nil(t, history)
}

func TestClearArtifacts_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "artifacts.db")
	store, err := NewSQLBlobStore(ctx, ArtifactsTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, schema.ArtifactRecord{Name: "a", Content: []byte("1"), CreatedAt: time.Now()}))
	require.NoError(t, store.Close())

	cfg := StoreConfig{ArtifactBackend: schema.SQLiteBackend, ArtifactDBConnect: dbPath}
	require.NoError(t, ClearArtifacts(ctx, cfg))
	// Clearing twice is fine
	require.NoError(t, ClearArtifacts(ctx, cfg))

	store, err = NewSQLBlobStore(ctx, ArtifactsTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	infos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestClear_Unsupported(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ClearArtifacts(ctx, StoreConfig{ArtifactBackend: schema.NoneBackend}))
	assert.NoError(t, ClearHistory(ctx, StoreConfig{HistoryBackend: schema.NoneBackend}))
	assert.Error(t, ClearArtifacts(ctx, StoreConfig{ArtifactBackend: "bogus"}))
	assert.Error(t, ClearHistory(ctx, StoreConfig{HistoryBackend: schema.GCSBackend}))
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintArtifactStatus(&buf, schema.ArtifactStatus{Backend: "sqlite", Connected: false})
	assert.Contains(t, buf.String(), "Artifact Backend: sqlite")
	assert.NotContains(t, buf.String(), "Total Artifacts")

	buf.Reset()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 3, LastRunID: "9",
		LastRunTime: now, OldestRunTime: now, GateFailures: 1,
		TableSizes: map[string]int64{RunsTable: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "Last Run ID: 9")
	assert.Contains(t, out, "Last Run: 2026-01-02 03:04:05")
	assert.Contains(t, out, "riskgate_runs: 3 rows")
}
