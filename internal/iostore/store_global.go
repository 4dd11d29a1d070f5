package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

// GCSPrefix is the object prefix used for artifacts in a bucket.
const GCSPrefix = "riskgate"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// StoreConfig selects the artifact and history backends.
type StoreConfig struct {
	ArtifactBackend    schema.DatabaseBackend
	ArtifactDBConnect  string
	ArtifactBucket     string
	GCSCredentialsFile string
	HistoryBackend     schema.DatabaseBackend
	HistoryDBConnect   string
}

// StoreConfigFrom extracts the storage settings from a validated config.
func StoreConfigFrom(cfg *contract.Config) StoreConfig {
	return StoreConfig{
		ArtifactBackend:    cfg.ArtifactBackend,
		ArtifactDBConnect:  cfg.ArtifactDBConnect,
		ArtifactBucket:     cfg.ArtifactBucket,
		GCSCredentialsFile: cfg.GCSCredentialsFile,
		HistoryBackend:     cfg.HistoryBackend,
		HistoryDBConnect:   cfg.HistoryDBConnect,
	}
}

// NewBlobStore opens the artifact store for the configured backend.
func NewBlobStore(ctx context.Context, cfg StoreConfig) (contract.BlobStore, error) {
	if cfg.ArtifactBackend == schema.GCSBackend {
		return NewGCSBlobStore(ctx, cfg.ArtifactBucket, GCSPrefix, cfg.GCSCredentialsFile)
	}
	return NewSQLBlobStore(ctx, ArtifactsTable, cfg.ArtifactBackend, cfg.ArtifactDBConnect)
}

// InitStores initializes the global manager with the artifact and history stores.
// An empty backend leaves that store unset. Any failure closes what was opened.
func InitStores(ctx context.Context, cfg StoreConfig) error {
	var initErr error
	initOnce.Do(func() {
		artifacts, history, err := openStores(ctx, cfg)
		if err != nil {
			closeOpened(artifacts, history)
			initErr = err
			return
		}
		Manager.set(artifacts, history)
	})
	return initErr
}

// InitStoresDegraded is InitStores for runs that must go on without persistence.
// A store that fails to open stays unset; the returned error describes every failure.
func InitStoresDegraded(ctx context.Context, cfg StoreConfig) error {
	var initErr error
	initOnce.Do(func() {
		artifacts, history, err := openStores(ctx, cfg)
		Manager.set(artifacts, history)
		initErr = err
	})
	return initErr
}

// openStores opens each configured store independently. The stores that opened
// are returned even when the other one failed.
func openStores(ctx context.Context, cfg StoreConfig) (contract.BlobStore, contract.HistoryStore, error) {
	var errs []error

	var artifacts contract.BlobStore
	if cfg.ArtifactBackend != "" {
		store, err := NewBlobStore(ctx, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to initialize artifact store: %w", err))
		} else {
			artifacts = store
		}
	}

	var history contract.HistoryStore
	if cfg.HistoryBackend != "" {
		store, err := NewHistoryStore(ctx, cfg.HistoryBackend, cfg.HistoryDBConnect)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to initialize history store: %w", err))
		} else {
			history = store
		}
	}

	return artifacts, history, errors.Join(errs...)
}

func closeOpened(artifacts contract.BlobStore, history contract.HistoryStore) {
	if artifacts != nil {
		_ = artifacts.Close()
	}
	if history != nil {
		_ = history.Close()
	}
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.artifacts != nil {
			_ = Manager.artifacts.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearArtifacts removes every stored artifact.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For GCS, it deletes every object under the riskgate prefix.
func ClearArtifacts(ctx context.Context, cfg StoreConfig) error {
	switch cfg.ArtifactBackend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(cfg.ArtifactDBConnect, contract.GetArtifactDBFilePath())
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTable(ctx, cfg.ArtifactBackend, cfg.ArtifactDBConnect, ArtifactsTable)
	case schema.GCSBackend:
		store, err := NewGCSBlobStore(ctx, cfg.ArtifactBucket, GCSPrefix, cfg.GCSCredentialsFile)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		infos, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			if err := store.Delete(ctx, info.Name); err != nil {
				return err
			}
		}
		return nil
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported artifact backend for clearing: %s", cfg.ArtifactBackend)
	}
}

// ClearHistory removes the run history.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the runs table.
func ClearHistory(ctx context.Context, cfg StoreConfig) error {
	switch cfg.HistoryBackend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTable(ctx, cfg.HistoryBackend, cfg.HistoryDBConnect, RunsTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", cfg.HistoryBackend)
	}
}

func removeSQLiteFile(path, defaultPath string) error {
	if path == "" {
		path = defaultPath
	}
	// Remove the file; ignore if it doesn't exist
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
	}
	return nil
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(ctx context.Context, backend schema.DatabaseBackend, connStr, tableName string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}
	driver, err := driverName(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
