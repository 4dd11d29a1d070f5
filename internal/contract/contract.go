// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"io"

	"github.com/huangsam/riskgate/schema"
)

// ErrArtifactNotFound is returned by a BlobStore when no artifact exists under a name.
var ErrArtifactNotFound = errors.New("artifact not found")

// AnalyzerClient defines the operations needed to drive the external analyzer.
// This allows the runner to be tested without a real analyzer executable.
type AnalyzerClient interface {
	// Run executes the analyzer and returns its buffered stdout.
	Run(ctx context.Context, args ...string) ([]byte, error)

	// Stream executes the analyzer and copies stdout into w without buffering it in memory.
	Stream(ctx context.Context, w io.Writer, args ...string) error
}

// VersionResolver maps a requested analyzer version specifier to a concrete version.
type VersionResolver interface {
	// Resolve never fails. On any lookup problem it returns spec unchanged.
	Resolve(ctx context.Context, spec string) string
}

// StoreManager defines the interface for managing the persistent stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetArtifactStore() BlobStore
	GetHistoryStore() HistoryStore
}

// BlobStore defines the interface for artifact storage.
type BlobStore interface {
	// Put writes an artifact, replacing any artifact with the same name.
	Put(ctx context.Context, rec schema.ArtifactRecord) error

	// Get returns the most recent artifact under name, or ErrArtifactNotFound.
	Get(ctx context.Context, name string) (*schema.ArtifactRecord, error)

	// List returns metadata for all stored artifacts, newest first.
	List(ctx context.Context) ([]schema.ArtifactInfo, error)

	// Delete removes an artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error

	// GetStatus returns status information about the artifact store
	GetStatus(ctx context.Context) (schema.ArtifactStatus, error)

	// Close closes the underlying connection
	Close() error
}

// HistoryStore defines the interface for recording riskgate runs.
type HistoryStore interface {
	// RecordRun stores a run. Recording the same run ID twice replaces the earlier row.
	RecordRun(ctx context.Context, rec schema.RunRecord) error

	// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all runs.
	ListRuns(ctx context.Context, limit int) ([]schema.RunRecord, error)

	// GetStatus returns status information about the history store
	GetStatus(ctx context.Context) (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}

// CommentClient defines the PR comment operations needed for report publication.
type CommentClient interface {
	ListComments(ctx context.Context, repo schema.RepoRef, number int) ([]schema.IssueComment, error)
	CreateComment(ctx context.Context, repo schema.RepoRef, number int, body string) (schema.IssueComment, error)
	UpdateComment(ctx context.Context, repo schema.RepoRef, commentID int64, body string) error
	DeleteComment(ctx context.Context, repo schema.RepoRef, commentID int64) error
}

// SummaryWriter appends markdown to the job summary.
type SummaryWriter interface {
	AppendSummary(markdown string) error
}

// OutputWriter emits step outputs to the CI platform.
type OutputWriter interface {
	WriteOutputs(outputs *schema.RunOutputs) error
}
