package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

// Artifacts publishes run snapshots to a blob store and reads baselines back.
type Artifacts struct {
	store contract.BlobStore
	scope *RunScope
	runID string
	now   func() time.Time
}

// NewArtifacts creates an artifact publisher. Baselines are staged in scope.
func NewArtifacts(store contract.BlobStore, scope *RunScope, runID string) *Artifacts {
	return &Artifacts{store: store, scope: scope, runID: runID, now: time.Now}
}

// Publish writes {base}-facts, {base}-risk-report and, when produced,
// {base}-sarif. The handle lists the names that were written; on partial
// failure the error joins every failed write.
func (a *Artifacts) Publish(ctx context.Context, base string, result *AnalysisResult) (schema.ArtifactHandle, error) {
	var handle schema.ArtifactHandle
	if a.store == nil {
		return handle, errors.New("artifact store is not configured")
	}
	if result == nil || result.Snapshot == nil {
		return handle, errors.New("no analysis result to publish")
	}

	created := a.now()
	put := func(name string, content []byte) error {
		return a.store.Put(ctx, schema.ArtifactRecord{
			Name:      name,
			RunID:     a.runID,
			Content:   content,
			SizeBytes: int64(len(content)),
			CreatedAt: created,
		})
	}

	var errs []error
	if err := put(schema.FactsArtifactName(base), result.Snapshot.FactsJSON); err != nil {
		errs = append(errs, err)
	} else {
		handle.FactsName = schema.FactsArtifactName(base)
	}
	if err := put(schema.RiskArtifactName(base), result.Snapshot.RiskJSON); err != nil {
		errs = append(errs, err)
	} else {
		handle.RiskName = schema.RiskArtifactName(base)
	}
	if result.SarifPath != "" {
		data, err := os.ReadFile(result.SarifPath)
		if err == nil {
			err = put(schema.SarifArtifactName(base), data)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sarif: %w", err))
		} else {
			handle.SarifName = schema.SarifArtifactName(base)
		}
	}
	return handle, errors.Join(errs...)
}

// FetchBaseline loads the snapshot published under name. Any failure, including
// a missing facts or risk-report artifact, yields nil.
func (a *Artifacts) FetchBaseline(ctx context.Context, name string) *schema.Snapshot {
	if a.store == nil || name == "" {
		return nil
	}
	snapshot, err := a.fetchBaseline(ctx, name)
	if err != nil {
		if errors.Is(err, contract.ErrArtifactNotFound) {
			contract.LogInfo("No baseline found, delta disabled", "baseline", name)
		} else {
			contract.LogWarn("Baseline unavailable, delta disabled", err, "baseline", name)
		}
		return nil
	}
	return snapshot
}

func (a *Artifacts) fetchBaseline(ctx context.Context, name string) (*schema.Snapshot, error) {
	factsPath, err := a.stage(ctx, schema.FactsArtifactName(name))
	if err != nil {
		return nil, err
	}
	riskPath, err := a.stage(ctx, schema.RiskArtifactName(name))
	if err != nil {
		return nil, err
	}

	factsJSON, err := os.ReadFile(factsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged baseline: %w", err)
	}
	riskJSON, err := os.ReadFile(riskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged baseline: %w", err)
	}
	return ParseSnapshot(factsJSON, riskJSON)
}

// stage downloads one artifact into the run scope and returns its path.
func (a *Artifacts) stage(ctx context.Context, artifact string) (string, error) {
	rec, err := a.store.Get(ctx, artifact)
	if err != nil {
		return "", err
	}
	path, err := a.scope.Path(artifact + ".json")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, rec.Content, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", artifact, err)
	}
	return path, nil
}

// LoadSnapshot reads a published snapshot without staging, for offline comparison.
func LoadSnapshot(ctx context.Context, store contract.BlobStore, name string) (*schema.Snapshot, error) {
	facts, err := store.Get(ctx, schema.FactsArtifactName(name))
	if err != nil {
		return nil, err
	}
	risk, err := store.Get(ctx, schema.RiskArtifactName(name))
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(facts.Content, risk.Content)
}
