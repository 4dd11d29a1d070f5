package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/outwriter"
)

// ExecuteCompare loads two published snapshots and prints their delta.
// It serves as the main entry point for the 'compare' command.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, store contract.BlobStore, baselineName, currentName string) error {
	start := time.Now()
	if store == nil {
		return fmt.Errorf("artifact store is not configured")
	}

	baseline, err := LoadSnapshot(ctx, store, baselineName)
	if err != nil {
		return fmt.Errorf("failed to load baseline %q: %w", baselineName, err)
	}
	current, err := LoadSnapshot(ctx, store, currentName)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %q: %w", currentName, err)
	}

	result := BuildComparison(baselineName, currentName, baseline, current)
	if cfg.StrictScope && !result.Summary.ScopeMatch {
		return fmt.Errorf("%w: %s", ErrScopeMismatch, result.Summary.ScopeWarning)
	}
	return outwriter.PrintComparisonResults(result, cfg, time.Since(start))
}
