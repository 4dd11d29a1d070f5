package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/riskgate/core"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	mgr      contract.StoreManager
	resolver contract.VersionResolver
}

func (h *toolHandler) artifactStore() contract.BlobStore {
	if h.mgr == nil {
		return nil
	}
	return h.mgr.GetArtifactStore()
}

func (h *toolHandler) historyStore() contract.HistoryStore {
	if h.mgr == nil {
		return nil
	}
	return h.mgr.GetHistoryStore()
}

func (h *toolHandler) handleCompareArtifacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseline := request.GetString("baseline", "")
	current := request.GetString("current", "")
	if baseline == "" || current == "" {
		return mcp.NewToolResultError("baseline and current are required"), nil
	}
	strict := request.GetBool("strict_scope", h.baseCfg.StrictScope)

	store := h.artifactStore()
	if store == nil {
		return mcp.NewToolResultError("artifact store is not configured"), nil
	}

	baseSnap, err := core.LoadSnapshot(ctx, store, baseline)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load baseline %q: %v", baseline, err)), nil
	}
	curSnap, err := core.LoadSnapshot(ctx, store, current)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load snapshot %q: %v", current, err)), nil
	}

	result := core.BuildComparison(baseline, current, baseSnap, curSnap)
	if strict && !result.Summary.ScopeMatch {
		return mcp.NewToolResultError(fmt.Sprintf("scope mismatch: %s", result.Summary.ScopeWarning)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := h.historyStore()
	if store == nil {
		return mcp.NewToolResultError("history store is not configured"), nil
	}
	limit := request.GetInt("limit", 20)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}
	if runs == nil {
		runs = []schema.RunRecord{}
	}
	return jsonResult(runs)
}

func (h *toolHandler) handleListArtifacts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := h.artifactStore()
	if store == nil {
		return mcp.NewToolResultError("artifact store is not configured"), nil
	}
	infos, err := store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list artifacts: %v", err)), nil
	}
	if infos == nil {
		infos = []schema.ArtifactInfo{}
	}
	return jsonResult(infos)
}

func (h *toolHandler) handleResolveVersion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := request.GetString("spec", h.baseCfg.AnalyzerVersion)
	if h.resolver == nil {
		return mcp.NewToolResultError("version resolver is not configured"), nil
	}
	resolved := h.resolver.Resolve(ctx, spec)
	return jsonResult(map[string]string{
		"package":  h.baseCfg.AnalyzerPackage,
		"spec":     spec,
		"resolved": resolved,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Join(errors.New("failed to encode tool result"), err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
