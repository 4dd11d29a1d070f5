// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Riskgate MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, resolver contract.VersionResolver) *server.MCPServer {
	s := server.NewMCPServer(
		"Riskgate Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		mgr:      mgr,
		resolver: resolver,
	}

	// --- 1. Tool: compare_artifacts ---
	s.AddTool(mcp.NewTool("compare_artifacts",
		mcp.WithDescription("Compare the findings of two published runs and report new, resolved and unchanged findings."),
		mcp.WithString("baseline", mcp.Description("Base artifact name of the baseline run (e.g., 'main')."), mcp.Required()),
		mcp.WithString("current", mcp.Description("Base artifact name of the run to compare (e.g., 'pr-42')."), mcp.Required()),
		mcp.WithBoolean("strict_scope", mcp.Description("Fail when the two runs cover different commit ranges.")),
	), h.handleCompareArtifacts)

	// --- 2. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleListRuns)

	// --- 3. Tool: list_artifacts ---
	s.AddTool(mcp.NewTool("list_artifacts",
		mcp.WithDescription("List published artifacts, newest first."),
	), h.handleListArtifacts)

	// --- 4. Tool: resolve_analyzer_version ---
	s.AddTool(mcp.NewTool("resolve_analyzer_version",
		mcp.WithDescription("Resolve an analyzer version spec (dist-tag or range) to a concrete version."),
		mcp.WithString("spec", mcp.Description("Version spec such as 'latest', '^1.2' or '1.4.2'. Defaults to the configured version.")),
	), h.handleResolveVersion)

	return s
}

// StartMCPServer starts the Riskgate MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, resolver contract.VersionResolver) error {
	s := NewMCPServer(baseCfg, mgr, resolver)
	return server.ServeStdio(s)
}
