// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the patrolq MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.TrackingManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Crime Clustering Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_clustering_results ---
	s.AddTool(mcp.NewTool("get_clustering_results",
		mcp.WithDescription("Read the latest clustering result document: the K sweep, the best model, the alternative algorithms and feature importance."),
		mcp.WithString("output_dir", mcp.Description("Directory holding the result documents (defaults to the configured output directory).")),
	), h.handleGetClusteringResults)

	// --- 2. Tool: get_best_model ---
	s.AddTool(mcp.NewTool("get_best_model",
		mcp.WithDescription("Report the selected K with its scores next to the density-based and hierarchical trials."),
		mcp.WithString("output_dir", mcp.Description("Directory holding the result documents.")),
	), h.handleGetBestModel)

	// --- 3. Tool: get_dimensionality ---
	s.AddTool(mcp.NewTool("get_dimensionality",
		mcp.WithDescription("Read the principal component summary: explained and cumulative variance per component."),
		mcp.WithString("output_dir", mcp.Description("Directory holding the result documents.")),
	), h.handleGetDimensionality)

	// --- 4. Tool: get_cluster_profiles ---
	s.AddTool(mcp.NewTool("get_cluster_profiles",
		mcp.WithDescription("List the geographic profile of each cluster of the best model, largest first."),
		mcp.WithString("output_dir", mcp.Description("Directory holding the result documents.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of clusters returned.")),
	), h.handleGetClusterProfiles)

	// --- 5. Tool: run_pipeline ---
	s.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run the clustering pipeline end to end and persist fresh result documents."),
		mcp.WithString("input_path", mcp.Description("Incident CSV to cluster (defaults to the configured input).")),
		mcp.WithNumber("k_min", mcp.Description("Smallest K of the sweep.")),
		mcp.WithNumber("k_max", mcp.Description("Largest K of the sweep.")),
		mcp.WithNumber("sample_size", mcp.Description("Rows sampled after cleaning (0 keeps every row).")),
		mcp.WithNumber("seed", mcp.Description("Random seed for sampling and restarts.")),
	), h.handleRunPipeline)

	return s
}

// StartMCPServer starts the patrolq MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.TrackingManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
