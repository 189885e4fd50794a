package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/huangsam/patrolq/core"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/results"
	"github.com/huangsam/patrolq/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.TrackingManager
}

// bestModelView pairs the selection with the trials it was compared against.
type bestModelView struct {
	RunID        string                    `json:"run_id,omitempty"`
	Best         schema.BestKMeans         `json:"best_kmeans"`
	Inertia      float64                   `json:"inertia"`
	DBSCAN       schema.DBSCANResult       `json:"dbscan_results"`
	Hierarchical schema.HierarchicalResult `json:"hierarchical_results"`
}

// runView summarizes a finished pipeline run.
type runView struct {
	RunID         string  `json:"run_id,omitempty"`
	BestK         int     `json:"best_k"`
	Silhouette    float64 `json:"silhouette_score"`
	DaviesBouldin float64 `json:"davies_bouldin_score"`
	CleanedRows   int     `json:"cleaned_rows"`
	SampledRows   int     `json:"sampled_rows"`
	Clusters      int     `json:"clusters_profiled"`
	ResultsPath   string  `json:"results_path"`
	DimsPath      string  `json:"dimensionality_path"`
}

func (h *toolHandler) reader(request mcp.CallToolRequest) contract.ResultReader {
	dir := h.baseCfg.OutputDir
	if d := request.GetString("output_dir", ""); d != "" {
		dir = d
	}
	return results.NewStore(dir)
}

func (h *toolHandler) handleGetClusteringResults(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.reader(request).LoadResults()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading results failed: %v", err)), nil
	}
	return jsonResult(doc)
}

func (h *toolHandler) handleGetBestModel(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.reader(request).LoadResults()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading results failed: %v", err)), nil
	}
	view := bestModelView{
		RunID:        doc.RunID,
		Best:         doc.BestKMeans,
		DBSCAN:       doc.DBSCANResults,
		Hierarchical: doc.HierarchicalResults,
	}
	for _, r := range doc.KMeansResults {
		if r.K == doc.BestKMeans.K {
			view.Inertia = r.Inertia
			break
		}
	}
	return jsonResult(view)
}

func (h *toolHandler) handleGetDimensionality(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.reader(request).LoadDimensionality()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading dimensionality failed: %v", err)), nil
	}
	return jsonResult(doc)
}

func (h *toolHandler) handleGetClusterProfiles(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("limit cannot be negative (received %d)", limit)), nil
	}
	doc, err := h.reader(request).LoadResults()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading results failed: %v", err)), nil
	}

	profiles := append([]schema.ClusterProfile(nil), doc.ClusterProfiles...)
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Size > profiles[j].Size })
	if limit > 0 && limit < len(profiles) {
		profiles = profiles[:limit]
	}
	return jsonResult(profiles)
}

func (h *toolHandler) handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("input_path", ""); p != "" {
		cfg.InputPath = p
	}
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("input_path is required when no input is configured"), nil
	}
	cfg.KMin = request.GetInt("k_min", cfg.KMin)
	cfg.KMax = request.GetInt("k_max", cfg.KMax)
	if cfg.KMin < 2 || cfg.KMin > contract.MaxK {
		return mcp.NewToolResultError(fmt.Sprintf("k_min must be between 2 and %d (received %d)", contract.MaxK, cfg.KMin)), nil
	}
	if cfg.KMax < cfg.KMin || cfg.KMax > contract.MaxK {
		return mcp.NewToolResultError(fmt.Sprintf("k_max must be between k_min (%d) and %d (received %d)", cfg.KMin, contract.MaxK, cfg.KMax)), nil
	}
	if n := request.GetInt("sample_size", cfg.SampleSize); n >= 0 {
		cfg.SampleSize = n
	} else {
		return mcp.NewToolResultError(fmt.Sprintf("sample_size cannot be negative (received %d)", n)), nil
	}
	if seed := request.GetInt("seed", -1); seed >= 0 {
		cfg.Seed = uint64(seed)
	}

	output, err := core.GetPipelineResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}
	return jsonResult(runView{
		RunID:         output.RunID,
		BestK:         output.Best.Candidate.K,
		Silhouette:    output.Best.Candidate.Silhouette,
		DaviesBouldin: output.Best.Candidate.DaviesBouldin,
		CleanedRows:   output.CleanStats.CleanedRows,
		SampledRows:   output.Results.DatasetInfo.SampledRows,
		Clusters:      len(output.Profiles),
		ResultsPath:   output.ResultsPath,
		DimsPath:      output.DimsPath,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
