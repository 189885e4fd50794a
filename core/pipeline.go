package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/patrolq/core/algo"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/features"
	"github.com/huangsam/patrolq/internal/geo"
	"github.com/huangsam/patrolq/internal/ingest"
	"github.com/huangsam/patrolq/internal/parquet"
	"github.com/huangsam/patrolq/internal/results"
	"github.com/huangsam/patrolq/schema"
	"go.uber.org/zap"
)

// RunName is the name every tracked pipeline run is recorded under.
const RunName = "crime-clustering"

// RunPipeline executes every stage in order: load, clean, persist the cleaned
// dataset, summarize, sample, build features, scale, reduce, sweep, select,
// profile and store. The first fatal error stops the run and is returned
// tagged with its stage. Tracking failures are logged and never fatal.
func RunPipeline(ctx context.Context, cfg *contract.Config, tracker contract.Tracker, logger *zap.SugaredLogger) (*schema.PipelineOutput, error) {
	rt := startRun(tracker, logger, time.Now())
	rt.params(cfg.Params())
	ctx = withRunID(ctx, rt.runID)

	output, err := runStages(ctx, cfg, rt, logger)
	if err != nil {
		logger.Errorw("pipeline failed", "run_id", rt.runID, "error", err)
		rt.end(schema.RunStatusFailed, 0)
		return nil, err
	}
	rt.end(schema.RunStatusFinished, output.Results.DatasetInfo.SampledRows)
	logger.Infow("pipeline finished", "run_id", rt.runID, "best_k", output.Best.Candidate.K,
		"silhouette", output.Best.Candidate.Silhouette)
	return output, nil
}

func runStages(ctx context.Context, cfg *contract.Config, rt *runTracker, logger *zap.SugaredLogger) (*schema.PipelineOutput, error) {
	output := &schema.PipelineOutput{RunID: runIDFromContext(ctx)}

	// --- 1. Load and clean ---
	raw, err := ingest.LoadIncidents(ctx, cfg.InputPath)
	if err != nil {
		return nil, contract.WrapStage(schema.StageLoad, err)
	}
	logger.Infow("loaded incidents", "path", cfg.InputPath, "rows", len(raw))

	cleaned, stats, err := ingest.Clean(raw)
	output.CleanStats = stats
	rt.metric("raw_rows", float64(stats.RawRows), 0)
	rt.metric("excluded_missing_coordinates", float64(stats.MissingCoordinates), 0)
	rt.metric("excluded_unparsable_dates", float64(stats.UnparsableDates), 0)
	if err != nil {
		return nil, contract.WrapStage(schema.StageClean, err)
	}
	rt.metric("cleaned_rows", float64(stats.CleanedRows), 0)
	logger.Infow("cleaned incidents", "kept", stats.CleanedRows,
		"missing_coordinates", stats.MissingCoordinates, "unparsable_dates", stats.UnparsableDates)

	// --- 2. Persist the cleaned dataset and its summary ---
	if err := persistCleaned(ctx, cfg, cleaned, logger); err != nil {
		return nil, contract.WrapStage(schema.StagePersist, err)
	}
	output.CleanedPath = cfg.CleanedPath()

	output.Summary = features.Summarize(cleaned)
	if err := features.SaveSummary(
		filepath.Join(cfg.OutputDir, schema.SummaryFile),
		filepath.Join(cfg.OutputDir, schema.CrossTableFile),
		output.Summary,
	); err != nil {
		return nil, contract.WrapStage(schema.StageSummary, err)
	}
	rt.metric("arrest_rate", output.Summary.ArrestRate, 0)
	rt.metric("domestic_rate", output.Summary.DomesticRate, 0)

	// --- 3. Sample, build features and scale ---
	if err := ctx.Err(); err != nil {
		return nil, contract.WrapStage(schema.StageSample, err)
	}
	sampled := ingest.Sample(cleaned, cfg.SampleSize, cfg.Seed)
	rt.metric("sampled_rows", float64(len(sampled)), 0)
	logger.Infow("sampled incidents", "rows", len(sampled), "seed", cfg.Seed)

	x := features.Build(sampled)
	rows, cols := x.Dims()
	scaler, scaled, err := algo.FitTransform(x)
	if err != nil {
		return nil, contract.WrapStage(schema.StageScale, err)
	}
	logger.Debugw("scaler fitted", "features", schema.FeatureColumns,
		"mean", scaler.Mean(), "scale", scaler.Scale())

	// --- 4. Reduce, validated before any clustering work ---
	if err := algo.ValidateComponents(rows, cols, cfg.Components); err != nil {
		return nil, contract.WrapStage(schema.StageReduce, err)
	}
	pca, err := algo.ReducePCA(scaled, cfg.Components, schema.FeatureColumns)
	if err != nil {
		return nil, contract.WrapStage(schema.StageReduce, err)
	}
	for i, v := range pca.ExplainedVariance {
		rt.metric("explained_variance", v, i+1)
	}
	logger.Infow("reduced dimensionality", "components", cfg.Components,
		"cumulative_variance", pca.CumulativeVariance[len(pca.CumulativeVariance)-1])
	output.Dimensionality = schema.DimensionalitySummary{
		Rows:               rows,
		Components:         cfg.Components,
		ExplainedVariance:  pca.ExplainedVariance,
		CumulativeVariance: pca.CumulativeVariance,
		FeatureImportance:  pca.FeatureImportance,
	}

	// --- 5. Sweep and select ---
	sweep, err := RunSweep(ctx, cfg, scaled, logger)
	if err != nil {
		return nil, contract.WrapStage(schema.StageSweep, err)
	}
	output.Sweep = *sweep
	logSweepMetrics(rt, sweep)

	best, err := SelectBest(sweep)
	if err != nil {
		return nil, contract.WrapStage(schema.StageSelect, err)
	}
	output.Best = *best
	rt.metric("best_k", float64(best.Candidate.K), 0)
	rt.metric("best_silhouette", best.Candidate.Silhouette, 0)

	// --- 6. Profile and store ---
	if err := ctx.Err(); err != nil {
		return nil, contract.WrapStage(schema.StageProfile, err)
	}
	output.Profiles = geo.Profiles(sampled, best.Labels)

	output.Results = buildResultDocument(output, cfg, len(cleaned), len(sampled))
	dims := buildDimensionalityDocument(output.Dimensionality)
	store := results.NewStore(cfg.OutputDir)
	if err := store.SaveDimensionality(dims); err != nil {
		return nil, contract.WrapStage(schema.StageStore, err)
	}
	if err := store.SaveResults(&output.Results); err != nil {
		return nil, contract.WrapStage(schema.StageStore, err)
	}
	output.ResultsPath = store.ResultsPath()
	output.DimsPath = store.DimensionalityPath()
	logger.Infow("stored documents", "results", output.ResultsPath, "dimensionality", output.DimsPath)
	return output, nil
}

// persistCleaned writes the cleaned CSV and, when enabled, its Parquet copy.
func persistCleaned(ctx context.Context, cfg *contract.Config, cleaned []schema.CleanedRecord, logger *zap.SugaredLogger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ingest.WriteCleaned(cfg.CleanedPath(), cleaned); err != nil {
		return err
	}
	logger.Infow("saved cleaned dataset", "path", cfg.CleanedPath())
	if !cfg.CleanedParquet {
		return nil
	}
	path := filepath.Join(cfg.OutputDir, schema.CleanedParquetFile)
	if err := parquet.WriteCleanedParquet(cleaned, path); err != nil {
		return err
	}
	logger.Infow("saved cleaned dataset", "path", path)
	return nil
}

// logSweepMetrics records per-K and alternative trial metrics. K is the step.
func logSweepMetrics(rt *runTracker, sweep *schema.SweepResult) {
	for _, c := range sweep.Candidates {
		rt.metric("silhouette", c.Silhouette, c.K)
		rt.metric("davies_bouldin", c.DaviesBouldin, c.K)
		rt.metric("inertia", c.Inertia, c.K)
	}
	rt.metric("dbscan_silhouette", sweep.DBSCAN.Silhouette, 0)
	rt.metric("dbscan_n_clusters", float64(sweep.DBSCAN.NClusters), 0)
	rt.metric("dbscan_n_noise", float64(sweep.DBSCAN.NNoise), 0)
	rt.metric("hierarchical_silhouette", sweep.Hierarchical.Silhouette, 0)
}

// runTracker forwards to the tracking side-channel for one run and turns
// every failure into a warning.
type runTracker struct {
	tracker contract.Tracker
	logger  *zap.SugaredLogger
	runID   string
	active  bool
}

// startRun opens a run on tracker. Without a tracker, or when no ID comes
// back, the run still gets a local ID so documents and logs can be correlated.
// A partial failure that still yields an ID keeps tracking active.
func startRun(tracker contract.Tracker, logger *zap.SugaredLogger, start time.Time) *runTracker {
	rt := &runTracker{tracker: tracker, logger: logger}
	if tracker != nil {
		id, err := tracker.StartRun(RunName, start)
		if err != nil {
			rt.warn("StartRun", err)
		}
		if id != "" {
			rt.runID, rt.active = id, true
			return rt
		}
	}
	rt.runID = uuid.NewString()
	return rt
}

func (rt *runTracker) params(p map[string]any) {
	if !rt.active {
		return
	}
	if err := rt.tracker.LogParams(rt.runID, p); err != nil {
		rt.warn("LogParams", err)
	}
}

func (rt *runTracker) metric(key string, value float64, step int) {
	if !rt.active {
		return
	}
	if err := rt.tracker.LogMetric(rt.runID, key, value, step); err != nil {
		rt.warn(fmt.Sprintf("LogMetric(%s)", key), err)
	}
}

func (rt *runTracker) end(status string, rows int) {
	if !rt.active {
		return
	}
	if err := rt.tracker.EndRun(rt.runID, time.Now(), status, rows); err != nil {
		rt.warn("EndRun", err)
	}
}

func (rt *runTracker) warn(operation string, err error) {
	rt.logger.Warnw("run tracking failed", "operation", operation, "error", err)
}
