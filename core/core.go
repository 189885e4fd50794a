// Package core has the pipeline orchestration: the cluster sweep, model
// selection and the end-to-end run that produces the result documents.
package core

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/logging"
	"github.com/huangsam/patrolq/internal/outwriter"
	"github.com/huangsam/patrolq/internal/results"
	"github.com/huangsam/patrolq/schema"
)

// ExecutorFunc defines the function signature for executing different command modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.TrackingManager) error

// ExecutePipeline runs the full pipeline and prints the outcome.
// It serves as the main entry point for the 'run' command.
func ExecutePipeline(ctx context.Context, cfg *contract.Config, mgr contract.TrackingManager) error {
	start := time.Now()
	output, err := GetPipelineResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRun(output, cfg, time.Since(start))
}

// GetPipelineResults runs the full pipeline with the manager's tracker and
// returns its output without printing it. Console logging is skipped when
// the context suppresses headers.
func GetPipelineResults(ctx context.Context, cfg *contract.Config, mgr contract.TrackingManager) (*schema.PipelineOutput, error) {
	var console io.Writer = os.Stderr
	if shouldSuppressHeader(ctx) {
		console = nil
	}
	logger, closeLog, err := logging.New(logging.Options{Dir: cfg.LogDir, Console: console})
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeLog() }()

	logger.Infow("starting pipeline", "input", cfg.InputPath, "output_dir", cfg.OutputDir,
		"k_range", []int{cfg.KMin, cfg.KMax}, "workers", cfg.Workers)

	var tracker contract.Tracker
	if mgr != nil {
		tracker = mgr.GetTracker()
	}
	return RunPipeline(ctx, cfg, tracker, logger)
}

// ExecuteResults prints the persisted result document.
// It serves as the main entry point for the 'results' command.
func ExecuteResults(_ context.Context, cfg *contract.Config, _ contract.TrackingManager) error {
	doc, err := results.NewStore(cfg.OutputDir).LoadResults()
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteResults(doc, cfg)
}

// ExecuteDimensionality prints the persisted dimensionality document.
// It serves as the main entry point for the 'results dimensionality' command.
func ExecuteDimensionality(_ context.Context, cfg *contract.Config, _ contract.TrackingManager) error {
	doc, err := results.NewStore(cfg.OutputDir).LoadDimensionality()
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteDimensionality(doc, cfg)
}
