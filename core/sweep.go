package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/patrolq/core/algo"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/ingest"
	"github.com/huangsam/patrolq/schema"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// UncomputableScore marks a metric that could not be computed for a trial.
const UncomputableScore = schema.UncomputableScore

// scorer evaluates cluster quality on a fixed, deterministic subset of rows.
type scorer struct {
	points  [][]float64
	subset  []int // nil means every row
	workers int
}

func newScorer(x *mat.Dense, cfg *contract.Config) *scorer {
	s := &scorer{points: algo.Rows(x), workers: cfg.Workers}
	if cfg.SilhouetteSample > 0 && cfg.SilhouetteSample < len(s.points) {
		s.subset = ingest.SampleIndices(len(s.points), cfg.SilhouetteSample, cfg.Seed)
	}
	return s
}

// silhouette scores labels that line up with every row of the matrix.
// Validity is decided on the full labelling; the subset only bounds the cost
// and always keeps at least 2 members of every cluster.
func (s *scorer) silhouette(labels []int) (float64, error) {
	if err := algo.CheckSilhouette(labels); err != nil {
		return 0, err
	}
	if s.subset == nil {
		return algo.Silhouette(s.points, labels, s.workers)
	}
	idx := s.coveringSubset(labels)
	points := make([][]float64, len(idx))
	sub := make([]int, len(idx))
	for i, j := range idx {
		points[i], sub[i] = s.points[j], labels[j]
	}
	return algo.Silhouette(points, sub, s.workers)
}

// coveringSubset extends the sampled rows with the first unsampled members of
// any cluster that has fewer than 2 sampled rows. Noise rows are never added.
func (s *scorer) coveringSubset(labels []int) []int {
	inSubset := make(map[int]bool, len(s.subset))
	sampled := map[int]int{}
	for _, j := range s.subset {
		inSubset[j] = true
		if labels[j] >= 0 {
			sampled[labels[j]]++
		}
	}
	idx := append([]int(nil), s.subset...)
	for j, l := range labels {
		if l < 0 || inSubset[j] || sampled[l] >= 2 {
			continue
		}
		idx = append(idx, j)
		sampled[l]++
	}
	slices.Sort(idx)
	return idx
}

// RunSweep fits k-means for every K in the configured range, then runs the
// density-based and hierarchical trials. Uncomputable metrics invalidate a
// single trial and are logged; only cancellation and bad inputs abort the sweep.
func RunSweep(ctx context.Context, cfg *contract.Config, x *mat.Dense, logger *zap.SugaredLogger) (*schema.SweepResult, error) {
	rows, _ := x.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("sweep needs at least one row")
	}
	sc := newScorer(x, cfg)
	result := &schema.SweepResult{Labels: map[int][]int{}}

	for k := cfg.KMin; k <= cfg.KMax; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cand, labels, err := runKMeansTrial(ctx, cfg, x, sc, k)
		if err != nil {
			return nil, err
		}
		if cand.Valid {
			logger.Infow("kmeans trial", "k", k, "silhouette", cand.Silhouette,
				"davies_bouldin", cand.DaviesBouldin, "inertia", cand.Inertia, "iterations", cand.Iterations)
		} else {
			logger.Warnw("kmeans trial excluded", "k", k, "reason", cand.Reason)
		}
		result.Candidates = append(result.Candidates, cand)
		if labels != nil {
			result.Labels[k] = labels
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.DBSCAN = runDBSCANTrial(cfg, x, sc)
	logger.Infow("dbscan trial", "silhouette", result.DBSCAN.Silhouette,
		"clusters", result.DBSCAN.NClusters, "noise", result.DBSCAN.NNoise)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Hierarchical = runHierarchicalTrial(cfg, x)
	logger.Infow("hierarchical trial", "silhouette", result.Hierarchical.Silhouette,
		"clusters", result.Hierarchical.NClusters, "sample", result.Hierarchical.SampleSize)

	return result, nil
}

// runKMeansTrial fits one K. A K the data cannot support or an uncomputable
// silhouette yields an invalid candidate instead of an error.
func runKMeansTrial(ctx context.Context, cfg *contract.Config, x *mat.Dense, sc *scorer, k int) (schema.CandidateResult, []int, error) {
	cand := schema.CandidateResult{K: k, Silhouette: UncomputableScore, DaviesBouldin: UncomputableScore}
	rows, _ := x.Dims()
	if k > rows {
		cand.Reason = fmt.Sprintf("%v: k=%d exceeds %d rows", contract.ErrMetricUncomputable, k, rows)
		return cand, nil, nil
	}

	model, err := algo.FitKMeans(ctx, x, algo.KMeansOptions{
		K:        k,
		Restarts: cfg.Restarts,
		MaxIter:  cfg.MaxIter,
		Seed:     cfg.Seed,
		Workers:  cfg.Workers,
	})
	if err != nil {
		return cand, nil, err
	}
	cand.Inertia = model.Inertia
	cand.Iterations = model.Iterations

	if db, err := algo.DaviesBouldin(sc.points, model.Labels); err == nil {
		cand.DaviesBouldin = db
	}
	sil, err := sc.silhouette(model.Labels)
	if err != nil {
		if !errors.Is(err, contract.ErrMetricUncomputable) {
			return cand, nil, err
		}
		cand.Reason = err.Error()
		return cand, model.Labels, nil
	}
	cand.Silhouette = sil
	cand.Valid = true
	return cand, model.Labels, nil
}

// runDBSCANTrial clusters by density. The silhouette covers non-noise points only.
func runDBSCANTrial(cfg *contract.Config, x *mat.Dense, sc *scorer) schema.AlternativeResult {
	res := schema.AlternativeResult{
		Algorithm:  schema.DBSCANAlgorithm,
		Silhouette: UncomputableScore,
		Params: map[string]float64{
			"eps":         cfg.DBSCANEps,
			"min_samples": float64(cfg.DBSCANMinPoints),
		},
	}
	res.SampleSize, _ = x.Dims()
	out, err := algo.DBSCAN(x, algo.DBSCANOptions{
		Eps:       cfg.DBSCANEps,
		MinPoints: cfg.DBSCANMinPoints,
		Workers:   cfg.Workers,
	})
	if err != nil {
		return res
	}
	res.NClusters = out.NClusters
	res.NNoise = out.NNoise
	if res.SampleSize-out.NNoise < 2 {
		return res
	}
	if sil, err := sc.silhouette(out.Labels); err == nil {
		res.Silhouette = sil
	}
	return res
}

// runHierarchicalTrial cuts a Ward tree built on a deterministic subsample.
func runHierarchicalTrial(cfg *contract.Config, x *mat.Dense) schema.AlternativeResult {
	res := schema.AlternativeResult{
		Algorithm:  schema.HierarchicalAlgorithm,
		Silhouette: UncomputableScore,
		Params:     map[string]float64{"n_clusters": float64(cfg.HierarchicalClusters)},
	}
	rows, _ := x.Dims()
	idx := ingest.SampleIndices(rows, cfg.HierarchicalSample, cfg.Seed)
	res.SampleSize = len(idx)
	if len(idx) < cfg.HierarchicalClusters || len(idx) < 2 {
		return res
	}

	sub := algo.SelectRows(x, idx)
	labels, err := algo.Ward(sub, cfg.HierarchicalClusters, cfg.Workers)
	if err != nil {
		return res
	}
	res.NClusters = algo.CountClusters(labels)
	if sil, err := algo.Silhouette(algo.Rows(sub), labels, cfg.Workers); err == nil {
		res.Silhouette = sil
	}
	return res
}
