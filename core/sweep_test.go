package core

import (
	"context"
	"testing"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/logging"
	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// twoClusters returns n points split evenly around (0,0) and (10,10).
func twoClusters(n int) *mat.Dense {
	x := mat.NewDense(n, 2, nil)
	for i := range n {
		base := 0.0
		if i >= n/2 {
			base = 10
		}
		off := float64(i%5) * 0.1
		x.Set(i, 0, base+off)
		x.Set(i, 1, base-off)
	}
	return x
}

func sweepConfig() *contract.Config {
	return &contract.Config{
		Seed:                 7,
		KMin:                 2,
		KMax:                 3,
		Restarts:             4,
		MaxIter:              50,
		DBSCANEps:            1,
		DBSCANMinPoints:      3,
		HierarchicalClusters: 2,
		HierarchicalSample:   20,
		Workers:              3,
	}
}

func TestRunSweep(t *testing.T) {
	sweep, err := RunSweep(context.Background(), sweepConfig(), twoClusters(30), logging.Nop())
	require.NoError(t, err)

	require.Len(t, sweep.Candidates, 2)
	k2 := sweep.Candidates[0]
	assert.Equal(t, 2, k2.K)
	assert.True(t, k2.Valid)
	assert.Greater(t, k2.Silhouette, 0.9)
	assert.GreaterOrEqual(t, k2.DaviesBouldin, 0.0)
	assert.Len(t, sweep.Labels[2], 30)

	assert.Equal(t, schema.DBSCANAlgorithm, sweep.DBSCAN.Algorithm)
	assert.Equal(t, 2, sweep.DBSCAN.NClusters)
	assert.Equal(t, 0, sweep.DBSCAN.NNoise)
	assert.Greater(t, sweep.DBSCAN.Silhouette, 0.9)

	assert.Equal(t, schema.HierarchicalAlgorithm, sweep.Hierarchical.Algorithm)
	assert.Equal(t, 20, sweep.Hierarchical.SampleSize)
	assert.Equal(t, 2, sweep.Hierarchical.NClusters)
	assert.Greater(t, sweep.Hierarchical.Silhouette, 0.9)
}

func TestRunSweep_KBeyondRowsIsInvalid(t *testing.T) {
	cfg := sweepConfig()
	cfg.KMin, cfg.KMax = 2, 8
	sweep, err := RunSweep(context.Background(), cfg, twoClusters(6), logging.Nop())
	require.NoError(t, err)

	last := sweep.Candidates[len(sweep.Candidates)-1]
	assert.Equal(t, 8, last.K)
	assert.False(t, last.Valid)
	assert.Equal(t, UncomputableScore, last.Silhouette)
	assert.Equal(t, UncomputableScore, last.DaviesBouldin)
	assert.Contains(t, last.Reason, "exceeds 6 rows")
	assert.NotContains(t, sweep.Labels, 8)
}

func TestRunSweep_SilhouetteSubsetIsDeterministic(t *testing.T) {
	cfg := sweepConfig()
	cfg.SilhouetteSample = 12

	first, err := RunSweep(context.Background(), cfg, twoClusters(40), logging.Nop())
	require.NoError(t, err)
	cfg.Workers = 1
	second, err := RunSweep(context.Background(), cfg, twoClusters(40), logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, first.Candidates, second.Candidates)
	assert.Equal(t, first.DBSCAN, second.DBSCAN)
}

func TestRunSweep_AllNoiseLeavesSilhouetteUncomputable(t *testing.T) {
	cfg := sweepConfig()
	cfg.DBSCANEps = 0.001
	cfg.DBSCANMinPoints = 10
	sweep, err := RunSweep(context.Background(), cfg, twoClusters(20), logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, sweep.DBSCAN.NClusters)
	assert.Equal(t, 20, sweep.DBSCAN.NNoise)
	assert.Equal(t, UncomputableScore, sweep.DBSCAN.Silhouette)
}

func TestRunSweep_Errors(t *testing.T) {
	_, err := RunSweep(context.Background(), sweepConfig(), &mat.Dense{}, logging.Nop())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunSweep(ctx, sweepConfig(), twoClusters(10), logging.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

// blobsWithOutliers returns n points spread near the origin followed by
// the given outlier points.
func blobsWithOutliers(n int, outliers ...[2]float64) *mat.Dense {
	x := mat.NewDense(n+len(outliers), 2, nil)
	for i := range n {
		x.Set(i, 0, float64(i%10)*0.01)
		x.Set(i, 1, float64(i/10)*0.01)
	}
	for i, o := range outliers {
		x.Set(n+i, 0, o[0])
		x.Set(n+i, 1, o[1])
	}
	return x
}

func TestRunSweep_SilhouetteSubsetKeepsSmallClusterValid(t *testing.T) {
	x := blobsWithOutliers(200, [2]float64{100, 100}, [2]float64{100.1, 100}, [2]float64{100, 100.1})
	cfg := sweepConfig()
	cfg.KMin, cfg.KMax = 2, 2

	full, err := RunSweep(context.Background(), cfg, x, logging.Nop())
	require.NoError(t, err)
	require.True(t, full.Candidates[0].Valid)

	for _, seed := range []uint64{1, 7, 42, 99} {
		cfg.Seed = seed
		cfg.SilhouetteSample = 50
		sampled, err := RunSweep(context.Background(), cfg, x, logging.Nop())
		require.NoError(t, err)
		cand := sampled.Candidates[0]
		assert.True(t, cand.Valid, "seed %d: %s", seed, cand.Reason)
		assert.Greater(t, cand.Silhouette, 0.9, "seed %d", seed)
	}
}

func TestRunSweep_SilhouetteSubsetCannotAdmitSingletonCluster(t *testing.T) {
	// Two tight blobs plus one far point: K=3 isolates the point.
	x := mat.NewDense(201, 2, nil)
	for i := range 200 {
		base := 0.0
		if i >= 100 {
			base = 10
		}
		x.Set(i, 0, base+float64(i%10)*0.01)
		x.Set(i, 1, base+float64(i%7)*0.01)
	}
	x.Set(200, 0, 500)
	x.Set(200, 1, 500)

	cfg := sweepConfig()
	cfg.KMin, cfg.KMax = 3, 3
	cfg.SilhouetteSample = 20

	sweep, err := RunSweep(context.Background(), cfg, x, logging.Nop())
	require.NoError(t, err)
	cand := sweep.Candidates[0]
	assert.False(t, cand.Valid)
	assert.Equal(t, UncomputableScore, cand.Silhouette)
	assert.Contains(t, cand.Reason, "has 1 member(s)")
}

func TestScorer_CoveringSubset(t *testing.T) {
	sc := &scorer{subset: []int{0, 1, 2, 5}}
	labels := []int{0, 0, 0, 1, 1, 1, -1, 2, 2}

	// Cluster 1 has one sampled row and cluster 2 none; noise is never added.
	assert.Equal(t, []int{0, 1, 2, 3, 5, 7, 8}, sc.coveringSubset(labels))
}
