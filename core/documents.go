package core

import (
	"slices"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// buildResultDocument assembles the clustering result artifact from a finished run.
func buildResultDocument(output *schema.PipelineOutput, cfg *contract.Config, cleanedRows, sampledRows int) schema.ResultDocument {
	sweep := output.Sweep
	best := output.Best.Candidate

	kmeans := make([]schema.KMeansResult, len(sweep.Candidates))
	for i, c := range sweep.Candidates {
		kmeans[i] = schema.KMeansResult{
			K:             c.K,
			Silhouette:    c.Silhouette,
			DaviesBouldin: c.DaviesBouldin,
			Inertia:       c.Inertia,
			Valid:         c.Valid,
		}
	}

	return schema.ResultDocument{
		RunID:       output.RunID,
		GeneratedAt: time.Now().UTC(),
		DatasetInfo: schema.DatasetInfo{
			OriginalShape: [2]int{sampledRows, len(schema.CleanedColumns)},
			Features:      slices.Clone(schema.FeatureColumns),
			CleanedRows:   cleanedRows,
			SampledRows:   sampledRows,
		},
		KMeansResults: kmeans,
		BestKMeans: schema.BestKMeans{
			K:             best.K,
			Silhouette:    best.Silhouette,
			DaviesBouldin: best.DaviesBouldin,
		},
		DBSCANResults: schema.DBSCANResult{
			Silhouette: sweep.DBSCAN.Silhouette,
			NClusters:  sweep.DBSCAN.NClusters,
			NNoise:     sweep.DBSCAN.NNoise,
			Eps:        cfg.DBSCANEps,
			MinSamples: cfg.DBSCANMinPoints,
		},
		HierarchicalResults: schema.HierarchicalResult{
			Silhouette: sweep.Hierarchical.Silhouette,
			NClusters:  sweep.Hierarchical.NClusters,
			Linkage:    "ward",
			SampleSize: sweep.Hierarchical.SampleSize,
		},
		FeatureImportance: output.Dimensionality.FeatureImportance,
		ClusterProfiles:   output.Profiles,
	}
}

// buildDimensionalityDocument assembles the principal component artifact.
func buildDimensionalityDocument(d schema.DimensionalitySummary) *schema.DimensionalityDocument {
	return &schema.DimensionalityDocument{
		PCAShape:           [2]int{d.Rows, d.Components},
		ExplainedVariance:  d.ExplainedVariance,
		CumulativeVariance: d.CumulativeVariance,
		FeatureImportance:  d.FeatureImportance,
	}
}
