package results

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() *schema.ResultDocument {
	return &schema.ResultDocument{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DatasetInfo: schema.DatasetInfo{
			OriginalShape: [2]int{100, 16},
			Features:      schema.FeatureColumns,
			CleanedRows:   120,
			SampledRows:   100,
		},
		KMeansResults: []schema.KMeansResult{
			{K: 2, Silhouette: 0.8123456789, DaviesBouldin: 0.31, Inertia: 40.5, Valid: true},
			{K: 3, Silhouette: 0.55, DaviesBouldin: 0.72, Inertia: 30.25, Valid: true},
			{K: 4, Silhouette: -1, DaviesBouldin: -1, Inertia: 25, Valid: false},
		},
		BestKMeans:          schema.BestKMeans{K: 2, Silhouette: 0.8123456789, DaviesBouldin: 0.31},
		DBSCANResults:       schema.DBSCANResult{Silhouette: -1, NClusters: 0, NNoise: 100, Eps: 0.01, MinSamples: 50},
		HierarchicalResults: schema.HierarchicalResult{Silhouette: 0.77, NClusters: 5, Linkage: "ward", SampleSize: 100},
		FeatureImportance: schema.FeatureImportance{
			{Feature: "Latitude", Score: 0.61},
			{Feature: "Longitude", Score: 0.58},
			{Feature: "Hour", Score: 0.1},
		},
		ClusterProfiles: []schema.ClusterProfile{{Cluster: 0, Size: 50, CentroidLatitude: 41.8}},
	}
}

func sampleDims() *schema.DimensionalityDocument {
	return &schema.DimensionalityDocument{
		PCAShape:           [2]int{100, 3},
		ExplainedVariance:  []float64{0.4, 0.25, 0.15},
		CumulativeVariance: []float64{0.4, 0.65, 0.8},
		FeatureImportance:  schema.FeatureImportance{{Feature: "Hour", Score: 0.9}, {Feature: "Month", Score: 0.2}},
	}
}

func TestResultsRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	want := sampleResults()
	require.NoError(t, store.SaveResults(want))

	got, err := store.LoadResults()
	require.NoError(t, err)

	require.Len(t, got.KMeansResults, len(want.KMeansResults))
	for i := range want.KMeansResults {
		assert.Equal(t, want.KMeansResults[i].K, got.KMeansResults[i].K)
		assert.InDelta(t, want.KMeansResults[i].Silhouette, got.KMeansResults[i].Silhouette, 1e-12)
		assert.InDelta(t, want.KMeansResults[i].DaviesBouldin, got.KMeansResults[i].DaviesBouldin, 1e-12)
		assert.Equal(t, want.KMeansResults[i].Valid, got.KMeansResults[i].Valid)
	}
	assert.Equal(t, want.BestKMeans, got.BestKMeans)
	assert.Equal(t, want.DBSCANResults, got.DBSCANResults)
	assert.Equal(t, want.HierarchicalResults, got.HierarchicalResults)
	assert.Equal(t, want.FeatureImportance, got.FeatureImportance)
	assert.Equal(t, want.DatasetInfo, got.DatasetInfo)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	assert.Len(t, got.ClusterProfiles, 1)
}

func TestResultsKeyLayout(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveResults(sampleResults()))

	data, err := os.ReadFile(store.ResultsPath())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range resultKeys {
		assert.Contains(t, raw, key)
	}
	// Feature importance keeps its descending order on disk.
	fi := string(raw["feature_importance"])
	assert.Less(t, strings.Index(fi, "Latitude"), strings.Index(fi, "Longitude"))
	assert.Less(t, strings.Index(fi, "Longitude"), strings.Index(fi, "Hour"))
}

func TestDimensionalityRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	want := sampleDims()
	require.NoError(t, store.SaveDimensionality(want))

	got, err := store.LoadDimensionality()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingDocuments(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadResults()
	assert.ErrorIs(t, err, contract.ErrResultsNotFound)

	_, err = store.LoadDimensionality()
	assert.ErrorIs(t, err, contract.ErrResultsNotFound)
}

func TestValidateResultsMissingKeys(t *testing.T) {
	full, err := json.Marshal(sampleResults())
	require.NoError(t, err)
	require.NoError(t, ValidateResults(full))

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   string
	}{
		{"missing top-level key", func(m map[string]any) { delete(m, "best_kmeans") }, "best_kmeans"},
		{"null top-level key", func(m map[string]any) { m["dbscan_results"] = nil }, "dbscan_results"},
		{"missing sweep key", func(m map[string]any) {
			rows := m["kmeans_results"].([]any)
			delete(rows[1].(map[string]any), "davies_bouldin_score")
		}, "kmeans_results[1]"},
		{"missing best silhouette", func(m map[string]any) {
			delete(m["best_kmeans"].(map[string]any), "silhouette_score")
		}, "best_kmeans"},
		{"sweep not an array", func(m map[string]any) { m["kmeans_results"] = "oops" }, "kmeans_results"},
		{"hierarchical silhouette missing", func(m map[string]any) {
			delete(m["hierarchical_results"].(map[string]any), "silhouette_score")
		}, "hierarchical_results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m map[string]any
			require.NoError(t, json.Unmarshal(full, &m))
			tt.mutate(m)
			data, err := json.Marshal(m)
			require.NoError(t, err)

			err = ValidateResults(data)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrMalformedDocument)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMalformedDocuments(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.ResultsPath(), []byte(`{"kmeans_results": [`), 0o644))
	require.NoError(t, os.WriteFile(store.DimensionalityPath(), []byte(`{"explained_variance": [0.5]}`), 0o644))

	_, err := store.LoadResults()
	assert.ErrorIs(t, err, contract.ErrMalformedDocument)

	_, err = store.LoadDimensionality()
	assert.ErrorIs(t, err, contract.ErrMalformedDocument)
}

func TestSaveFailureLeavesNoDocument(t *testing.T) {
	store := NewStore(t.TempDir())
	doc := sampleResults()
	doc.KMeansResults[0].Silhouette = math.NaN()

	err := store.SaveResults(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrPersistenceFailure)

	_, statErr := os.Stat(store.ResultsPath())
	assert.True(t, os.IsNotExist(statErr))
}
