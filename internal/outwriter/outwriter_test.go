package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *schema.ResultDocument {
	return &schema.ResultDocument{
		KMeansResults: []schema.KMeansResult{
			{K: 2, Silhouette: 0.81, DaviesBouldin: 0.3, Inertia: 12.5, Valid: true},
			{K: 3, Silhouette: 0.42, DaviesBouldin: 0.9, Inertia: 9.25, Valid: true},
			{K: 4, Silhouette: -1, DaviesBouldin: -1, Inertia: 8, Valid: false},
		},
		BestKMeans:          schema.BestKMeans{K: 2, Silhouette: 0.81, DaviesBouldin: 0.3},
		DBSCANResults:       schema.DBSCANResult{Silhouette: -1, NNoise: 100, Eps: 0.01, MinSamples: 50},
		HierarchicalResults: schema.HierarchicalResult{Silhouette: 0.66, NClusters: 5, Linkage: "ward", SampleSize: 100},
		FeatureImportance:   schema.FeatureImportance{{Feature: "Latitude", Score: 0.5}},
		ClusterProfiles: []schema.ClusterProfile{
			{Cluster: 0, Size: 60, CentroidLatitude: 41.8, CentroidLongitude: -87.6, MeanRadiusMeters: 812,
				ArrestRate: 0.25, DominantCrimeType: "OFFENSE INVOLVING CHILDREN AND OTHER VERY LONG NAMES", CellToken: "880e2c"},
		},
	}
}

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{Output: output, OutputFile: file, Precision: 2, Width: 100, Workers: 2}
}

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 0", 0, 3.14159, "3"},
		{"precision 4", 4, 3.14159, "3.1416"},
		{"negative value", 2, -42.567, "-42.57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestFmtScore(t *testing.T) {
	fmtFloat, _ := createFormatters(3)
	assert.Equal(t, "n/a", fmtScore(fmtFloat, -1))
	assert.Equal(t, "-0.250", fmtScore(fmtFloat, -0.25))
	assert.Equal(t, "0.500", fmtScore(fmtFloat, 0.5))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "THEFT", truncateText("THEFT", 12))
	assert.Equal(t, "OFFENSE I...", truncateText("OFFENSE INVOLVING CHILDREN", 12))
	assert.Equal(t, "ab", truncateText("ab", 1))
}

func TestGetMaxTableTextWidth(t *testing.T) {
	assert.Equal(t, 12, getMaxTableTextWidth(&contract.Config{Width: 60}))
	assert.Equal(t, 15, getMaxTableTextWidth(&contract.Config{Width: 100}))
	assert.Equal(t, 40, getMaxTableTextWidth(&contract.Config{Width: 300}))
}

func TestWriteResultTables(t *testing.T) {
	var buf bytes.Buffer
	fmtFloat, intFmt := createFormatters(2)
	require.NoError(t, writeResultTables(&buf, testDoc(), testConfig(schema.TextOut, ""), fmtFloat, intFmt))

	out := buf.String()
	assert.Contains(t, out, "0.81")
	assert.Contains(t, out, contract.StrongValue)
	assert.Contains(t, out, contract.InvalidValue)
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "Best model: K=2 silhouette 0.81 (Strong)")
	assert.Contains(t, out, "DBSCAN (eps=0.01, min_samples=50): silhouette n/a, clusters 0, noise 100")
	assert.Contains(t, out, "Hierarchical (ward, sample 100): silhouette 0.66, clusters 5")
	assert.Contains(t, out, "880e2c")
	assert.NotContains(t, out, "VERY LONG NAMES", "long crime types are truncated")
}

func TestPrintResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, PrintResults(testDoc(), testConfig(schema.JSONOut, path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded schema.ResultDocument
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded.BestKMeans.K)
	assert.Len(t, decoded.KMeansResults, 3)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \""), "two-space indentation")
}

func TestPrintResultsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.csv")
	require.NoError(t, PrintResults(testDoc(), testConfig(schema.CSVOut, path)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, sweepCSVHeader, rows[0])
	assert.Equal(t, []string{"2", "0.81", "0.30", "12.50", "true", "Strong", "true"}, rows[1])
	assert.Equal(t, []string{"4", "-1.00", "-1.00", "8.00", "false", "Invalid", "false"}, rows[3])
}

func TestPrintRunResultsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	output := &schema.PipelineOutput{
		CleanStats:  schema.CleanStats{RawRows: 10, MissingCoordinates: 1, CleanedRows: 9},
		Results:     *testDoc(),
		ResultsPath: "out/clustering_results.json",
		DimsPath:    "out/pca_results.json",
	}
	cfg := testConfig(schema.TextOut, path)
	cfg.TrackingBackend = schema.NoneBackend
	require.NoError(t, PrintRunResults(output, cfg, 1500*time.Millisecond))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Cleaned 9 of 10 rows (missing coordinates: 1, unparsable dates: 0)")
	assert.Contains(t, out, "Results written to out/clustering_results.json and out/pca_results.json")
	assert.Contains(t, out, "Pipeline completed in 1.5s with 2 workers. Tracking backend: none")
}

func TestPrintDimensionality(t *testing.T) {
	doc := &schema.DimensionalityDocument{
		PCAShape:           [2]int{100, 2},
		ExplainedVariance:  []float64{0.6, 0.3},
		CumulativeVariance: []float64{0.6, 0.9},
		FeatureImportance:  schema.FeatureImportance{{Feature: "Hour", Score: 0.7}, {Feature: "Month", Score: 0.1}},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		fmtFloat, _ := createFormatters(2)
		require.NoError(t, writeDimensionalityTables(&buf, doc, fmtFloat))
		out := buf.String()
		assert.Contains(t, out, "Projected shape: 100 x 2")
		assert.Contains(t, out, "PC2")
		assert.Contains(t, out, "0.90")
		assert.Less(t, strings.Index(out, "Hour"), strings.Index(out, "Month"))
	})

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dims.csv")
		require.NoError(t, PrintDimensionality(doc, testConfig(schema.CSVOut, path)))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "rank,feature,importance\n1,Hour,0.70\n2,Month,0.10\n", string(data))
	})
}

func TestWriteWithFileBadPath(t *testing.T) {
	err := writeWithFile(filepath.Join(t.TempDir(), "missing", "out.txt"), func(w io.Writer) error { return nil }, "Wrote")
	assert.Error(t, err)
}
