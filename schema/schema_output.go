package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FeatureScore pairs a feature name with its importance.
type FeatureScore struct {
	Feature string
	Score   float64
}

// FeatureImportance is an ordered feature ranking. It serializes as a JSON object
// whose keys keep the slice order, so a descending ranking stays descending on disk.
type FeatureImportance []FeatureScore

// MarshalJSON writes the ranking as an ordered JSON object.
func (fi FeatureImportance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fs := range fi {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fs.Feature)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fs.Score)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", fs.Feature, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an ordered JSON object, preserving document order.
func (fi *FeatureImportance) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("feature importance must be a JSON object")
	}
	out := FeatureImportance{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("feature importance key must be a string")
		}
		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("feature %q: %w", name, err)
		}
		out = append(out, FeatureScore{Feature: name, Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*fi = out
	return nil
}

// Lookup returns the score of a feature.
func (fi FeatureImportance) Lookup(feature string) (float64, bool) {
	for _, fs := range fi {
		if fs.Feature == feature {
			return fs.Score, true
		}
	}
	return 0, false
}

// DatasetInfo describes the data a run was fit on.
type DatasetInfo struct {
	OriginalShape [2]int   `json:"original_shape"`
	Features      []string `json:"features"`
	CleanedRows   int      `json:"cleaned_rows"`
	SampledRows   int      `json:"sampled_rows"`
}

// KMeansResult is one serialized partitioning-sweep trial.
type KMeansResult struct {
	K             int     `json:"k"`
	Silhouette    float64 `json:"silhouette_score"`
	DaviesBouldin float64 `json:"davies_bouldin_score"`
	Inertia       float64 `json:"inertia"`
	Valid         bool    `json:"valid"`
}

// BestKMeans is the serialized selection.
type BestKMeans struct {
	K             int     `json:"k"`
	Silhouette    float64 `json:"silhouette_score"`
	DaviesBouldin float64 `json:"davies_bouldin_score"`
}

// DBSCANResult is the serialized density-based trial.
type DBSCANResult struct {
	Silhouette float64 `json:"silhouette_score"`
	NClusters  int     `json:"n_clusters"`
	NNoise     int     `json:"n_noise"`
	Eps        float64 `json:"eps"`
	MinSamples int     `json:"min_samples"`
}

// HierarchicalResult is the serialized hierarchical trial.
type HierarchicalResult struct {
	Silhouette float64 `json:"silhouette_score"`
	NClusters  int     `json:"n_clusters"`
	Linkage    string  `json:"linkage"`
	SampleSize int     `json:"sample_size"`
}

// ClusterProfile is the geographic profile of one cluster of the best model.
type ClusterProfile struct {
	Cluster           int     `json:"cluster"`
	Size              int     `json:"size"`
	CentroidLatitude  float64 `json:"centroid_latitude"`
	CentroidLongitude float64 `json:"centroid_longitude"`
	MeanRadiusMeters  float64 `json:"mean_radius_m"`
	MaxRadiusMeters   float64 `json:"max_radius_m"`
	ArrestRate        float64 `json:"arrest_rate"`
	DominantCrimeType string  `json:"dominant_crime_type"`
	CellToken         string  `json:"cell_token"` // S2 cell containing the centroid
}

// ResultDocument is the clustering result artifact read by consumers.
type ResultDocument struct {
	RunID               string             `json:"run_id,omitempty"`
	GeneratedAt         time.Time          `json:"generated_at"`
	DatasetInfo         DatasetInfo        `json:"dataset_info"`
	KMeansResults       []KMeansResult     `json:"kmeans_results"`
	BestKMeans          BestKMeans         `json:"best_kmeans"`
	DBSCANResults       DBSCANResult       `json:"dbscan_results"`
	HierarchicalResults HierarchicalResult `json:"hierarchical_results"`
	FeatureImportance   FeatureImportance  `json:"feature_importance"`
	ClusterProfiles     []ClusterProfile   `json:"cluster_profiles,omitempty"`
}

// DimensionalityDocument is the principal component artifact read by consumers.
type DimensionalityDocument struct {
	PCAShape           [2]int            `json:"pca_shape"`
	ExplainedVariance  []float64         `json:"explained_variance"`
	CumulativeVariance []float64         `json:"cumulative_variance"`
	FeatureImportance  FeatureImportance `json:"feature_importance"`
}
