package schema

// CandidateResult is one partitioning-sweep trial.
// Valid is false when the silhouette could not be computed; such a
// candidate never takes part in selection.
type CandidateResult struct {
	K             int
	Silhouette    float64
	DaviesBouldin float64
	Inertia       float64
	Iterations    int
	Valid         bool
	Reason        string // why the candidate is invalid, empty when valid
}

// AlternativeResult is a single density-based or hierarchical trial.
type AlternativeResult struct {
	Algorithm  Algorithm
	Silhouette float64 // -1 when not computable
	NClusters  int
	NNoise     int
	SampleSize int
	Params     map[string]float64
}

// SweepResult gathers everything the sweep engine produced.
type SweepResult struct {
	Candidates   []CandidateResult
	Labels       map[int][]int // K -> best-of-restarts labels
	DBSCAN       AlternativeResult
	Hierarchical AlternativeResult
}

// BestModel is the selected candidate with its label assignment.
type BestModel struct {
	Candidate CandidateResult
	Labels    []int
}

// DimensionalitySummary is the reducer output without the projected matrix.
type DimensionalitySummary struct {
	Rows               int
	Components         int
	ExplainedVariance  []float64
	CumulativeVariance []float64
	FeatureImportance  FeatureImportance
}

// PipelineOutput is what one full pipeline run returns to its caller.
type PipelineOutput struct {
	RunID          string
	CleanStats     CleanStats
	Summary        CrimeSummary
	Sweep          SweepResult
	Best           BestModel
	Dimensionality DimensionalitySummary
	Profiles       []ClusterProfile
	Results        ResultDocument
	ResultsPath    string
	DimsPath       string
	CleanedPath    string
}
