package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string

	// Algorithm represents a clustering algorithm evaluated by the sweep.
	Algorithm string

	// Stage represents a named step of the pipeline.
	Stage string
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// All tracking backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All clustering algorithms evaluated.
const (
	KMeansAlgorithm       Algorithm = "kmeans"
	DBSCANAlgorithm       Algorithm = "dbscan"
	HierarchicalAlgorithm Algorithm = "hierarchical"
)

// Pipeline stages, in execution order.
const (
	StageLoad     Stage = "load"
	StageClean    Stage = "clean"
	StagePersist  Stage = "persist-cleaned"
	StageSummary  Stage = "summary"
	StageSample   Stage = "sample"
	StageFeatures Stage = "features"
	StageScale    Stage = "scale"
	StageReduce   Stage = "reduce"
	StageSweep    Stage = "sweep"
	StageSelect   Stage = "select"
	StageProfile  Stage = "profile"
	StageStore    Stage = "store"
)

// Feature column names in their fixed matrix order.
const (
	FeatureLatitude      = "Latitude"
	FeatureLongitude     = "Longitude"
	FeatureHour          = "Hour"
	FeatureMonth         = "Month"
	FeatureIsWeekend     = "Is_Weekend"
	FeatureArrest        = "Arrest"
	FeatureDomestic      = "Domestic"
	FeatureCrimeSeverity = "Crime_Severity"
)

// FeatureColumns is the fixed column order shared by every matrix in a run.
var FeatureColumns = []string{
	FeatureLatitude,
	FeatureLongitude,
	FeatureHour,
	FeatureMonth,
	FeatureIsWeekend,
	FeatureArrest,
	FeatureDomestic,
	FeatureCrimeSeverity,
}

// CleanedColumns is the header of the persisted cleaned dataset.
var CleanedColumns = []string{
	"ID", "Case Number", "Date", "Block", "Primary Type", "Description",
	"Location Description", "Arrest", "Domestic", "District",
	"Latitude", "Longitude", "Hour", "Day", "Month", "Is_Weekend",
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
}

// ValidDatabaseBackends lists all valid tracking backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// UncomputableScore is the sentinel stored for a score that could not be computed.
const UncomputableScore = -1.0

// Default document file names inside the output directory.
const (
	CleanedCSVFile     = "crime_cleaned.csv"
	CleanedParquetFile = "crime_cleaned.parquet"
	ResultsFile        = "clustering_results.json"
	DimensionalityFile = "pca_results.json"
	SummaryFile        = "eda_summary.json"
	CrossTableFile     = "crime_summary.csv"
	ReportFile         = "report.html"
)
