package contract

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/patrolq/schema"
)

// Default values for configuration.
const (
	DefaultSampleSize           = 50000
	DefaultSeed                 = 42
	DefaultKMin                 = 3
	DefaultKMax                 = 10
	MaxK                        = 100
	DefaultRestarts             = 10
	MaxRestarts                 = 100
	DefaultMaxIter              = 300
	DefaultComponents           = 3
	DefaultDBSCANEps            = 0.01
	DefaultDBSCANMinPoints      = 50
	DefaultHierarchicalClusters = 5
	DefaultHierarchicalSample   = 4000
	MaxHierarchicalSample       = 10000
	DefaultPrecision            = 4
	MaxPrecision                = 8
	DefaultOutputDir            = "data/processed"
	DefaultLogDir               = "logs"
	DefaultListen               = ":8080"
	DefaultKafkaTopic           = "patrolq.tracking"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// InfluxConfig holds the InfluxDB tracking sink settings.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether the InfluxDB sink is configured.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// KafkaConfig holds the Kafka tracking sink settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether the Kafka sink is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Config holds the runtime configuration for a pipeline run.
// This struct is the "final, validated" config.
type Config struct {
	InputPath string
	OutputDir string
	LogDir    string

	SampleSize           int
	Seed                 uint64
	KMin                 int
	KMax                 int
	Restarts             int
	MaxIter              int
	Components           int
	DBSCANEps            float64
	DBSCANMinPoints      int
	HierarchicalClusters int
	HierarchicalSample   int
	SilhouetteSample     int
	Workers              int
	CleanedParquet       bool

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	TrackingBackend   schema.DatabaseBackend
	TrackingDBConnect string // Please use env var as this is plaintext
	Influx            InfluxConfig
	Kafka             KafkaConfig

	Listen string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Input             string `mapstructure:"input"`
	OutputDir         string `mapstructure:"output-dir"`
	LogDir            string `mapstructure:"log-dir"`
	Workers           int    `mapstructure:"workers"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	TrackingBackend   string `mapstructure:"tracking-backend"`
	TrackingDBConnect string `mapstructure:"tracking-db-connect"`
	InfluxURL         string `mapstructure:"influx-url"`
	InfluxToken       string `mapstructure:"influx-token"`
	InfluxOrg         string `mapstructure:"influx-org"`
	InfluxBucket      string `mapstructure:"influx-bucket"`
	KafkaBrokers      string `mapstructure:"kafka-brokers"`
	KafkaTopic        string `mapstructure:"kafka-topic"`

	// --- Fields from runCmd.Flags() ---
	SampleSize           int     `mapstructure:"sample-size"`
	Seed                 int64   `mapstructure:"seed"`
	KMin                 int     `mapstructure:"k-min"`
	KMax                 int     `mapstructure:"k-max"`
	Restarts             int     `mapstructure:"restarts"`
	MaxIter              int     `mapstructure:"max-iter"`
	Components           int     `mapstructure:"components"`
	DBSCANEps            float64 `mapstructure:"dbscan-eps"`
	DBSCANMinPoints      int     `mapstructure:"dbscan-min-points"`
	HierarchicalClusters int     `mapstructure:"hierarchical-clusters"`
	HierarchicalSample   int     `mapstructure:"hierarchical-sample"`
	SilhouetteSample     int     `mapstructure:"silhouette-sample"`
	CleanedParquet       bool    `mapstructure:"cleaned-parquet"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Kafka.Brokers = slices.Clone(c.Kafka.Brokers)
	return &clone
}

// ResultsPath returns the location of the result document.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.OutputDir, schema.ResultsFile)
}

// DimensionalityPath returns the location of the dimensionality document.
func (c *Config) DimensionalityPath() string {
	return filepath.Join(c.OutputDir, schema.DimensionalityFile)
}

// CleanedPath returns the location of the cleaned dataset.
func (c *Config) CleanedPath() string {
	return filepath.Join(c.OutputDir, schema.CleanedCSVFile)
}

// Params returns the run parameters recorded by the tracking side-channel.
func (c *Config) Params() map[string]any {
	return map[string]any{
		"input":                 c.InputPath,
		"sample_size":           c.SampleSize,
		"seed":                  c.Seed,
		"k_min":                 c.KMin,
		"k_max":                 c.KMax,
		"n_init":                c.Restarts,
		"max_iter":              c.MaxIter,
		"n_components":          c.Components,
		"dbscan_eps":            c.DBSCANEps,
		"dbscan_min_samples":    c.DBSCANMinPoints,
		"hierarchical_clusters": c.HierarchicalClusters,
		"hierarchical_sample":   c.HierarchicalSample,
		"silhouette_sample":     c.SilhouetteSample,
		"workers":               c.Workers,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateSweepInputs(cfg, input); err != nil {
		return err
	}
	if err := validateAlternativeInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	processSinkConfigs(cfg, input)
	return resolveInputPath(cfg, input)
}

// ProcessServerConfig validates the same inputs as ProcessAndValidate, but the
// input path is optional: the MCP server can receive it per call.
func ProcessServerConfig(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateSweepInputs(cfg, input); err != nil {
		return err
	}
	if err := validateAlternativeInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	processSinkConfigs(cfg, input)
	if input.InputPathStr == "" && input.Input == "" {
		return nil
	}
	return resolveInputPath(cfg, input)
}

// ProcessReaderConfig validates the subset of inputs needed by commands that only
// read persisted documents (results, serve, mcp, report).
func ProcessReaderConfig(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if input.Listen == "" {
		cfg.Listen = DefaultListen
	} else {
		cfg.Listen = input.Listen
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("tracking-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("tracking-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend turns a raw backend string into a validated backend.
// An empty string disables tracking.
func ParseBackend(raw string) (schema.DatabaseBackend, error) {
	if raw == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(raw))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid tracking backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	cfg.LogDir = input.LogDir
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}
	return nil
}

// validateSweepInputs validates the partitioning sweep and reducer settings.
func validateSweepInputs(cfg *Config, input *ConfigRawInput) error {
	if input.SampleSize < 0 {
		return fmt.Errorf("sample-size cannot be negative (received %d)", input.SampleSize)
	}
	cfg.SampleSize = input.SampleSize

	if input.Seed < 0 {
		return fmt.Errorf("seed cannot be negative (received %d)", input.Seed)
	}
	cfg.Seed = uint64(input.Seed)

	if input.KMin < 2 || input.KMin > MaxK {
		return fmt.Errorf("k-min must be between 2 and %d (received %d)", MaxK, input.KMin)
	}
	if input.KMax < input.KMin || input.KMax > MaxK {
		return fmt.Errorf("k-max must be between k-min (%d) and %d (received %d)", input.KMin, MaxK, input.KMax)
	}
	cfg.KMin = input.KMin
	cfg.KMax = input.KMax

	if input.Restarts < 1 || input.Restarts > MaxRestarts {
		return fmt.Errorf("restarts must be between 1 and %d (received %d)", MaxRestarts, input.Restarts)
	}
	cfg.Restarts = input.Restarts

	if input.MaxIter < 1 {
		return fmt.Errorf("max-iter must be greater than 0 (received %d)", input.MaxIter)
	}
	cfg.MaxIter = input.MaxIter

	if input.Components < 1 || input.Components > len(schema.FeatureColumns) {
		return fmt.Errorf("components must be between 1 and %d (received %d)", len(schema.FeatureColumns), input.Components)
	}
	cfg.Components = input.Components

	if input.SilhouetteSample < 0 {
		return fmt.Errorf("silhouette-sample cannot be negative (received %d)", input.SilhouetteSample)
	}
	cfg.SilhouetteSample = input.SilhouetteSample
	cfg.CleanedParquet = input.CleanedParquet
	return nil
}

// validateAlternativeInputs validates the density-based and hierarchical trial settings.
func validateAlternativeInputs(cfg *Config, input *ConfigRawInput) error {
	if input.DBSCANEps <= 0 {
		return fmt.Errorf("dbscan-eps must be greater than 0 (received %g)", input.DBSCANEps)
	}
	cfg.DBSCANEps = input.DBSCANEps

	if input.DBSCANMinPoints < 1 {
		return fmt.Errorf("dbscan-min-points must be greater than 0 (received %d)", input.DBSCANMinPoints)
	}
	cfg.DBSCANMinPoints = input.DBSCANMinPoints

	if input.HierarchicalClusters < 2 {
		return fmt.Errorf("hierarchical-clusters must be at least 2 (received %d)", input.HierarchicalClusters)
	}
	cfg.HierarchicalClusters = input.HierarchicalClusters

	if input.HierarchicalSample < input.HierarchicalClusters || input.HierarchicalSample > MaxHierarchicalSample {
		return fmt.Errorf("hierarchical-sample must be between hierarchical-clusters (%d) and %d (received %d)",
			input.HierarchicalClusters, MaxHierarchicalSample, input.HierarchicalSample)
	}
	cfg.HierarchicalSample = input.HierarchicalSample
	return nil
}

// validateBackendConfigs validates the tracking backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.TrackingBackend)
	if err != nil {
		return err
	}
	cfg.TrackingBackend = backend
	cfg.TrackingDBConnect = input.TrackingDBConnect
	return ValidateDatabaseConnectionString(cfg.TrackingBackend, cfg.TrackingDBConnect)
}

// processSinkConfigs transfers the optional InfluxDB and Kafka sink settings.
func processSinkConfigs(cfg *Config, input *ConfigRawInput) {
	cfg.Influx = InfluxConfig{
		URL:    input.InfluxURL,
		Token:  input.InfluxToken,
		Org:    input.InfluxOrg,
		Bucket: input.InfluxBucket,
	}

	cfg.Kafka = KafkaConfig{Topic: input.KafkaTopic}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	for broker := range strings.SplitSeq(input.KafkaBrokers, ",") {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, trimmed)
		}
	}
}

// resolveInputPath picks the one authoritative input location.
// A positional argument wins over the --input flag.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	path := input.InputPathStr
	if path == "" {
		path = input.Input
	}
	if path == "" {
		return fmt.Errorf("an input CSV path is required (pass it as an argument or with --input)")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid input path %q: %w", path, err)
	}
	cfg.InputPath = filepath.Clean(abs)
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
