package contract

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRawInput returns raw input that passes validation with all defaults.
func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		InputPathStr:         "data/raw/crimes.csv",
		Workers:              4,
		Output:               "text",
		Precision:            DefaultPrecision,
		Color:                "yes",
		TrackingBackend:      "sqlite",
		SampleSize:           DefaultSampleSize,
		Seed:                 DefaultSeed,
		KMin:                 DefaultKMin,
		KMax:                 DefaultKMax,
		Restarts:             DefaultRestarts,
		MaxIter:              DefaultMaxIter,
		Components:           DefaultComponents,
		DBSCANEps:            DefaultDBSCANEps,
		DBSCANMinPoints:      DefaultDBSCANMinPoints,
		HierarchicalClusters: DefaultHierarchicalClusters,
		HierarchicalSample:   DefaultHierarchicalSample,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError string
	}{
		{
			name:   "valid defaults",
			modify: func(*ConfigRawInput) {},
		},
		{
			name:        "invalid output",
			modify:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: "invalid output format 'xml'",
		},
		{
			name:        "zero workers",
			modify:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: "workers must be greater than 0",
		},
		{
			name:        "bad color",
			modify:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: "invalid --color value",
		},
		{
			name:        "k-min below two",
			modify:      func(in *ConfigRawInput) { in.KMin = 1 },
			expectError: "k-min must be between 2",
		},
		{
			name:        "k-max below k-min",
			modify:      func(in *ConfigRawInput) { in.KMax = 2 },
			expectError: "k-max must be between k-min (3)",
		},
		{
			name:        "too many components",
			modify:      func(in *ConfigRawInput) { in.Components = 9 },
			expectError: "components must be between 1 and 8",
		},
		{
			name:        "zero restarts",
			modify:      func(in *ConfigRawInput) { in.Restarts = 0 },
			expectError: "restarts must be between 1",
		},
		{
			name:        "negative seed",
			modify:      func(in *ConfigRawInput) { in.Seed = -1 },
			expectError: "seed cannot be negative",
		},
		{
			name:        "non-positive eps",
			modify:      func(in *ConfigRawInput) { in.DBSCANEps = 0 },
			expectError: "dbscan-eps must be greater than 0",
		},
		{
			name:        "hierarchical sample too small",
			modify:      func(in *ConfigRawInput) { in.HierarchicalSample = 3 },
			expectError: "hierarchical-sample must be between",
		},
		{
			name:        "unknown backend",
			modify:      func(in *ConfigRawInput) { in.TrackingBackend = "oracle" },
			expectError: "invalid tracking backend 'oracle'",
		},
		{
			name: "mysql without connection string",
			modify: func(in *ConfigRawInput) {
				in.TrackingBackend = "mysql"
			},
			expectError: "tracking-db-connect is required",
		},
		{
			name: "missing input path",
			modify: func(in *ConfigRawInput) {
				in.InputPathStr = ""
				in.Input = ""
			},
			expectError: "an input CSV path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.modify(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidateFields(t *testing.T) {
	input := validRawInput()
	input.Output = "JSON"
	input.KafkaBrokers = "broker-1:9092, broker-2:9092,"
	input.InfluxURL = "http://localhost:8086"
	input.TrackingBackend = ""

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultLogDir, cfg.LogDir)
	assert.Equal(t, uint64(DefaultSeed), cfg.Seed)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, schema.NoneBackend, cfg.TrackingBackend)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Influx.Enabled())
	assert.True(t, filepath.IsAbs(cfg.InputPath))
	assert.Equal(t, "crimes.csv", filepath.Base(cfg.InputPath))
	assert.Equal(t, filepath.Join(DefaultOutputDir, schema.ResultsFile), cfg.ResultsPath())
	assert.Equal(t, filepath.Join(DefaultOutputDir, schema.DimensionalityFile), cfg.DimensionalityPath())
}

func TestPositionalInputWins(t *testing.T) {
	input := validRawInput()
	input.InputPathStr = "positional.csv"
	input.Input = "flag.csv"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "positional.csv", filepath.Base(cfg.InputPath))

	input.InputPathStr = ""
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "flag.csv", filepath.Base(cfg.InputPath))
}

func TestProcessReaderConfig(t *testing.T) {
	input := &ConfigRawInput{Workers: 1, Output: "text", Precision: 3, Color: "no"}
	cfg := &Config{}
	require.NoError(t, ProcessReaderConfig(cfg, input))
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.False(t, cfg.UseColors)

	input.Listen = "127.0.0.1:9000"
	require.NoError(t, ProcessReaderConfig(cfg, input))
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
}

func TestProcessServerConfig(t *testing.T) {
	input := validRawInput()
	input.InputPathStr = ""

	cfg := &Config{}
	require.NoError(t, ProcessServerConfig(cfg, input), "the input path is optional")
	assert.Empty(t, cfg.InputPath)
	assert.Equal(t, DefaultKMin, cfg.KMin)
	assert.Equal(t, schema.SQLiteBackend, cfg.TrackingBackend)

	input.Input = "flag.csv"
	require.NoError(t, ProcessServerConfig(cfg, input))
	assert.Equal(t, "flag.csv", filepath.Base(cfg.InputPath))

	input.KMin = 1
	assert.ErrorContains(t, ProcessServerConfig(cfg, input), "k-min must be between 2")
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Kafka: KafkaConfig{Brokers: []string{"a:9092"}}, KMin: 3}
	clone := cfg.Clone()
	clone.Kafka.Brokers[0] = "b:9092"
	clone.KMin = 5

	assert.Equal(t, "a:9092", cfg.Kafka.Brokers[0])
	assert.Equal(t, 3, cfg.KMin)
}

func TestConfigParams(t *testing.T) {
	input := validRawInput()
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	params := cfg.Params()
	assert.Equal(t, DefaultKMin, params["k_min"])
	assert.Equal(t, DefaultKMax, params["k_max"])
	assert.Equal(t, DefaultRestarts, params["n_init"])
	assert.Equal(t, DefaultComponents, params["n_components"])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite ignores conn", schema.SQLiteBackend, "", false},
		{"none ignores conn", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/patrolq", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/patrolq", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost user=u password=p dbname=patrolq", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost user=u", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "run"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "run", profile.Prefix)
}
