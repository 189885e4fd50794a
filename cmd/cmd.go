// Package cmd defines the command-line interface for patrolq.
package cmd

import (
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(trackingCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the results subcommands to the parent results command
	resultsCmd.AddCommand(resultsDimensionalityCmd)

	// Add the tracking subcommands to the parent tracking command
	trackingCmd.AddCommand(trackingClearCmd)
	trackingCmd.AddCommand(trackingStatusCmd)
	trackingCmd.AddCommand(trackingExportCmd)
	trackingCmd.AddCommand(trackingMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("input", "i", "", "Path to the incident CSV")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Directory for the cleaned dataset and result documents")
	rootCmd.PersistentFlags().String("log-dir", contract.DefaultLogDir, "Directory for the pipeline log file")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("tracking-backend", string(schema.SQLiteBackend), "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("tracking-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("influx-url", "", "InfluxDB URL for streaming run metrics (empty disables the sink)")
	rootCmd.PersistentFlags().String("influx-token", "", "InfluxDB API token")
	rootCmd.PersistentFlags().String("influx-org", "", "InfluxDB organization")
	rootCmd.PersistentFlags().String("influx-bucket", "", "InfluxDB bucket")
	rootCmd.PersistentFlags().String("kafka-brokers", "", "Comma-separated Kafka brokers for run events (empty disables the sink)")
	rootCmd.PersistentFlags().String("kafka-topic", contract.DefaultKafkaTopic, "Kafka topic for run events")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runCmd to Viper
	runCmd.Flags().Int("sample-size", contract.DefaultSampleSize, "Rows sampled after cleaning (0 keeps every row)")
	runCmd.Flags().Int64("seed", contract.DefaultSeed, "Random seed for sampling and restarts")
	runCmd.Flags().Int("k-min", contract.DefaultKMin, "Smallest K of the sweep")
	runCmd.Flags().Int("k-max", contract.DefaultKMax, "Largest K of the sweep")
	runCmd.Flags().Int("restarts", contract.DefaultRestarts, "K-means restarts per K")
	runCmd.Flags().Int("max-iter", contract.DefaultMaxIter, "K-means iteration cap per restart")
	runCmd.Flags().Int("components", contract.DefaultComponents, "Number of principal components")
	runCmd.Flags().Float64("dbscan-eps", contract.DefaultDBSCANEps, "DBSCAN neighborhood radius in reduced space")
	runCmd.Flags().Int("dbscan-min-points", contract.DefaultDBSCANMinPoints, "DBSCAN core point threshold")
	runCmd.Flags().Int("hierarchical-clusters", contract.DefaultHierarchicalClusters, "Ward clustering cut")
	runCmd.Flags().Int("hierarchical-sample", contract.DefaultHierarchicalSample, "Rows fed to Ward clustering")
	runCmd.Flags().Int("silhouette-sample", 0, "Rows used to score silhouettes (0 scores every row)")
	runCmd.Flags().Bool("cleaned-parquet", false, "Also write the cleaned dataset as Parquet")
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		contract.LogFatal("Error binding run flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListen, "Address the HTTP API listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of trackingMigrateCmd to Viper
	trackingMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(trackingMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding tracking migrate flags", err)
	}
}
