package cmd

import (
	"github.com/huangsam/patrolq/core"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/spf13/cobra"
)

// resultsCmd prints the persisted result document.
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the K sweep and the selected model of the last run.",
	Long: `Read the stored clustering result document and print it.

Shows:
- Silhouette, Davies-Bouldin and inertia for every K
- The selected K and why the others lost
- DBSCAN and Ward trials for comparison
- Feature importance and cluster profiles

Examples:
  # Show the last run
  patrolq results

  # Read results from another output directory as JSON
  patrolq results --output-dir /srv/patrolq --output json`,
	Args:    cobra.NoArgs,
	PreRunE: readerSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteResults(rootCtx, cfg, trackingManager); err != nil {
			contract.LogFatal("Cannot read results", err)
		}
	},
}

// resultsDimensionalityCmd prints the persisted dimensionality document.
var resultsDimensionalityCmd = &cobra.Command{
	Use:   "dimensionality",
	Short: "Show explained variance per principal component.",
	Long: `Read the stored dimensionality document and print it.

Examples:
  patrolq results dimensionality
  patrolq results dimensionality --output csv --output-file pca.csv`,
	Args:    cobra.NoArgs,
	PreRunE: readerSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDimensionality(rootCtx, cfg, trackingManager); err != nil {
			contract.LogFatal("Cannot read dimensionality", err)
		}
	},
}
