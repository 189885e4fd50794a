package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/report"
	"github.com/huangsam/patrolq/internal/results"
	"github.com/huangsam/patrolq/schema"
	"github.com/spf13/cobra"
)

// reportCmd renders the stored documents as an HTML page.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the last run as a static HTML report.",
	Long: `Render the stored documents as a self-contained HTML page with charts:
- Silhouette and Davies-Bouldin against K
- Explained variance per principal component
- Feature importance
- Cluster centroids sized by population

The report goes to report.html in the output directory unless
--output-file is given.

Examples:
  patrolq report
  patrolq report --output-file /tmp/patrolq.html`,
	Args:    cobra.NoArgs,
	PreRunE: readerSetup,
	Run: func(_ *cobra.Command, _ []string) {
		path := cfg.OutputFile
		if path == "" {
			path = filepath.Join(cfg.OutputDir, schema.ReportFile)
		}
		if err := report.Write(path, results.NewStore(cfg.OutputDir)); err != nil {
			contract.LogFatal("Cannot render report", err)
		}
		fmt.Printf("Report written to %s\n", path)
	},
}
