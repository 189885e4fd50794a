package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// sweepCSVHeader is the header of the CSV rendition of the k-means sweep.
var sweepCSVHeader = []string{"k", "silhouette_score", "davies_bouldin_score", "inertia", "valid", "label", "best"}

// PrintRunResults outputs the outcome of a pipeline run, dispatching based on the
// output format configured. JSON and CSV render the result document; the table
// also shows cleaning statistics and timing.
func PrintRunResults(output *schema.PipelineOutput, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, output.Results)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSweepCSV(w, &output.Results, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(w, output, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// PrintResults outputs a persisted result document, dispatching based on the output format configured.
func PrintResults(doc *schema.ResultDocument, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, doc)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSweepCSV(w, doc, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeResultTables(w, doc, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
	return nil
}

// writeRunTable writes the cleaning summary followed by the result tables.
func writeRunTable(w io.Writer, output *schema.PipelineOutput, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	stats := output.CleanStats
	if _, err := fmt.Fprintf(w, "Cleaned %d of %d rows (missing coordinates: %d, unparsable dates: %d)\n",
		stats.CleanedRows, stats.RawRows, stats.MissingCoordinates, stats.UnparsableDates); err != nil {
		return err
	}
	if err := writeResultTables(w, &output.Results, cfg, fmtFloat, intFmt); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Results written to %s and %s\n", output.ResultsPath, output.DimsPath); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Pipeline completed in %v with %d workers. Tracking backend: %s\n", duration, cfg.Workers, cfg.TrackingBackend)
	return err
}

// writeResultTables writes the sweep, the alternative trials, the selection and the profiles.
func writeResultTables(w io.Writer, doc *schema.ResultDocument, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	if err := writeSweepTable(w, doc, cfg, fmtFloat); err != nil {
		return err
	}

	db := doc.DBSCANResults
	if _, err := fmt.Fprintf(w, "DBSCAN (eps=%g, min_samples=%d): silhouette %s, clusters "+intFmt+", noise "+intFmt+"\n",
		db.Eps, db.MinSamples, fmtScore(fmtFloat, db.Silhouette), db.NClusters, db.NNoise); err != nil {
		return err
	}
	h := doc.HierarchicalResults
	if _, err := fmt.Fprintf(w, "Hierarchical (%s, sample "+intFmt+"): silhouette %s, clusters "+intFmt+"\n",
		h.Linkage, h.SampleSize, fmtScore(fmtFloat, h.Silhouette), h.NClusters); err != nil {
		return err
	}

	best := doc.BestKMeans
	label := contract.GetPlainLabel(best.Silhouette, true)
	if cfg.UseColors {
		label = contract.GetColorLabel(best.Silhouette, true)
	}
	if _, err := fmt.Fprintf(w, "Best model: K=%d silhouette %s (%s)\n", best.K, fmtFloat(best.Silhouette), label); err != nil {
		return err
	}

	if len(doc.ClusterProfiles) > 0 {
		return writeProfileTable(w, doc.ClusterProfiles, cfg, fmtFloat, intFmt)
	}
	return nil
}

// writeSweepTable generates and writes the human-readable sweep table.
func writeSweepTable(w io.Writer, doc *schema.ResultDocument, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"K", "Silhouette", "Davies-Bouldin", "Inertia", "Label", "Best"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range doc.KMeansResults {
		label := contract.GetPlainLabel(r.Silhouette, r.Valid)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Silhouette, r.Valid)
		}
		marker := ""
		if r.K == doc.BestKMeans.K {
			marker = "*"
		}
		data = append(data, []string{
			strconv.Itoa(r.K),
			fmtScore(fmtFloat, r.Silhouette),
			fmtScore(fmtFloat, r.DaviesBouldin),
			fmtFloat(r.Inertia),
			label,
			marker,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeProfileTable writes one row per cluster of the best model.
func writeProfileTable(w io.Writer, profiles []schema.ClusterProfile, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Cluster", "Size", "Centroid", "Mean Radius (m)", "Arrest Rate", "Dominant Type", "Cell"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxText := getMaxTableTextWidth(cfg)
	var data [][]string
	for _, p := range profiles {
		data = append(data, []string{
			strconv.Itoa(p.Cluster),
			fmt.Sprintf(intFmt, p.Size),
			fmt.Sprintf("%.5f, %.5f", p.CentroidLatitude, p.CentroidLongitude),
			fmt.Sprintf("%.0f", p.MeanRadiusMeters),
			fmtFloat(p.ArrestRate),
			truncateText(p.DominantCrimeType, maxText),
			p.CellToken,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSweepCSV writes one CSV row per k-means trial.
func writeSweepCSV(w io.Writer, doc *schema.ResultDocument, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, sweepCSVHeader, func(cw *csv.Writer) error {
		for _, r := range doc.KMeansResults {
			rec := []string{
				strconv.Itoa(r.K),
				fmtFloat(r.Silhouette),
				fmtFloat(r.DaviesBouldin),
				fmtFloat(r.Inertia),
				strconv.FormatBool(r.Valid),
				contract.GetPlainLabel(r.Silhouette, r.Valid),
				strconv.FormatBool(r.K == doc.BestKMeans.K),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
