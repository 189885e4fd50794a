package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintDimensionality outputs a dimensionality document, dispatching based on the output format configured.
func PrintDimensionality(doc *schema.DimensionalityDocument, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, doc)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDimensionalityCSV(w, doc, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDimensionalityTables(w, doc, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// writeDimensionalityTables writes the component table and the feature ranking.
func writeDimensionalityTables(w io.Writer, doc *schema.DimensionalityDocument, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "Projected shape: %d x %d\n", doc.PCAShape[0], doc.PCAShape[1]); err != nil {
		return err
	}

	components := tablewriter.NewWriter(w)
	components.Header([]string{"Component", "Explained", "Cumulative"})
	components.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for i, v := range doc.ExplainedVariance {
		cum := 0.0
		if i < len(doc.CumulativeVariance) {
			cum = doc.CumulativeVariance[i]
		}
		data = append(data, []string{"PC" + strconv.Itoa(i+1), fmtFloat(v), fmtFloat(cum)})
	}
	if err := components.Bulk(data); err != nil {
		return err
	}
	if err := components.Render(); err != nil {
		return err
	}

	ranking := tablewriter.NewWriter(w)
	ranking.Header([]string{"Rank", "Feature", "Importance"})
	ranking.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data = data[:0]
	for i, fs := range doc.FeatureImportance {
		data = append(data, []string{strconv.Itoa(i + 1), fs.Feature, fmtFloat(fs.Score)})
	}
	if err := ranking.Bulk(data); err != nil {
		return err
	}
	return ranking.Render()
}

// writeDimensionalityCSV writes the feature ranking with its rank.
func writeDimensionalityCSV(w io.Writer, doc *schema.DimensionalityDocument, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, []string{"rank", "feature", "importance"}, func(cw *csv.Writer) error {
		for i, fs := range doc.FeatureImportance {
			if err := cw.Write([]string{strconv.Itoa(i + 1), fs.Feature, fmtFloat(fs.Score)}); err != nil {
				return err
			}
		}
		return nil
	})
}
