// Package report renders the pipeline documents as a static HTML page.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// PageTitle is the title of the rendered report.
const PageTitle = "Crime Incident Clustering"

// Write loads both documents and renders the report to path atomically.
func Write(path string, reader contract.ResultReader) error {
	doc, err := reader.LoadResults()
	if err != nil {
		return err
	}
	dims, err := reader.LoadDimensionality()
	if err != nil {
		return err
	}
	return contract.WriteFileAtomic(path, func(w io.Writer) error {
		return Render(w, doc, dims)
	})
}

// Render writes the report page for the given documents.
func Render(w io.Writer, doc *schema.ResultDocument, dims *schema.DimensionalityDocument) error {
	page := components.NewPage()
	page.PageTitle = PageTitle
	page.AddCharts(
		sweepChart(doc),
		varianceChart(dims),
		importanceChart(doc.FeatureImportance),
		profileChart(doc.ClusterProfiles),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// sweepChart plots silhouette and Davies-Bouldin against K. Uncomputable
// scores leave a gap in the line.
func sweepChart(doc *schema.ResultDocument) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "K sweep",
			Subtitle: fmt.Sprintf("best K = %d", doc.BestKMeans.K),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "K"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "score"}),
	)

	ks := make([]string, 0, len(doc.KMeansResults))
	silhouette := make([]opts.LineData, 0, len(doc.KMeansResults))
	daviesBouldin := make([]opts.LineData, 0, len(doc.KMeansResults))
	for _, r := range doc.KMeansResults {
		ks = append(ks, strconv.Itoa(r.K))
		silhouette = append(silhouette, lineValue(r.Silhouette))
		daviesBouldin = append(daviesBouldin, lineValue(r.DaviesBouldin))
	}
	line.SetXAxis(ks).
		AddSeries("Silhouette", silhouette).
		AddSeries("Davies-Bouldin", daviesBouldin).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	return line
}

func lineValue(v float64) opts.LineData {
	if v == schema.UncomputableScore {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}

// varianceChart shows explained variance per component next to the running total.
func varianceChart(dims *schema.DimensionalityDocument) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Explained variance"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ratio", Max: 1}),
	)

	names := make([]string, len(dims.ExplainedVariance))
	explained := make([]opts.BarData, len(dims.ExplainedVariance))
	cumulative := make([]opts.BarData, len(dims.CumulativeVariance))
	for i, v := range dims.ExplainedVariance {
		names[i] = fmt.Sprintf("PC%d", i+1)
		explained[i] = opts.BarData{Value: v}
	}
	for i, v := range dims.CumulativeVariance {
		cumulative[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(names).
		AddSeries("Explained", explained).
		AddSeries("Cumulative", cumulative)
	return bar
}

// importanceChart ranks features by their weight on the leading component.
func importanceChart(importance schema.FeatureImportance) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Feature importance"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	names := make([]string, len(importance))
	scores := make([]opts.BarData, len(importance))
	for i, fs := range importance {
		names[i] = fs.Feature
		scores[i] = opts.BarData{Value: fs.Score}
	}
	bar.SetXAxis(names).AddSeries("Importance", scores)
	return bar
}

// profileChart places each cluster centroid on a longitude/latitude plane,
// sized by cluster population.
func profileChart(profiles []schema.ClusterProfile) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cluster centroids"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "longitude", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "latitude", Type: "value", Scale: opts.Bool(true)}),
	)

	largest := 1
	for _, p := range profiles {
		largest = max(largest, p.Size)
	}
	for _, p := range profiles {
		point := opts.ScatterData{
			Name:       p.DominantCrimeType,
			Value:      []interface{}{p.CentroidLongitude, p.CentroidLatitude},
			SymbolSize: 10 + 40*p.Size/largest,
		}
		scatter.AddSeries(fmt.Sprintf("Cluster %d", p.Cluster), []opts.ScatterData{point}).
			SetSeriesOptions(
				charts.WithLabelOpts(
					opts.Label{
						Show:     opts.Bool(false),
						Position: "top",
					},
				),
			)
	}
	return scatter
}
