package algo

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCAResult is the outcome of a principal component reduction.
type PCAResult struct {
	Projected          *mat.Dense // rows x n
	Loadings           *mat.Dense // features x n, one component per column
	ExplainedVariance  []float64  // ratio of total variance, descending
	CumulativeVariance []float64
	FeatureImportance  schema.FeatureImportance
}

// ValidateComponents checks that n components can be extracted from a rows x cols matrix.
func ValidateComponents(rows, cols, n int) error {
	if n < 1 || n > cols || n > rows {
		return fmt.Errorf("%w: requested %d for a %dx%d matrix", contract.ErrInvalidComponentCount, n, rows, cols)
	}
	return nil
}

// ReducePCA projects x onto its first n principal components. Explained variance
// ratios are relative to the variance of all components, so they sum to at most 1.
// Component signs are fixed so the largest-magnitude loading of each is positive.
func ReducePCA(x *mat.Dense, n int, features []string) (*PCAResult, error) {
	rows, cols := x.Dims()
	if err := ValidateComponents(rows, cols, n); err != nil {
		return nil, err
	}
	if len(features) != cols {
		return nil, fmt.Errorf("got %d feature names for %d columns", len(features), cols)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("principal component decomposition did not converge")
	}
	vars := pc.VarsTo(nil)
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	total := 0.0
	for _, v := range vars {
		total += v
	}
	res := &PCAResult{
		ExplainedVariance:  make([]float64, n),
		CumulativeVariance: make([]float64, n),
	}
	running := 0.0
	for i := range n {
		ratio := 0.0
		if total > 0 && !math.IsNaN(total) && !math.IsInf(total, 0) {
			ratio = vars[i] / total
		}
		res.ExplainedVariance[i] = ratio
		running += ratio
		res.CumulativeVariance[i] = running
	}

	loadings := mat.DenseCopyOf(vecs.Slice(0, cols, 0, n))
	normalizeSigns(loadings)
	res.Loadings = loadings
	res.FeatureImportance = featureImportance(loadings, features)
	res.Projected = project(x, loadings)
	return res, nil
}

// normalizeSigns flips each component so its largest-magnitude loading is positive.
// The first of equal magnitudes decides.
func normalizeSigns(loadings *mat.Dense) {
	rows, comps := loadings.Dims()
	for c := range comps {
		best, bestAbs := 0, -1.0
		for r := range rows {
			if a := math.Abs(loadings.At(r, c)); a > bestAbs {
				best, bestAbs = r, a
			}
		}
		if loadings.At(best, c) < 0 {
			for r := range rows {
				loadings.Set(r, c, -loadings.At(r, c))
			}
		}
	}
}

// featureImportance averages absolute loadings per feature across components
// and sorts descending, keeping column order among ties.
func featureImportance(loadings *mat.Dense, features []string) schema.FeatureImportance {
	rows, comps := loadings.Dims()
	out := make(schema.FeatureImportance, rows)
	for r := range rows {
		sum := 0.0
		for c := range comps {
			sum += math.Abs(loadings.At(r, c))
		}
		out[r] = schema.FeatureScore{Feature: features[r], Score: sum / float64(comps)}
	}
	slices.SortStableFunc(out, func(a, b schema.FeatureScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// project centers x on its column means and multiplies by the loadings.
func project(x *mat.Dense, loadings *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	centered := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		for i := range rows {
			centered.Set(i, j, col[i]-mean)
		}
	}
	var out mat.Dense
	out.Mul(centered, loadings)
	return &out
}
