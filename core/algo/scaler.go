package algo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes columns to zero mean and unit variance.
// A Scaler is immutable once fit; there is no way to refit it.
type Scaler struct {
	mean     []float64
	scale    []float64
	constant []bool
}

// FitScaler computes per-column mean and population standard deviation.
func FitScaler(x mat.Matrix) (*Scaler, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("cannot fit scaler on an empty matrix")
	}

	s := &Scaler{
		mean:     make([]float64, cols),
		scale:    make([]float64, cols),
		constant: make([]bool, cols),
	}
	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, x)
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		s.mean[j] = mean
		if std <= 1e-12*math.Max(1, math.Abs(mean)) {
			s.constant[j] = true
			std = 1
		}
		s.scale[j] = std
	}
	return s, nil
}

// FitTransform fits a Scaler on x and returns it with the scaled matrix.
func FitTransform(x mat.Matrix) (*Scaler, *mat.Dense, error) {
	s, err := FitScaler(x)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := s.Transform(x)
	if err != nil {
		return nil, nil, err
	}
	return s, scaled, nil
}

// Mean returns a copy of the fitted column means.
func (s *Scaler) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns a copy of the fitted column scales. Constant columns have scale 1.
func (s *Scaler) Scale() []float64 { return append([]float64(nil), s.scale...) }

// Transform applies (x - mean) / scale. Constant columns become exactly 0.
func (s *Scaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("scaler was fit on %d columns, got %d", len(s.mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			if s.constant[j] {
				continue
			}
			out.Set(i, j, (x.At(i, j)-s.mean[j])/s.scale[j])
		}
	}
	return out, nil
}

// InverseTransform maps scaled values back to the original units.
func (s *Scaler) InverseTransform(x mat.Matrix) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("scaler was fit on %d columns, got %d", len(s.mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			out.Set(i, j, x.At(i, j)*s.scale[j]+s.mean[j])
		}
	}
	return out, nil
}
