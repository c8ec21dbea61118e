// Package preprocessing provides feature scaling for the analysis pipeline.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/core/model"
	"github.com/cardiolab/ctgml/pkg/errors"
)

// StandardScaler transforms features to zero mean and unit variance.
// The gradient-descent logistic solver converges poorly on the raw CTG
// columns, whose scales differ by orders of magnitude.
type StandardScaler struct {
	state *model.StateManager

	// Mean and Scale hold the per-feature statistics learned by Fit.
	Mean  []float64
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a StandardScaler. withMean controls centering,
// withStd controls variance scaling.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler that both centers and
// scales.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit learns per-feature mean and standard deviation from X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		if s.WithStd {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			s.Scale[j] = math.Sqrt(sumSquares / float64(r))
			// Constant columns would divide by zero.
			if s.Scale[j] < 1e-8 {
				s.Scale[j] = 1.0
			}
		} else {
			s.Scale[j] = 1.0
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform standardizes X using the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	nFeatures, _ := s.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", nFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform learns the statistics from X and returns the standardized X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
