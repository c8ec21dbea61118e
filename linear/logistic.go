// Package linear provides the logistic-regression baseline classifier.
package linear

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/core/model"
	"github.com/cardiolab/ctgml/pkg/errors"
)

// LogisticRegression is a binary logistic-regression classifier fit by
// gradient descent with an optional L2 penalty. Predictions use a 0.5
// probability cutoff.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	c            float64 // inverse regularization strength
	fitIntercept bool
	randomState  int64
	maxIter      int
	tol          float64

	// Model parameters
	coef      []float64
	intercept float64
	nFeatures int
	nIter     int

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a LogisticRegression classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}

	return lr
}

// WithLRPenalty sets the regularization type, "l2" or "none".
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithLRFitIntercept sets whether to fit an intercept term.
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the gradient tolerance for the stopping criterion.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed for weight initialization.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
		if seed >= 0 {
			lr.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit trains the model on X (n x p) and binary labels y (n x 1).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit", "labels must be 0 or 1")
		}
	}

	lr.nFeatures = nFeatures
	lr.coef = make([]float64, nFeatures)
	lr.intercept = 0
	for j := range lr.coef {
		lr.coef[j] = lr.rand.NormFloat64() * 0.01
	}

	baseLearningRate := 1.0
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			residual := sigmoid(z) - y.At(i, 0)
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.c
			for j := range lr.coef {
				gradWeights[j] += lambda * lr.coef[j] / float64(nSamples)
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for j := range lr.coef {
			lr.coef[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			lr.intercept -= learningRate * gradIntercept
		}

		lr.nIter = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter, ""))
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// Predict returns predicted labels in {0, 1} using a 0.5 probability cutoff.
func (lr *LogisticRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, _ := probs.Dims()
	predictions := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if probs.At(i, 1) >= 0.5 {
			predictions.SetVec(i, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns an n x 2 matrix of class probabilities, column 0 for
// the negative class and column 1 for the positive class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	n, p := X.Dims()
	if p != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, p, 1)
	}

	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		z := lr.intercept
		for j := 0; j < lr.nFeatures; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		prob1 := sigmoid(z)
		probas.Set(i, 0, 1.0-prob1)
		probas.Set(i, 1, prob1)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.AtVec(i) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// Intercept returns the fitted intercept term.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// NIter returns the number of gradient-descent iterations performed.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
