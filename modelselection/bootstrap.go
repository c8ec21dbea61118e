package modelselection

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/linear"
	"github.com/cardiolab/ctgml/metrics"
	"github.com/cardiolab/ctgml/pkg/errors"
)

// ValidationResult summarizes an optimism-corrected bootstrap validation of
// a logistic model. Apparent metrics come from evaluating the full-data fit
// on its own training data; Corrected subtracts the mean optimism estimated
// over B resamples.
type ValidationResult struct {
	B         int // requested resamples
	Completed int // resamples whose model trained successfully

	ApparentAccuracy  float64
	OptimismAccuracy  float64
	CorrectedAccuracy float64

	ApparentAUC  float64
	OptimismAUC  float64
	CorrectedAUC float64
}

// BootstrapValidate runs optimism-corrected internal validation of the
// logistic model produced by newModel. For each of b resamples drawn with
// replacement, a fresh model is fit on the resample; the difference between
// its performance on the resample and on the original data estimates the
// optimism of the apparent performance. Deterministic per seed.
func BootstrapValidate(newModel func() *linear.LogisticRegression, X mat.Matrix, y *mat.VecDense, b int, seed int64) (*ValidationResult, error) {
	n, p := X.Dims()
	if n == 0 {
		return nil, errors.NewModelError("BootstrapValidate", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("BootstrapValidate", n, y.Len(), 0)
	}
	if b < 1 {
		return nil, errors.NewValidationError("b", "must be >= 1", b)
	}

	apparent := newModel()
	if err := apparent.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "modelselection: apparent fit failed")
	}
	appAcc, appAUC, err := evaluateLogistic(apparent, X, y)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	var sumOptAcc, sumOptAUC float64
	completed := 0

	bx := mat.NewDense(n, p, nil)
	by := mat.NewVecDense(n, nil)

	for rep := 0; rep < b; rep++ {
		for i := 0; i < n; i++ {
			idx := rng.Intn(n)
			for j := 0; j < p; j++ {
				bx.Set(i, j, X.At(idx, j))
			}
			by.SetVec(i, y.AtVec(idx))
		}

		m := newModel()
		if err := m.Fit(bx, by); err != nil {
			errors.Warn(errors.NewCandidateFailedWarning("BootstrapValidate", "resample", err))
			continue
		}

		trainAcc, trainAUC, err := evaluateLogistic(m, bx, by)
		if err != nil {
			errors.Warn(errors.NewCandidateFailedWarning("BootstrapValidate", "resample", err))
			continue
		}
		testAcc, testAUC, err := evaluateLogistic(m, X, y)
		if err != nil {
			errors.Warn(errors.NewCandidateFailedWarning("BootstrapValidate", "resample", err))
			continue
		}

		sumOptAcc += trainAcc - testAcc
		sumOptAUC += trainAUC - testAUC
		completed++
	}

	if completed == 0 {
		return nil, errors.Wrap(errors.ErrAllCandidatesFailed, "modelselection: bootstrap validation")
	}

	optAcc := sumOptAcc / float64(completed)
	optAUC := sumOptAUC / float64(completed)

	return &ValidationResult{
		B:                 b,
		Completed:         completed,
		ApparentAccuracy:  appAcc,
		OptimismAccuracy:  optAcc,
		CorrectedAccuracy: appAcc - optAcc,
		ApparentAUC:       appAUC,
		OptimismAUC:       optAUC,
		CorrectedAUC:      appAUC - optAUC,
	}, nil
}

// evaluateLogistic computes accuracy at the 0.5 cutoff and AUC over the
// positive-class probabilities.
func evaluateLogistic(m *linear.LogisticRegression, X mat.Matrix, y *mat.VecDense) (acc, auc float64, err error) {
	preds, err := m.Predict(X)
	if err != nil {
		return 0, 0, err
	}
	acc, err = metrics.Accuracy(y, preds)
	if err != nil {
		return 0, 0, err
	}

	probas, err := m.PredictProba(X)
	if err != nil {
		return 0, 0, err
	}
	n, _ := probas.Dims()
	scores := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		scores.SetVec(i, probas.At(i, 1))
	}
	auc, err = metrics.AUC(y, scores)
	if err != nil {
		return 0, 0, err
	}
	return acc, auc, nil
}
