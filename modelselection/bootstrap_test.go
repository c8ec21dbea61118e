package modelselection

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/linear"
)

func bootstrapData(n int, seed int64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		base := -1.0
		if i%2 == 1 {
			base = 1.0
			y.SetVec(i, 1)
		}
		X.Set(i, 0, base+0.5*rng.NormFloat64())
		X.Set(i, 1, base+0.5*rng.NormFloat64())
	}
	return X, y
}

func newTestModel() *linear.LogisticRegression {
	return linear.NewLogisticRegression(
		linear.WithLRMaxIter(200),
		linear.WithLRRandomState(11),
	)
}

func TestBootstrapValidate(t *testing.T) {
	X, y := bootstrapData(80, 1)

	res, err := BootstrapValidate(newTestModel, X, y, 20, 42)
	if err != nil {
		t.Fatalf("BootstrapValidate() error = %v", err)
	}

	if res.B != 20 {
		t.Errorf("B = %d, want 20", res.B)
	}
	if res.Completed != 20 {
		t.Errorf("Completed = %d, want 20", res.Completed)
	}

	for name, v := range map[string]float64{
		"apparent accuracy":  res.ApparentAccuracy,
		"corrected accuracy": res.CorrectedAccuracy,
		"apparent auc":       res.ApparentAUC,
		"corrected auc":      res.CorrectedAUC,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want within [0, 1]", name, v)
		}
	}

	// The corrected estimate removes the (non-negative, on average)
	// training optimism.
	if res.CorrectedAccuracy > res.ApparentAccuracy+1e-9 && res.OptimismAccuracy > 0 {
		t.Errorf("corrected accuracy %v above apparent %v despite positive optimism", res.CorrectedAccuracy, res.ApparentAccuracy)
	}
}

func TestBootstrapValidate_Deterministic(t *testing.T) {
	X, y := bootstrapData(60, 2)

	r1, err := BootstrapValidate(newTestModel, X, y, 15, 7)
	if err != nil {
		t.Fatalf("BootstrapValidate() error = %v", err)
	}
	r2, err := BootstrapValidate(newTestModel, X, y, 15, 7)
	if err != nil {
		t.Fatalf("BootstrapValidate() error = %v", err)
	}

	if *r1 != *r2 {
		t.Errorf("same seed produced different results:\n%+v\n%+v", r1, r2)
	}
}

func TestBootstrapValidate_InvalidInput(t *testing.T) {
	X, y := bootstrapData(20, 3)

	if _, err := BootstrapValidate(newTestModel, X, y, 0, 1); err == nil {
		t.Error("b of 0 should fail")
	}

	yShort := mat.NewVecDense(10, nil)
	if _, err := BootstrapValidate(newTestModel, X, yShort, 5, 1); err == nil {
		t.Error("mismatched y length should fail")
	}
}
