package ensemble

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// separableData builds two well-separated clusters with a noisy third
// feature.
func separableData(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		base := 0.0
		if i%2 == 1 {
			base = 5.0
			y.Set(i, 0, 1)
		}
		X.Set(i, 0, base+rng.NormFloat64())
		X.Set(i, 1, base+rng.NormFloat64())
		X.Set(i, 2, rng.NormFloat64()) // noise
	}
	return X, y
}

func TestRandomForestClassifier_FitPredict(t *testing.T) {
	X, y := separableData(60, 1)

	rf := NewRandomForestClassifier(
		WithNEstimators(25),
		WithMtry(2),
		WithMinNodeSize(1),
		WithRFRandomState(42),
	)

	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	preds, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	correct := 0
	for i := 0; i < 60; i++ {
		if preds.AtVec(i) == y.At(i, 0) {
			correct++
		}
	}
	if correct < 57 {
		t.Errorf("training accuracy %d/60, want >= 57", correct)
	}
}

func TestRandomForestClassifier_OOBError(t *testing.T) {
	X, y := separableData(80, 2)

	rf := NewRandomForestClassifier(
		WithNEstimators(30),
		WithRFRandomState(7),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	oob, err := rf.OOBError()
	if err != nil {
		t.Fatalf("OOBError() error = %v", err)
	}
	if oob < 0 || oob > 1 {
		t.Errorf("OOB error = %v, want a probability in [0, 1]", oob)
	}
	// Well-separated clusters should leave the OOB error small.
	if oob > 0.2 {
		t.Errorf("OOB error = %v, want <= 0.2 on separable data", oob)
	}
}

func TestRandomForestClassifier_Deterministic(t *testing.T) {
	X, y := separableData(50, 3)

	fit := func() (float64, *mat.VecDense) {
		rf := NewRandomForestClassifier(
			WithNEstimators(20),
			WithMtry(2),
			WithRFRandomState(123),
		)
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Failed to fit forest: %v", err)
		}
		oob, err := rf.OOBError()
		if err != nil {
			t.Fatalf("OOBError() error = %v", err)
		}
		preds, err := rf.Predict(X)
		if err != nil {
			t.Fatalf("Failed to predict: %v", err)
		}
		return oob, preds
	}

	oob1, preds1 := fit()
	oob2, preds2 := fit()

	if oob1 != oob2 {
		t.Errorf("same seed produced different OOB errors: %v vs %v", oob1, oob2)
	}
	if !mat.Equal(preds1, preds2) {
		t.Error("same seed produced different predictions")
	}
}

func TestRandomForestClassifier_FeatureImportances(t *testing.T) {
	X, y := separableData(60, 4)

	rf := NewRandomForestClassifier(
		WithNEstimators(25),
		WithRFRandomState(5),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	imp, err := rf.FeatureImportances()
	if err != nil {
		t.Fatalf("FeatureImportances() error = %v", err)
	}
	if len(imp) != 3 {
		t.Fatalf("importances length = %d, want 3", len(imp))
	}

	sum := 0.0
	for _, v := range imp {
		if v < 0 {
			t.Errorf("negative importance: %v", imp)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("importances sum = %v, want 1", sum)
	}
	// The noise feature should matter least.
	if imp[2] >= imp[0] || imp[2] >= imp[1] {
		t.Errorf("noise feature should have the smallest importance: %v", imp)
	}
}

func TestRandomForestClassifier_OOBError_NoOOBSamples(t *testing.T) {
	// A single row is drawn into every bootstrap resample, so no tree ever
	// holds out a row and the OOB estimate is undefined.
	X := mat.NewDense(1, 2, []float64{1, 2})
	y := mat.NewDense(1, 1, []float64{0})

	rf := NewRandomForestClassifier(WithNEstimators(3), WithRFRandomState(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit forest: %v", err)
	}

	if _, err := rf.OOBError(); err == nil {
		t.Error("OOBError without out-of-bag samples should fail, not report 0")
	}

	// The forest itself stays usable.
	preds, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if preds.AtVec(0) != 0 {
		t.Errorf("prediction = %v, want 0", preds.AtVec(0))
	}
}

func TestRandomForestClassifier_InvalidInput(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 5, 5, 5, 6})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	if err := NewRandomForestClassifier(WithNEstimators(0)).Fit(X, y); err == nil {
		t.Error("zero trees should fail")
	}
	if err := NewRandomForestClassifier(WithMtry(5)).Fit(X, y); err == nil {
		t.Error("mtry beyond n_features should fail")
	}
	if err := NewRandomForestClassifier(WithMinNodeSize(0)).Fit(X, y); err == nil {
		t.Error("node size of 0 should fail")
	}

	rf := NewRandomForestClassifier()
	if _, err := rf.Predict(X); err == nil {
		t.Error("Predict on unfitted forest should fail")
	}
	if _, err := rf.OOBError(); err == nil {
		t.Error("OOBError on unfitted forest should fail")
	}
}
