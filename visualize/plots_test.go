package visualize

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/metrics"
	"github.com/cardiolab/ctgml/modelselection"
	"github.com/cardiolab/ctgml/samplesize"
)

// checkPNG asserts the plot file was written and is non-trivial.
func checkPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("plot file %s is empty", path)
	}
}

func TestCorrelationHeatmap(t *testing.T) {
	corr := mat.NewSymDense(3, []float64{
		1, 0.5, -0.2,
		0.5, 1, 0.1,
		-0.2, 0.1, 1,
	})
	path := filepath.Join(t.TempDir(), "corr.png")

	if err := CorrelationHeatmap(corr, []string{"LB", "AC", "FM"}, path); err != nil {
		t.Fatalf("CorrelationHeatmap() error = %v", err)
	}
	checkPNG(t, path)

	if err := CorrelationHeatmap(corr, []string{"LB"}, path); err == nil {
		t.Error("mismatched labels should fail")
	}
}

func TestClassBalanceBar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.png")
	if err := ClassBalanceBar(1655, 471, path); err != nil {
		t.Fatalf("ClassBalanceBar() error = %v", err)
	}
	checkPNG(t, path)

	if err := ClassBalanceBar(0, 0, path); err == nil {
		t.Error("all-zero counts should fail")
	}
}

func TestConfusionMatrixPlot(t *testing.T) {
	cm := &metrics.ConfusionMatrix{TruePositive: 80, TrueNegative: 380, FalsePositive: 30, FalseNegative: 42}
	path := filepath.Join(t.TempDir(), "confusion.png")

	if err := ConfusionMatrixPlot(cm, "Random forest, test set", path); err != nil {
		t.Fatalf("ConfusionMatrixPlot() error = %v", err)
	}
	checkPNG(t, path)

	if err := ConfusionMatrixPlot(nil, "empty", path); err == nil {
		t.Error("nil matrix should fail")
	}
}

func TestImportanceBar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "importance.png")
	names := []string{"LB", "AC", "FM", "ASTV"}
	imp := []float64{0.2, 0.1, 0.05, 0.65}

	if err := ImportanceBar(names, imp, path); err != nil {
		t.Fatalf("ImportanceBar() error = %v", err)
	}
	checkPNG(t, path)

	if err := ImportanceBar(names, imp[:2], path); err == nil {
		t.Error("mismatched lengths should fail")
	}
}

func TestOOBCurves(t *testing.T) {
	results := []modelselection.CandidateResult{
		{Candidate: modelselection.Candidate{Mtry: 2, NodeSize: 1}, OOBError: 0.062},
		{Candidate: modelselection.Candidate{Mtry: 3, NodeSize: 1}, OOBError: 0.060},
		{Candidate: modelselection.Candidate{Mtry: 2, NodeSize: 5}, OOBError: 0.066},
		{Candidate: modelselection.Candidate{Mtry: 3, NodeSize: 5}, OOBError: 0.064},
		{Candidate: modelselection.Candidate{Mtry: 4, NodeSize: 5}, Failed: true},
	}
	path := filepath.Join(t.TempDir(), "oob.png")

	if err := OOBCurves(results, path); err != nil {
		t.Fatalf("OOBCurves() error = %v", err)
	}
	checkPNG(t, path)

	if err := OOBCurves(nil, path); err == nil {
		t.Error("empty results should fail")
	}
}

func TestSampleSizeCurves(t *testing.T) {
	points := []samplesize.CurvePoint{
		{OddsRatio: 1.25, Power: 0.8, N: 1500},
		{OddsRatio: 1.5, Power: 0.8, N: 700},
		{OddsRatio: 1.25, Power: 0.9, N: 2000},
		{OddsRatio: 1.5, Power: 0.9, N: 950},
	}
	path := filepath.Join(t.TempDir(), "samplesize.png")

	if err := SampleSizeCurves(points, path); err != nil {
		t.Fatalf("SampleSizeCurves() error = %v", err)
	}
	checkPNG(t, path)

	if err := SampleSizeCurves(nil, path); err == nil {
		t.Error("empty points should fail")
	}
}
