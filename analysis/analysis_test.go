package analysis

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeStudyCSV generates a synthetic CTG-shaped table where abnormal rows
// carry higher short-term variability, so both models have signal to find.
func writeStudyCSV(t *testing.T, n int) string {
	t.Helper()

	rng := rand.New(rand.NewSource(1))
	var sb strings.Builder
	sb.WriteString("LB;AC;FM;UC;DL;DS;DP;ASTV;ALTV;NSP\n")
	for i := 0; i < n; i++ {
		nsp := 1
		astv := 20 + rng.Intn(20)
		altv := rng.Intn(10)
		if i%4 == 0 {
			nsp = 2 + rng.Intn(2) // suspect or pathologic
			astv = 60 + rng.Intn(20)
			altv = 30 + rng.Intn(20)
		}
		fmt.Fprintf(&sb, "%d;%d;0;%d;%d;0;0;%d;%d;%d\n",
			110+rng.Intn(40), rng.Intn(6), rng.Intn(8), rng.Intn(4), astv, altv, nsp)
	}

	path := filepath.Join(t.TempDir(), "ctg.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func smallConfig(input, outDir string) Config {
	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = outDir
	cfg.NEstimators = 10
	cfg.MtryMin, cfg.MtryMax = 1, 3
	cfg.NodeSizeMin, cfg.NodeSizeMax = 1, 2
	cfg.BootstrapReps = 5
	return cfg
}

func TestRun(t *testing.T) {
	input := writeStudyCSV(t, 120)
	outDir := filepath.Join(t.TempDir(), "plots")

	report, err := Run(smallConfig(input, outDir))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Rows != 120 {
		t.Errorf("Rows = %d, want 120", report.Rows)
	}
	if report.TrainRows+report.TestRows != report.Rows {
		t.Errorf("partition %d+%d does not cover %d rows", report.TrainRows, report.TestRows, report.Rows)
	}
	if report.TrainRows != 90 {
		t.Errorf("TrainRows = %d, want floor(0.75*120) = 90", report.TrainRows)
	}

	if got := len(report.Search); got != 6 {
		t.Errorf("search evaluated %d candidates, want 6 (3x2 grid)", got)
	}
	for _, r := range report.Search {
		if !r.Failed && report.Best.OOBError > r.OOBError {
			t.Errorf("best OOB %v exceeds candidate %v", report.Best.OOBError, r)
		}
	}

	if report.Logistic.Confusion.Total() != report.TestRows {
		t.Errorf("logistic confusion totals %d, want %d", report.Logistic.Confusion.Total(), report.TestRows)
	}
	if report.Forest.Confusion.Total() != report.TestRows {
		t.Errorf("forest confusion totals %d, want %d", report.Forest.Confusion.Total(), report.TestRows)
	}

	if len(report.Importances) != len(report.Features) {
		t.Errorf("importances length = %d, want %d", len(report.Importances), len(report.Features))
	}
	if report.Bootstrap == nil || report.Bootstrap.Completed == 0 {
		t.Error("bootstrap validation missing")
	}
	if len(report.SampleSizes) == 0 {
		t.Error("sample-size table missing")
	}

	if got := len(report.PlotPaths); got != 7 {
		t.Fatalf("wrote %d plots, want 7", got)
	}
	for _, p := range report.PlotPaths {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("plot %s missing: %v", p, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("plot %s is empty", p)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	input := writeStudyCSV(t, 100)

	cfg := smallConfig(input, "") // no plots
	r1, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r2, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r1.Best != r2.Best {
		t.Errorf("same seed selected %v then %v", r1.Best, r2.Best)
	}
	if *r1.Logistic.Confusion != *r2.Logistic.Confusion {
		t.Error("logistic evaluation differs across identical runs")
	}
	if *r1.Bootstrap != *r2.Bootstrap {
		t.Error("bootstrap validation differs across identical runs")
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	input := writeStudyCSV(t, 40)

	cfg := smallConfig(input, "")
	cfg.InputPath = ""
	if _, err := Run(cfg); err == nil {
		t.Error("empty input path should fail")
	}

	cfg = smallConfig(input, "")
	cfg.SplitFraction = 1.5
	if _, err := Run(cfg); err == nil {
		t.Error("invalid split fraction should fail")
	}

	cfg = smallConfig(filepath.Join(t.TempDir(), "missing.csv"), "")
	if _, err := Run(cfg); err == nil {
		t.Error("missing input file should fail")
	}
}

func TestReport_Summary(t *testing.T) {
	input := writeStudyCSV(t, 80)

	report, err := Run(smallConfig(input, ""))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	summary := report.Summary()
	for _, want := range []string{
		"Class balance",
		"Logistic regression (test set)",
		"Random forest grid search",
		"Bootstrap validation",
		"Sample-size planning",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
