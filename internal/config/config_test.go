package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Seed != 123 {
		t.Errorf("Seed = %d, want 123", cfg.Seed)
	}
	if cfg.SplitFraction != 0.75 {
		t.Errorf("SplitFraction = %v, want 0.75", cfg.SplitFraction)
	}
	if cfg.Trees != 500 {
		t.Errorf("Trees = %d, want 500", cfg.Trees)
	}
	if cfg.MtryMin != 2 || cfg.MtryMax != 9 {
		t.Errorf("mtry range = [%d, %d], want [2, 9]", cfg.MtryMin, cfg.MtryMax)
	}
	if cfg.NodeSizeMin != 1 || cfg.NodeSizeMax != 9 {
		t.Errorf("nodeSize range = [%d, %d], want [1, 9]", cfg.NodeSizeMin, cfg.NodeSizeMax)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CTGML_INPUT", "/data/ctg.csv")
	t.Setenv("CTGML_SEED", "7")
	t.Setenv("CTGML_TREES", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Input != "/data/ctg.csv" {
		t.Errorf("Input = %q, want /data/ctg.csv", cfg.Input)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Seed)
	}
	if cfg.Trees != 50 {
		t.Errorf("Trees = %d, want 50", cfg.Trees)
	}
}

func TestAnalysis(t *testing.T) {
	cfg := &Config{
		Input:         "ctg.csv",
		OutputDir:     "out",
		Seed:          123,
		SplitFraction: 0.75,
		Trees:         500,
		MtryMin:       2,
		MtryMax:       9,
		NodeSizeMin:   1,
		NodeSizeMax:   9,
		BootstrapReps: 100,
	}

	ac := cfg.Analysis()
	if ac.InputPath != "ctg.csv" || ac.OutputDir != "out" {
		t.Errorf("paths not carried over: %+v", ac)
	}
	if ac.NEstimators != 500 || ac.BootstrapReps != 100 {
		t.Errorf("model knobs not carried over: %+v", ac)
	}
	if err := ac.Validate(); err != nil {
		t.Errorf("converted config should validate: %v", err)
	}
}
