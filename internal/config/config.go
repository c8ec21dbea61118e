// Package config loads study configuration from the environment. Every
// variable carries the CTGML prefix, so e.g. CTGML_SEED overrides the seed;
// command-line flags take precedence over the environment.
package config

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/cardiolab/ctgml/analysis"
	"github.com/cardiolab/ctgml/pkg/errors"
)

// Config is the environment-facing configuration of the ctgml command.
type Config struct {
	Input         string  `envconfig:"INPUT"`
	OutputDir     string  `envconfig:"OUTPUT_DIR"`
	Seed          int64   `envconfig:"SEED" default:"123"`
	SplitFraction float64 `envconfig:"SPLIT_FRACTION" default:"0.75"`
	Trees         int     `envconfig:"TREES" default:"500"`
	MtryMin       int     `envconfig:"MTRY_MIN" default:"2"`
	MtryMax       int     `envconfig:"MTRY_MAX" default:"9"`
	NodeSizeMin   int     `envconfig:"NODE_SIZE_MIN" default:"1"`
	NodeSizeMax   int     `envconfig:"NODE_SIZE_MAX" default:"9"`
	BootstrapReps int     `envconfig:"BOOTSTRAP_REPS" default:"100"`
	LogLevel      string  `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads CTGML_* environment variables, falling back to the study's
// defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("CTGML", &cfg); err != nil {
		return nil, errors.Wrap(err, "config: load from environment")
	}
	return &cfg, nil
}

// Analysis converts the environment configuration into the study config.
func (c *Config) Analysis() analysis.Config {
	return analysis.Config{
		InputPath:     c.Input,
		OutputDir:     c.OutputDir,
		Seed:          c.Seed,
		SplitFraction: c.SplitFraction,
		NEstimators:   c.Trees,
		MtryMin:       c.MtryMin,
		MtryMax:       c.MtryMax,
		NodeSizeMin:   c.NodeSizeMin,
		NodeSizeMax:   c.NodeSizeMax,
		BootstrapReps: c.BootstrapReps,
	}
}
