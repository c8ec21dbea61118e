// Command ctgml runs the cardiotocography classification study from the
// command line. Configuration comes from CTGML_* environment variables,
// overridden by flags.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardiolab/ctgml/analysis"
	"github.com/cardiolab/ctgml/internal/config"
	"github.com/cardiolab/ctgml/pkg/errors"
	"github.com/cardiolab/ctgml/pkg/log"
)

var (
	flagInput         string
	flagOutputDir     string
	flagSeed          int64
	flagSplitFraction float64
	flagTrees         int
	flagMtryMin       int
	flagMtryMax       int
	flagNodeSizeMin   int
	flagNodeSizeMax   int
	flagBootstrapReps int
	flagLogLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "ctgml",
	Short: "Cardiotocography classification study",
	Long: `ctgml analyses a cardiotocography table (semicolon-separated CSV with an
NSP outcome column): it derives a binary abnormality label, fits a logistic
baseline and a grid-searched random forest, validates the logistic model by
bootstrap, plans sample sizes and renders the study's plots.`,
	SilenceUsage: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full study on a CTG csv file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		report, err := analysis.Run(cfg)
		if err != nil {
			slog.Error("analysis failed", log.ErrAttr(err))
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), report.Summary())
		return nil
	},
}

// buildConfig layers flags over CTGML_* environment variables and installs
// the logger.
func buildConfig(cmd *cobra.Command) (analysis.Config, error) {
	env, err := config.Load()
	if err != nil {
		return analysis.Config{}, err
	}

	level := env.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = flagLogLevel
	}
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return analysis.Config{}, errors.NewValidationError("log-level",
			"must be one of debug, info, warn, error", level)
	}
	log.SetupLogger(level)

	cfg := env.Analysis()
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputPath = flagInput
	}
	if flags.Changed("out") {
		cfg.OutputDir = flagOutputDir
	}
	if flags.Changed("seed") {
		cfg.Seed = flagSeed
	}
	if flags.Changed("split") {
		cfg.SplitFraction = flagSplitFraction
	}
	if flags.Changed("trees") {
		cfg.NEstimators = flagTrees
	}
	if flags.Changed("mtry-min") {
		cfg.MtryMin = flagMtryMin
	}
	if flags.Changed("mtry-max") {
		cfg.MtryMax = flagMtryMax
	}
	if flags.Changed("node-size-min") {
		cfg.NodeSizeMin = flagNodeSizeMin
	}
	if flags.Changed("node-size-max") {
		cfg.NodeSizeMax = flagNodeSizeMax
	}
	if flags.Changed("bootstrap") {
		cfg.BootstrapReps = flagBootstrapReps
	}
	return cfg, nil
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&flagInput, "input", "i", "", "path to the CTG csv file (semicolon separated)")
	f.StringVarP(&flagOutputDir, "out", "o", "", "directory for rendered plots (empty disables plotting)")
	f.Int64Var(&flagSeed, "seed", 123, "random seed for the split, the models and the bootstrap")
	f.Float64Var(&flagSplitFraction, "split", 0.75, "training fraction of the train/test split")
	f.IntVar(&flagTrees, "trees", 500, "trees per random forest")
	f.IntVar(&flagMtryMin, "mtry-min", 2, "smallest mtry in the grid search")
	f.IntVar(&flagMtryMax, "mtry-max", 9, "largest mtry in the grid search")
	f.IntVar(&flagNodeSizeMin, "node-size-min", 1, "smallest nodeSize in the grid search")
	f.IntVar(&flagNodeSizeMax, "node-size-max", 9, "largest nodeSize in the grid search")
	f.IntVar(&flagBootstrapReps, "bootstrap", 100, "bootstrap resamples for validating the logistic model")
	f.StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
