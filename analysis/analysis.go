// Package analysis runs the end-to-end cardiotocography study: descriptive
// statistics, train/test split, a logistic baseline, the out-of-bag grid
// search over random forests, evaluation, sample-size planning and
// bootstrap validation.
package analysis

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/dataset"
	"github.com/cardiolab/ctgml/linear"
	"github.com/cardiolab/ctgml/metrics"
	"github.com/cardiolab/ctgml/modelselection"
	"github.com/cardiolab/ctgml/pkg/errors"
	"github.com/cardiolab/ctgml/pkg/log"
	"github.com/cardiolab/ctgml/preprocessing"
	"github.com/cardiolab/ctgml/samplesize"
	"github.com/cardiolab/ctgml/visualize"
)

// Config holds every knob of the study. Zero values are invalid; start
// from DefaultConfig.
type Config struct {
	InputPath     string
	OutputDir     string // empty disables plot rendering
	Seed          int64
	SplitFraction float64
	NEstimators   int
	MtryMin       int
	MtryMax       int
	NodeSizeMin   int
	NodeSizeMax   int
	BootstrapReps int
}

// DefaultConfig mirrors the original study: 75/25 split under seed 123,
// 500-tree forests, mtry 2..9, nodeSize 1..9, 100 bootstrap resamples.
func DefaultConfig() Config {
	return Config{
		Seed:          123,
		SplitFraction: 0.75,
		NEstimators:   500,
		MtryMin:       2,
		MtryMax:       9,
		NodeSizeMin:   1,
		NodeSizeMax:   9,
		BootstrapReps: 100,
	}
}

// Validate reports configuration errors before any computation starts.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.NewValidationError("InputPath", "must not be empty", c.InputPath)
	}
	if c.SplitFraction <= 0 || c.SplitFraction >= 1 {
		return errors.NewValidationError("SplitFraction", "must be in (0, 1)", c.SplitFraction)
	}
	if c.NEstimators < 1 {
		return errors.NewValidationError("NEstimators", "must be >= 1", c.NEstimators)
	}
	if c.BootstrapReps < 1 {
		return errors.NewValidationError("BootstrapReps", "must be >= 1", c.BootstrapReps)
	}
	return nil
}

// Evaluation holds confusion-matrix derived test-set metrics of one model.
type Evaluation struct {
	Confusion   *metrics.ConfusionMatrix
	Accuracy    float64
	Sensitivity float64
	Specificity float64
	AUC         float64 // zero for models without probability output
}

// Report is the study outcome: everything the textual summary and the
// plots are rendered from.
type Report struct {
	Rows      int
	Features  []string
	Summaries []dataset.FeatureSummary
	ClassNeg  int
	ClassPos  int
	TrainRows int
	TestRows  int

	Logistic Evaluation
	Forest   Evaluation

	Search      []modelselection.CandidateResult
	Best        modelselection.CandidateResult
	Importances []float64
	Bootstrap   *modelselection.ValidationResult
	SampleSizes []samplesize.CurvePoint
	PlotPaths   []string
}

// Run executes the full study described by cfg.
func Run(cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	ds, err := dataset.Load(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	neg, pos := ds.ClassBalance()
	slog.Info("dataset loaded",
		log.ComponentKey, "analysis",
		log.InputPathKey, cfg.InputPath,
		log.SamplesKey, ds.NumRows(),
		log.FeaturesKey, ds.NumFeatures(),
	)

	report := &Report{
		Rows:      ds.NumRows(),
		Features:  ds.Features,
		Summaries: ds.Summary(),
		ClassNeg:  neg,
		ClassPos:  pos,
	}

	train, test, err := dataset.TrainTestSplit(ds, cfg.SplitFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	report.TrainRows = train.NumRows()
	report.TestRows = test.NumRows()

	if err := runLogistic(cfg, train, test, report); err != nil {
		return nil, err
	}
	if err := runForestSearch(cfg, train, test, report); err != nil {
		return nil, err
	}
	if err := runBootstrap(cfg, ds, report); err != nil {
		return nil, err
	}
	if err := runSampleSize(ds, report); err != nil {
		return nil, err
	}

	if cfg.OutputDir != "" {
		if err := renderPlots(cfg, ds, report); err != nil {
			return nil, err
		}
	}

	slog.Info("study complete",
		log.ComponentKey, "analysis",
		log.DurationMsKey, time.Since(started).Milliseconds(),
		log.MtryKey, report.Best.Mtry,
		log.NodeSizeKey, report.Best.NodeSize,
		log.OOBErrorKey, report.Best.OOBError,
	)
	return report, nil
}

// runLogistic fits the standardized logistic baseline on the training rows
// and evaluates it on the test rows.
func runLogistic(cfg Config, train, test *dataset.Dataset, report *Report) error {
	scaler := preprocessing.NewStandardScalerDefault()
	trainX, err := scaler.FitTransform(train.X)
	if err != nil {
		return err
	}
	testX, err := scaler.Transform(test.X)
	if err != nil {
		return err
	}

	lr := linear.NewLogisticRegression(
		linear.WithLRMaxIter(1000),
		linear.WithLRRandomState(cfg.Seed),
	)
	if err := lr.Fit(trainX, train.Y); err != nil {
		return err
	}

	preds, err := lr.Predict(testX)
	if err != nil {
		return err
	}
	eval, err := evaluate(test.Y, preds)
	if err != nil {
		return err
	}

	probas, err := lr.PredictProba(testX)
	if err != nil {
		return err
	}
	scores := mat.NewVecDense(test.NumRows(), nil)
	for i := 0; i < test.NumRows(); i++ {
		scores.SetVec(i, probas.At(i, 1))
	}
	eval.AUC, err = metrics.AUC(test.Y, scores)
	if err != nil {
		return err
	}

	report.Logistic = eval
	slog.Info("logistic baseline evaluated",
		log.ComponentKey, "analysis",
		log.ModelNameKey, "LogisticRegression",
		log.AccuracyKey, eval.Accuracy,
		log.SensitivityKey, eval.Sensitivity,
		log.SpecificityKey, eval.Specificity,
		log.AUCKey, eval.AUC,
	)
	return nil
}

// runForestSearch grid-searches (mtry, nodeSize) by OOB error on the
// training rows and evaluates the refit winner on the test rows.
func runForestSearch(cfg Config, train, test *dataset.Dataset, report *Report) error {
	res, err := modelselection.GridSearchOOB(train.X, train.Y,
		cfg.MtryMin, cfg.MtryMax, cfg.NodeSizeMin, cfg.NodeSizeMax,
		modelselection.WithSearchNEstimators(cfg.NEstimators),
		modelselection.WithSearchSeed(cfg.Seed),
	)
	if err != nil {
		return err
	}
	report.Search = res.Results
	report.Best = res.Best

	preds, err := res.Model.Predict(test.X)
	if err != nil {
		return err
	}
	eval, err := evaluate(test.Y, preds)
	if err != nil {
		return err
	}
	report.Forest = eval

	report.Importances, err = res.Model.FeatureImportances()
	if err != nil {
		return err
	}

	slog.Info("forest selected",
		log.ComponentKey, "analysis",
		log.ModelNameKey, "RandomForestClassifier",
		log.MtryKey, res.Best.Mtry,
		log.NodeSizeKey, res.Best.NodeSize,
		log.OOBErrorKey, res.Best.OOBError,
		log.AccuracyKey, eval.Accuracy,
	)
	return nil
}

// runBootstrap validates a logistic model on the full standardized dataset.
func runBootstrap(cfg Config, ds *dataset.Dataset, report *Report) error {
	scaler := preprocessing.NewStandardScalerDefault()
	X, err := scaler.FitTransform(ds.X)
	if err != nil {
		return err
	}

	newModel := func() *linear.LogisticRegression {
		return linear.NewLogisticRegression(
			linear.WithLRMaxIter(1000),
			linear.WithLRRandomState(cfg.Seed),
		)
	}
	report.Bootstrap, err = modelselection.BootstrapValidate(newModel, X, ds.Y, cfg.BootstrapReps, cfg.Seed)
	return err
}

// runSampleSize plans sample sizes around the observed event rate.
func runSampleSize(ds *dataset.Dataset, report *Report) error {
	neg, pos := ds.ClassBalance()
	eventRate := float64(pos) / float64(neg+pos)

	base := samplesize.LogisticPlan{EventRate: eventRate, Alpha: 0.05}
	points, err := samplesize.Curve(base,
		[]float64{1.2, 1.3, 1.4, 1.5, 1.75, 2.0, 2.5},
		[]float64{0.8, 0.9},
	)
	if err != nil {
		return err
	}
	report.SampleSizes = points
	return nil
}

// renderPlots writes every chart of the study into cfg.OutputDir.
func renderPlots(cfg Config, ds *dataset.Dataset, report *Report) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "analysis: create output dir")
	}

	type renderStep struct {
		name   string
		render func(path string) error
	}
	steps := []renderStep{
		{"correlation_heatmap.png", func(p string) error {
			return visualize.CorrelationHeatmap(ds.CorrelationMatrix(), ds.Features, p)
		}},
		{"class_balance.png", func(p string) error {
			return visualize.ClassBalanceBar(report.ClassNeg, report.ClassPos, p)
		}},
		{"confusion_logistic.png", func(p string) error {
			return visualize.ConfusionMatrixPlot(report.Logistic.Confusion, "Logistic regression, test set", p)
		}},
		{"confusion_forest.png", func(p string) error {
			return visualize.ConfusionMatrixPlot(report.Forest.Confusion, "Random forest, test set", p)
		}},
		{"variable_importance.png", func(p string) error {
			return visualize.ImportanceBar(report.Features, report.Importances, p)
		}},
		{"oob_by_mtry.png", func(p string) error {
			return visualize.OOBCurves(report.Search, p)
		}},
		{"sample_size.png", func(p string) error {
			return visualize.SampleSizeCurves(report.SampleSizes, p)
		}},
	}

	for _, step := range steps {
		path := filepath.Join(cfg.OutputDir, step.name)
		if err := step.render(path); err != nil {
			return err
		}
		report.PlotPaths = append(report.PlotPaths, path)
	}
	return nil
}

// evaluate derives confusion-matrix metrics from predictions.
func evaluate(yTrue *mat.VecDense, yPred *mat.VecDense) (Evaluation, error) {
	cm, err := metrics.NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		Confusion:   cm,
		Accuracy:    cm.Accuracy(),
		Sensitivity: cm.Sensitivity(),
		Specificity: cm.Specificity(),
	}, nil
}
