// Package log defines standard attribute keys for the analysis pipeline.
//
// Using these keys keeps log output uniform across the dataset, model and
// search packages, so runs can be filtered and compared by seed, candidate
// or metric without parsing message strings.
package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LogisticRegression", "RandomForestClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "search"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dataset", "ensemble", "modelselection"
	ComponentKey = "ml.component"
)

// Data shape and provenance.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// SeedKey is the random seed controlling a split, resample or forest.
	SeedKey = "data.seed"

	// InputPathKey is the source file of a loaded dataset.
	InputPathKey = "data.input_path"
)

// Search and evaluation metrics.
const (
	// MtryKey is the per-split feature sample count of a forest candidate.
	MtryKey = "search.mtry"

	// NodeSizeKey is the minimum terminal node size of a forest candidate.
	NodeSizeKey = "search.node_size"

	// OOBErrorKey is the out-of-bag misclassification rate of a candidate.
	OOBErrorKey = "metrics.oob_error"

	// AccuracyKey is classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// SensitivityKey is the true positive rate at the decision threshold.
	SensitivityKey = "metrics.sensitivity"

	// SpecificityKey is the true negative rate at the decision threshold.
	SpecificityKey = "metrics.specificity"

	// AUCKey is the area under the ROC curve.
	AUCKey = "metrics.auc"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
