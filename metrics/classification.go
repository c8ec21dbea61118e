// Package metrics provides evaluation metrics for binary classifiers.
package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/pkg/errors"
)

// ConfusionMatrix holds the four outcome counts of a binary classifier.
// Labels must be 0 (negative) and 1 (positive).
type ConfusionMatrix struct {
	TruePositive  int
	TrueNegative  int
	FalsePositive int
	FalseNegative int
}

// NewConfusionMatrix tallies predictions against true labels.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("NewConfusionMatrix", n, yPred.Len(), 0)
	}

	cm := &ConfusionMatrix{}
	for i := 0; i < n; i++ {
		truth, pred := yTrue.AtVec(i), yPred.AtVec(i)
		if !isBinary(truth) || !isBinary(pred) {
			return nil, errors.NewValueError("NewConfusionMatrix",
				fmt.Sprintf("labels must be 0 or 1, got (%v, %v) at row %d", truth, pred, i))
		}
		switch {
		case truth == 1 && pred == 1:
			cm.TruePositive++
		case truth == 0 && pred == 0:
			cm.TrueNegative++
		case truth == 0 && pred == 1:
			cm.FalsePositive++
		default:
			cm.FalseNegative++
		}
	}
	return cm, nil
}

func isBinary(v float64) bool {
	return v == 0 || v == 1
}

// Total returns the number of observations tallied. It always equals the
// length of the vectors the matrix was built from.
func (cm *ConfusionMatrix) Total() int {
	return cm.TruePositive + cm.TrueNegative + cm.FalsePositive + cm.FalseNegative
}

// Accuracy returns the fraction of correct predictions.
func (cm *ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	return float64(cm.TruePositive+cm.TrueNegative) / float64(total)
}

// Sensitivity returns the true positive rate, TP / (TP + FN). When no
// positive observations exist the metric is undefined and 0 is returned
// with an UndefinedMetricWarning.
func (cm *ConfusionMatrix) Sensitivity() float64 {
	denom := cm.TruePositive + cm.FalseNegative
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("sensitivity", "no positive samples", 0))
		return 0
	}
	return float64(cm.TruePositive) / float64(denom)
}

// Specificity returns the true negative rate, TN / (TN + FP). When no
// negative observations exist the metric is undefined and 0 is returned
// with an UndefinedMetricWarning.
func (cm *ConfusionMatrix) Specificity() float64 {
	denom := cm.TrueNegative + cm.FalsePositive
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("specificity", "no negative samples", 0))
		return 0
	}
	return float64(cm.TrueNegative) / float64(denom)
}

// Counts returns the matrix as a 2x2 grid in row-major order
// [[TN, FP], [FN, TP]], rows indexed by true label.
func (cm *ConfusionMatrix) Counts() [2][2]int {
	return [2][2]int{
		{cm.TrueNegative, cm.FalsePositive},
		{cm.FalseNegative, cm.TruePositive},
	}
}

func (cm *ConfusionMatrix) String() string {
	return fmt.Sprintf("TN=%d FP=%d FN=%d TP=%d", cm.TrueNegative, cm.FalsePositive, cm.FalseNegative, cm.TruePositive)
}

// Accuracy returns the fraction of predictions equal to the true labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AUC computes the area under the ROC curve from binary labels and
// predicted scores using the rank statistic, with tied scores contributing
// half. A single-class label vector makes the metric undefined; 0.5 is
// returned with an UndefinedMetricWarning.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AUC", "empty vector")
	}
	if yScore.Len() != n {
		return 0, errors.NewDimensionError("AUC", n, yScore.Len(), 0)
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return 0, errors.NewValueError("AUC",
				fmt.Sprintf("labels must be 0 or 1, got %v at row %d", yTrue.AtVec(i), i))
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present", 0.5))
		return 0.5, nil
	}

	// Rank scores ascending; ties share the average rank.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSum += ranks[i]
		}
	}

	// Mann-Whitney U statistic normalized by the number of pairs.
	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}
