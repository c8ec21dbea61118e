// Package tree implements a CART decision-tree classifier for binary
// labels. The forest in the ensemble package relies on two knobs exposed
// here: per-split feature subsampling (maxFeatures) and a minimum terminal
// node size (minLeaf).
package tree

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/core/model"
	"github.com/cardiolab/ctgml/pkg/errors"
)

// DecisionTreeClassifier is a binary CART classifier using the gini
// impurity criterion.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion   string
	maxDepth    int // 0 means unlimited
	minLeaf     int
	maxFeatures int // features sampled per split; 0 means all
	randomState int64

	// Fitted state
	root        *node
	nFeatures   int
	importances []float64 // accumulated impurity decrease per feature

	rand *rand.Rand
}

type node struct {
	leaf      bool
	class     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a DecisionTreeClassifier.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:       model.NewStateManager(),
		criterion:   "gini",
		minLeaf:     1,
		randomState: -1,
	}

	for _, opt := range opts {
		opt(dt)
	}

	if dt.rand == nil {
		if dt.randomState >= 0 {
			dt.rand = rand.New(rand.NewSource(dt.randomState))
		} else {
			dt.rand = rand.New(rand.NewSource(rand.Int63()))
		}
	}

	return dt
}

// WithCriterion sets the split criterion. Only "gini" is supported.
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits tree depth. Zero means unlimited.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinLeaf sets the minimum number of observations in a terminal node.
func WithMinLeaf(minLeaf int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minLeaf = minLeaf
	}
}

// WithMaxFeatures sets how many features are sampled uniformly without
// replacement as split candidates at each node. Zero means all features.
func WithMaxFeatures(maxFeatures int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = maxFeatures
	}
}

// WithTreeRandomState sets the random seed for feature subsampling.
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
		if seed >= 0 {
			dt.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit grows the tree on X (n x p) and binary labels y (n x 1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if dt.criterion != "gini" {
		return errors.NewValidationError("criterion", "only \"gini\" is supported", dt.criterion)
	}
	if dt.minLeaf < 1 {
		return errors.NewValidationError("minLeaf", "must be >= 1", dt.minLeaf)
	}
	if dt.maxFeatures < 0 || dt.maxFeatures > nFeatures {
		return errors.NewValidationError("maxFeatures", "must be in [0, n_features]", dt.maxFeatures)
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError("DecisionTreeClassifier.Fit", "labels must be 0 or 1")
		}
	}

	dt.nFeatures = nFeatures
	dt.importances = make([]float64, nFeatures)

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	dt.root = dt.grow(X, y, indices, 1, nSamples)

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// grow recursively builds the tree over the rows in indices.
func (dt *DecisionTreeClassifier) grow(X, y mat.Matrix, indices []int, depth, nTotal int) *node {
	pos := 0
	for _, idx := range indices {
		if y.At(idx, 0) == 1 {
			pos++
		}
	}
	n := len(indices)
	majority := 0.0
	if 2*pos > n {
		majority = 1.0
	}

	// Stop on purity, depth, or too few rows to honor minLeaf on both sides.
	if pos == 0 || pos == n ||
		(dt.maxDepth > 0 && depth > dt.maxDepth) ||
		n < 2*dt.minLeaf {
		return &node{leaf: true, class: majority}
	}

	feature, threshold, gain, ok := dt.bestSplit(X, y, indices, pos)
	if !ok {
		return &node{leaf: true, class: majority}
	}

	var left, right []int
	for _, idx := range indices {
		if X.At(idx, feature) <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	dt.importances[feature] += float64(n) / float64(nTotal) * gain

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      dt.grow(X, y, left, depth+1, nTotal),
		right:     dt.grow(X, y, right, depth+1, nTotal),
	}
}

// bestSplit scans a random subset of features for the threshold with the
// largest gini decrease, honoring the minimum leaf size.
func (dt *DecisionTreeClassifier) bestSplit(X, y mat.Matrix, indices []int, pos int) (feature int, threshold, gain float64, ok bool) {
	n := len(indices)
	parentImpurity := giniBinary(pos, n)

	candidates := dt.sampleFeatures()
	bestGain := 0.0

	type pair struct {
		v     float64
		label float64
	}
	pairs := make([]pair, n)

	for _, f := range candidates {
		for i, idx := range indices {
			pairs[i] = pair{v: X.At(idx, f), label: y.At(idx, 0)}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		leftPos, leftN := 0, 0
		for i := 0; i < n-1; i++ {
			leftN++
			if pairs[i].label == 1 {
				leftPos++
			}
			// Split only between distinct values.
			if pairs[i].v == pairs[i+1].v {
				continue
			}
			rightN := n - leftN
			if leftN < dt.minLeaf || rightN < dt.minLeaf {
				continue
			}

			rightPos := pos - leftPos
			impurity := float64(leftN)/float64(n)*giniBinary(leftPos, leftN) +
				float64(rightN)/float64(n)*giniBinary(rightPos, rightN)
			g := parentImpurity - impurity
			if g > bestGain {
				bestGain = g
				feature = f
				threshold = (pairs[i].v + pairs[i+1].v) / 2
				ok = true
			}
		}
	}

	return feature, threshold, bestGain, ok
}

// sampleFeatures picks maxFeatures feature indices without replacement, or
// all features when maxFeatures is zero.
func (dt *DecisionTreeClassifier) sampleFeatures() []int {
	if dt.maxFeatures == 0 || dt.maxFeatures == dt.nFeatures {
		all := make([]int, dt.nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return dt.rand.Perm(dt.nFeatures)[:dt.maxFeatures]
}

func giniBinary(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// Predict returns predicted labels in {0, 1} for each row of X.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}

	n, p := X.Dims()
	if p != dt.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures, p, 1)
	}

	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, dt.predictRow(X, i))
	}
	return out, nil
}

func (dt *DecisionTreeClassifier) predictRow(X mat.Matrix, row int) float64 {
	nd := dt.root
	for !nd.leaf {
		if X.At(row, nd.feature) <= nd.threshold {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd.class
}

// FeatureImportances returns the accumulated impurity decrease per feature,
// normalized to sum to one. A tree with no splits yields all zeros.
func (dt *DecisionTreeClassifier) FeatureImportances() ([]float64, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "FeatureImportances")
	}

	out := append([]float64(nil), dt.importances...)
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out, nil
}
