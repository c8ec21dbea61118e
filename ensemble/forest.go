// Package ensemble implements a random-forest classifier with out-of-bag
// error estimation, the model family searched over by the hyperparameter
// grid in modelselection.
package ensemble

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/core/model"
	"github.com/cardiolab/ctgml/core/parallel"
	"github.com/cardiolab/ctgml/pkg/errors"
	"github.com/cardiolab/ctgml/tree"
)

// RandomForestClassifier is a bootstrap-bagged ensemble of CART trees with
// majority-vote prediction.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators int
	mtry        int // features sampled per split; 0 means floor(sqrt(p))
	minNodeSize int // minimum terminal node size
	maxDepth    int
	randomState int64

	// Fitted state
	trees       []*tree.DecisionTreeClassifier
	nFeatures   int
	oobError    float64
	oobVotes    int // rows that received at least one out-of-bag vote
	importances []float64
}

// RandomForestOption is a functional option for RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a RandomForestClassifier with 500 trees.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:       model.NewStateManager(),
		nEstimators: 500,
		minNodeSize: 1,
		randomState: -1,
	}

	for _, opt := range opts {
		opt(rf)
	}

	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithMtry sets the number of features sampled at each split. Zero selects
// the default floor(sqrt(n_features)).
func WithMtry(mtry int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.mtry = mtry
	}
}

// WithMinNodeSize sets the minimum terminal node size of every tree.
func WithMinNodeSize(size int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minNodeSize = size
	}
}

// WithRFMaxDepth limits the depth of every tree. Zero means unlimited.
func WithRFMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithRFRandomState sets the seed controlling bootstrap resampling and
// per-split feature sampling. The same seed reproduces the same forest.
func WithRFRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) {
		rf.randomState = seed
	}
}

// Fit trains the forest on X (n x p) and binary labels y (n x 1), and
// computes the out-of-bag error and gini feature importances.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "y must be a column vector")
	}
	if rf.nEstimators < 1 {
		return errors.NewValidationError("nEstimators", "must be >= 1", rf.nEstimators)
	}
	if rf.mtry < 0 || rf.mtry > nFeatures {
		return errors.NewValidationError("mtry", "must be in [0, n_features]", rf.mtry)
	}
	if rf.minNodeSize < 1 {
		return errors.NewValidationError("minNodeSize", "must be >= 1", rf.minNodeSize)
	}

	mtry := rf.mtry
	if mtry == 0 {
		mtry = int(math.Floor(math.Sqrt(float64(nFeatures))))
	}

	// Per-tree seeds are drawn up front from the root seed so that tree
	// training stays reproducible regardless of goroutine scheduling.
	rootSeed := rf.randomState
	if rootSeed < 0 {
		rootSeed = rand.Int63()
	}
	rootRng := rand.New(rand.NewSource(rootSeed))
	seeds := make([]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = rootRng.Int63()
	}

	rf.nFeatures = nFeatures
	rf.trees = make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	inBag := make([][]bool, rf.nEstimators)

	var (
		errMu    sync.Mutex
		firstErr error
	)
	parallel.ParallelizeWithThreshold(rf.nEstimators, 1, func(start, end int) {
		for t := start; t < end; t++ {
			rng := rand.New(rand.NewSource(seeds[t]))

			bag := make([]bool, nSamples)
			bootIdx := make([]int, nSamples)
			for i := range bootIdx {
				idx := rng.Intn(nSamples)
				bootIdx[i] = idx
				bag[idx] = true
			}

			bx := mat.NewDense(nSamples, nFeatures, nil)
			by := mat.NewDense(nSamples, 1, nil)
			for i, idx := range bootIdx {
				for j := 0; j < nFeatures; j++ {
					bx.Set(i, j, X.At(idx, j))
				}
				by.Set(i, 0, y.At(idx, 0))
			}

			dt := tree.NewDecisionTreeClassifier(
				tree.WithCriterion("gini"),
				tree.WithMaxFeatures(mtry),
				tree.WithMinLeaf(rf.minNodeSize),
				tree.WithMaxDepth(rf.maxDepth),
				tree.WithTreeRandomState(rng.Int63()),
			)
			if err := dt.Fit(bx, by); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}
			rf.trees[t] = dt
			inBag[t] = bag
		}
	})
	if firstErr != nil {
		return errors.Wrap(firstErr, "ensemble: tree training failed")
	}

	if err := rf.computeOOB(X, y, inBag); err != nil {
		return err
	}
	rf.computeImportances()

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// computeOOB estimates generalization error from rows excluded by each
// tree's bootstrap resample.
func (rf *RandomForestClassifier) computeOOB(X, y mat.Matrix, inBag [][]bool) error {
	nSamples, _ := X.Dims()
	votesPos := make([]int, nSamples)
	votesTotal := make([]int, nSamples)

	for t, dt := range rf.trees {
		var oobRows []int
		for i := 0; i < nSamples; i++ {
			if !inBag[t][i] {
				oobRows = append(oobRows, i)
			}
		}
		if len(oobRows) == 0 {
			continue
		}

		sub := mat.NewDense(len(oobRows), rf.nFeatures, nil)
		for i, idx := range oobRows {
			for j := 0; j < rf.nFeatures; j++ {
				sub.Set(i, j, X.At(idx, j))
			}
		}
		preds, err := dt.Predict(sub)
		if err != nil {
			return err
		}
		for i, idx := range oobRows {
			votesTotal[idx]++
			if preds.AtVec(i) == 1 {
				votesPos[idx]++
			}
		}
	}

	counted, wrong := 0, 0
	for i := 0; i < nSamples; i++ {
		if votesTotal[i] == 0 {
			continue
		}
		counted++
		pred := 0.0
		// Majority vote; an exact tie goes to the negative class.
		if 2*votesPos[i] > votesTotal[i] {
			pred = 1.0
		}
		if pred != y.At(i, 0) {
			wrong++
		}
	}

	rf.oobVotes = counted
	if counted == 0 {
		// OOBError reports this as an error so a search cannot mistake
		// the unset estimate for a perfect score.
		rf.oobError = 0
		return nil
	}
	rf.oobError = float64(wrong) / float64(counted)
	return nil
}

// computeImportances averages the per-tree normalized gini importances.
func (rf *RandomForestClassifier) computeImportances() {
	rf.importances = make([]float64, rf.nFeatures)
	counted := 0
	for _, dt := range rf.trees {
		imp, err := dt.FeatureImportances()
		if err != nil {
			continue
		}
		for j, v := range imp {
			rf.importances[j] += v
		}
		counted++
	}
	if counted == 0 {
		return
	}
	var total float64
	for j := range rf.importances {
		rf.importances[j] /= float64(counted)
		total += rf.importances[j]
	}
	if total > 0 {
		for j := range rf.importances {
			rf.importances[j] /= total
		}
	}
}

// Predict returns majority-vote labels in {0, 1} for each row of X. An
// exact tie goes to the negative class.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !rf.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "Predict")
	}

	n, p := X.Dims()
	if p != rf.nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.Predict", rf.nFeatures, p, 1)
	}

	votesPos := make([]int, n)
	for _, dt := range rf.trees {
		preds, err := dt.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if preds.AtVec(i) == 1 {
				votesPos[i]++
			}
		}
	}

	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if 2*votesPos[i] > len(rf.trees) {
			out.SetVec(i, 1)
		}
	}
	return out, nil
}

// OOBError returns the out-of-bag misclassification rate computed during
// Fit. It fails when no row was ever excluded from a bootstrap resample,
// since the estimate is undefined in that case.
func (rf *RandomForestClassifier) OOBError() (float64, error) {
	if !rf.state.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestClassifier", "OOBError")
	}
	if rf.oobVotes == 0 {
		return 0, errors.NewValueError("RandomForestClassifier.OOBError", "no out-of-bag samples")
	}
	return rf.oobError, nil
}

// FeatureImportances returns the forest's normalized gini importances.
func (rf *RandomForestClassifier) FeatureImportances() ([]float64, error) {
	if !rf.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "FeatureImportances")
	}
	return append([]float64(nil), rf.importances...), nil
}

// NEstimators returns the number of trees in the forest.
func (rf *RandomForestClassifier) NEstimators() int {
	return rf.nEstimators
}
