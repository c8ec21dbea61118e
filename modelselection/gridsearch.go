// Package modelselection provides hyperparameter search and internal
// validation for the analysis pipeline.
package modelselection

import (
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/ensemble"
	"github.com/cardiolab/ctgml/pkg/errors"
	"github.com/cardiolab/ctgml/pkg/log"
)

// Candidate is one (mtry, nodeSize) pair of the search grid.
type Candidate struct {
	Mtry     int
	NodeSize int
}

func (c Candidate) String() string {
	return fmt.Sprintf("(mtry=%d, nodeSize=%d)", c.Mtry, c.NodeSize)
}

// CandidateResult pairs a candidate with its out-of-bag error. Failed marks
// candidates whose forest could not be trained; their OOBError is
// meaningless.
type CandidateResult struct {
	Candidate
	OOBError float64
	Failed   bool
}

// GridSearchResult holds the ordered evaluation table, the winning
// candidate and the final model refit with it.
type GridSearchResult struct {
	Results []CandidateResult
	Best    CandidateResult
	Model   *ensemble.RandomForestClassifier
}

// GridSearchOptions configure the forests trained per candidate.
type GridSearchOptions struct {
	NEstimators int
	Seed        int64
	MaxDepth    int
}

// GridSearchOption mutates GridSearchOptions.
type GridSearchOption func(*GridSearchOptions)

// WithSearchNEstimators sets the number of trees per candidate forest.
func WithSearchNEstimators(n int) GridSearchOption {
	return func(o *GridSearchOptions) { o.NEstimators = n }
}

// WithSearchSeed sets the seed controlling every candidate forest. The same
// seed always selects the same candidate.
func WithSearchSeed(seed int64) GridSearchOption {
	return func(o *GridSearchOptions) { o.Seed = seed }
}

// WithSearchMaxDepth limits the depth of every tree grown by the search.
func WithSearchMaxDepth(depth int) GridSearchOption {
	return func(o *GridSearchOptions) { o.MaxDepth = depth }
}

// GridSearchOOB evaluates every (mtry, nodeSize) pair in the Cartesian
// product of [mtryMin, mtryMax] x [nodeMin, nodeMax], mtry ascending in the
// outer loop and nodeSize ascending in the inner loop. One forest is
// trained per candidate and its out-of-bag error recorded; the candidate
// with the smallest error wins, first-encountered order breaking exact
// ties. The winner is then refit once as the final model.
//
// A candidate whose forest fails to train is recorded as failed, reported
// through the warning handler and skipped; the search errors only when
// every candidate fails.
func GridSearchOOB(X, y mat.Matrix, mtryMin, mtryMax, nodeMin, nodeMax int, opts ...GridSearchOption) (*GridSearchResult, error) {
	o := GridSearchOptions{
		NEstimators: 500,
		Seed:        -1,
	}
	for _, opt := range opts {
		opt(&o)
	}

	_, nFeatures := X.Dims()
	if mtryMin < 1 || mtryMax > nFeatures || mtryMin > mtryMax {
		return nil, errors.NewValidationError("mtryRange",
			fmt.Sprintf("must satisfy 1 <= min <= max <= %d", nFeatures),
			fmt.Sprintf("[%d, %d]", mtryMin, mtryMax))
	}
	if nodeMin < 1 || nodeMin > nodeMax {
		return nil, errors.NewValidationError("nodeSizeRange",
			"must satisfy 1 <= min <= max",
			fmt.Sprintf("[%d, %d]", nodeMin, nodeMax))
	}

	// Candidate seeds are drawn up front so every candidate trains on an
	// independent but seed-reproducible stream.
	rootSeed := o.Seed
	if rootSeed < 0 {
		rootSeed = rand.Int63()
	}
	rootRng := rand.New(rand.NewSource(rootSeed))

	nCandidates := (mtryMax - mtryMin + 1) * (nodeMax - nodeMin + 1)
	results := make([]CandidateResult, 0, nCandidates)
	seeds := make(map[Candidate]int64, nCandidates)

	for mtry := mtryMin; mtry <= mtryMax; mtry++ {
		for nodeSize := nodeMin; nodeSize <= nodeMax; nodeSize++ {
			cand := Candidate{Mtry: mtry, NodeSize: nodeSize}
			seeds[cand] = rootRng.Int63()

			rf := ensemble.NewRandomForestClassifier(
				ensemble.WithNEstimators(o.NEstimators),
				ensemble.WithMtry(cand.Mtry),
				ensemble.WithMinNodeSize(cand.NodeSize),
				ensemble.WithRFMaxDepth(o.MaxDepth),
				ensemble.WithRFRandomState(seeds[cand]),
			)
			if err := rf.Fit(X, y); err != nil {
				errors.Warn(errors.NewCandidateFailedWarning("GridSearchOOB", cand.String(), err))
				results = append(results, CandidateResult{Candidate: cand, Failed: true})
				continue
			}

			oob, err := rf.OOBError()
			if err != nil {
				errors.Warn(errors.NewCandidateFailedWarning("GridSearchOOB", cand.String(), err))
				results = append(results, CandidateResult{Candidate: cand, Failed: true})
				continue
			}

			slog.Debug("candidate evaluated",
				log.ComponentKey, "modelselection",
				log.OperationKey, "search",
				log.MtryKey, cand.Mtry,
				log.NodeSizeKey, cand.NodeSize,
				log.OOBErrorKey, oob,
			)
			results = append(results, CandidateResult{Candidate: cand, OOBError: oob})
		}
	}

	best, err := SelectBest(results)
	if err != nil {
		return nil, err
	}

	// Retrain the winner as the final artifact; every intermediate forest
	// is discarded.
	final := ensemble.NewRandomForestClassifier(
		ensemble.WithNEstimators(o.NEstimators),
		ensemble.WithMtry(best.Mtry),
		ensemble.WithMinNodeSize(best.NodeSize),
		ensemble.WithRFMaxDepth(o.MaxDepth),
		ensemble.WithRFRandomState(seeds[best.Candidate]),
	)
	if err := final.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "modelselection: refit of winning candidate failed")
	}

	return &GridSearchResult{Results: results, Best: best, Model: final}, nil
}

// SelectBest is a pure arg-min over an ordered result slice: the first
// non-failed candidate with the strictly smallest out-of-bag error.
func SelectBest(results []CandidateResult) (CandidateResult, error) {
	var best CandidateResult
	found := false
	for _, r := range results {
		if r.Failed {
			continue
		}
		if !found || r.OOBError < best.OOBError {
			best = r
			found = true
		}
	}
	if !found {
		return CandidateResult{}, errors.Wrap(errors.ErrAllCandidatesFailed, "modelselection: grid search")
	}
	return best, nil
}
