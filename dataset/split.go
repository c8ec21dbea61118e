package dataset

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cardiolab/ctgml/pkg/errors"
)

// TrainSize returns the number of training rows for a split fraction:
// floor(fraction * n).
func TrainSize(n int, fraction float64) int {
	return int(math.Floor(fraction * float64(n)))
}

// TrainTestSplit partitions the dataset into disjoint train and test
// subsets by uniform random sampling without replacement. The same seed
// always produces the same partition. Row order within each subset follows
// the original dataset order.
func TrainTestSplit(ds *Dataset, fraction float64, seed int64) (train, test *Dataset, err error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, nil, errors.NewModelError("dataset.TrainTestSplit", "empty dataset", errors.ErrEmptyData)
	}
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, errors.NewValidationError("fraction", "must be in (0, 1)", fraction)
	}

	n := ds.NumRows()
	k := TrainSize(n, fraction)
	if k == 0 || k == n {
		return nil, nil, errors.NewValidationError("fraction", "produces a degenerate partition", fraction)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	trainIdx := append([]int(nil), perm[:k]...)
	testIdx := append([]int(nil), perm[k:]...)
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	return ds.Subset(trainIdx), ds.Subset(testIdx), nil
}
