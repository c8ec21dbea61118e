package modelselection

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cardiolab/ctgml/pkg/errors"
)

func searchData(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		base := 0.0
		if i%2 == 1 {
			base = 4.0
			y.Set(i, 0, 1)
		}
		X.Set(i, 0, base+rng.NormFloat64())
		X.Set(i, 1, base+rng.NormFloat64())
		X.Set(i, 2, rng.NormFloat64())
	}
	return X, y
}

func TestGridSearchOOB_MinimumProperty(t *testing.T) {
	X, y := searchData(60, 1)

	res, err := GridSearchOOB(X, y, 1, 3, 1, 3,
		WithSearchNEstimators(15),
		WithSearchSeed(42),
	)
	if err != nil {
		t.Fatalf("GridSearchOOB() error = %v", err)
	}

	if got := len(res.Results); got != 9 {
		t.Fatalf("evaluated %d candidates, want 9 (3x3 grid)", got)
	}

	// The winner's error must be <= every other evaluated error.
	for _, r := range res.Results {
		if r.Failed {
			t.Fatalf("candidate %v unexpectedly failed", r.Candidate)
		}
		if res.Best.OOBError > r.OOBError {
			t.Errorf("best error %v exceeds candidate %v error %v", res.Best.OOBError, r.Candidate, r.OOBError)
		}
	}

	if res.Model == nil {
		t.Fatal("final model missing")
	}
	preds, err := res.Model.Predict(X)
	if err != nil {
		t.Fatalf("final model Predict() error = %v", err)
	}
	if preds.Len() != 60 {
		t.Errorf("final model predicted %d rows, want 60", preds.Len())
	}
}

func TestGridSearchOOB_Ordering(t *testing.T) {
	X, y := searchData(40, 2)

	res, err := GridSearchOOB(X, y, 1, 2, 1, 3,
		WithSearchNEstimators(10),
		WithSearchSeed(1),
	)
	if err != nil {
		t.Fatalf("GridSearchOOB() error = %v", err)
	}

	// mtry ascending outer, nodeSize ascending inner.
	want := []Candidate{
		{1, 1}, {1, 2}, {1, 3},
		{2, 1}, {2, 2}, {2, 3},
	}
	if len(res.Results) != len(want) {
		t.Fatalf("evaluated %d candidates, want %d", len(res.Results), len(want))
	}
	for i, r := range res.Results {
		if r.Candidate != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, r.Candidate, want[i])
		}
	}
}

func TestGridSearchOOB_Deterministic(t *testing.T) {
	X, y := searchData(50, 3)

	run := func() (Candidate, float64) {
		res, err := GridSearchOOB(X, y, 1, 3, 1, 2,
			WithSearchNEstimators(12),
			WithSearchSeed(99),
		)
		if err != nil {
			t.Fatalf("GridSearchOOB() error = %v", err)
		}
		return res.Best.Candidate, res.Best.OOBError
	}

	c1, e1 := run()
	c2, e2 := run()
	if c1 != c2 || e1 != e2 {
		t.Errorf("same seed selected (%v, %v) then (%v, %v)", c1, e1, c2, e2)
	}
}

func TestGridSearchOOB_InvalidRanges(t *testing.T) {
	X, y := searchData(20, 4)

	cases := []struct {
		name                         string
		mtryMin, mtryMax, nMin, nMax int
	}{
		{"mtry below 1", 0, 2, 1, 2},
		{"mtry beyond features", 1, 4, 1, 2},
		{"mtry inverted", 3, 1, 1, 2},
		{"nodeSize below 1", 1, 2, 0, 2},
		{"nodeSize inverted", 1, 2, 3, 1},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GridSearchOOB(X, y, tt.mtryMin, tt.mtryMax, tt.nMin, tt.nMax); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGridSearchOOB_UndefinedOOBCandidatesFail(t *testing.T) {
	// With a single row every bootstrap resample contains it, so no
	// candidate has an out-of-bag estimate. Each must be recorded as
	// failed rather than winning with a spurious zero error.
	X := mat.NewDense(1, 2, []float64{1, 2})
	y := mat.NewVecDense(1, []float64{0})

	_, err := GridSearchOOB(X, y, 1, 2, 1, 1,
		WithSearchNEstimators(3),
		WithSearchSeed(1),
	)
	if !errors.Is(err, errors.ErrAllCandidatesFailed) {
		t.Fatalf("GridSearchOOB() error = %v, want ErrAllCandidatesFailed", err)
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name    string
		results []CandidateResult
		want    Candidate
		wantErr bool
	}{
		{
			name: "Strict minimum",
			results: []CandidateResult{
				{Candidate: Candidate{2, 1}, OOBError: 0.3},
				{Candidate: Candidate{2, 2}, OOBError: 0.1},
				{Candidate: Candidate{3, 1}, OOBError: 0.2},
			},
			want: Candidate{2, 2},
		},
		{
			name: "Exact tie keeps first encountered",
			results: []CandidateResult{
				{Candidate: Candidate{2, 1}, OOBError: 0.1},
				{Candidate: Candidate{5, 5}, OOBError: 0.1},
			},
			want: Candidate{2, 1},
		},
		{
			name: "Failed candidates skipped",
			results: []CandidateResult{
				{Candidate: Candidate{2, 1}, Failed: true},
				{Candidate: Candidate{2, 2}, OOBError: 0.4},
			},
			want: Candidate{2, 2},
		},
		{
			name: "All failed",
			results: []CandidateResult{
				{Candidate: Candidate{2, 1}, Failed: true},
			},
			wantErr: true,
		},
		{
			name:    "Empty",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectBest(tt.results)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SelectBest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Candidate != tt.want {
				t.Errorf("SelectBest() = %v, want %v", got.Candidate, tt.want)
			}
		})
	}
}
