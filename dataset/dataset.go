// Package dataset loads the cardiotocogram (CTG) table and prepares it for
// modeling: feature selection, binary label derivation and seeded
// train/test partitioning.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cardiolab/ctgml/pkg/errors"
)

// DefaultFeatureColumns are the fetal heart-rate and uterine-contraction
// summary statistics used as model inputs.
var DefaultFeatureColumns = []string{"LB", "AC", "FM", "UC", "DL", "DS", "DP", "ASTV", "ALTV"}

// DefaultLabelColumn is the 3-class fetal state code: 1 normal, 2 suspect,
// 3 pathologic.
const DefaultLabelColumn = "NSP"

// Dataset is an ordered collection of observations with a binary label.
type Dataset struct {
	Features []string
	X        *mat.Dense    // n x len(Features)
	Y        *mat.VecDense // n x 1, values in {0, 1}
}

// Options control CSV parsing and column selection.
type Options struct {
	Comma          rune
	FeatureColumns []string
	LabelColumn    string
}

// Option mutates load Options.
type Option func(*Options)

// WithComma sets the field delimiter. The CTG export is semicolon-delimited.
func WithComma(c rune) Option {
	return func(o *Options) { o.Comma = c }
}

// WithFeatureColumns overrides the selected feature columns.
func WithFeatureColumns(cols []string) Option {
	return func(o *Options) { o.FeatureColumns = cols }
}

// WithLabelColumn overrides the source label column.
func WithLabelColumn(col string) Option {
	return func(o *Options) { o.LabelColumn = col }
}

func defaultOptions() Options {
	return Options{
		Comma:          ';',
		FeatureColumns: DefaultFeatureColumns,
		LabelColumn:    DefaultLabelColumn,
	}
}

// Load reads a delimited CSV file from path and builds a Dataset.
// Missing files and missing columns fail before any computation.
func Load(path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	return Read(f, opts...)
}

// Read parses a delimited table from r and builds a Dataset. The first
// record must be a header naming every selected feature column and the
// label column.
func Read(r io.Reader, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.FeatureColumns) == 0 {
		return nil, errors.NewValidationError("FeatureColumns", "must not be empty", o.FeatureColumns)
	}

	cr := csv.NewReader(r)
	cr.Comma = o.Comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read header")
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	featureIdx := make([]int, len(o.FeatureColumns))
	for i, name := range o.FeatureColumns {
		idx, ok := colIdx[name]
		if !ok {
			return nil, errors.NewDataError("Read", name, 0, "missing column")
		}
		featureIdx[i] = idx
	}
	labelIdx, ok := colIdx[o.LabelColumn]
	if !ok {
		return nil, errors.NewDataError("Read", o.LabelColumn, 0, "missing column")
	}

	var xData []float64
	var yData []float64
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: read row %d", row)
		}
		row++

		for i, idx := range featureIdx {
			v, err := parseCell(record[idx])
			if err != nil {
				return nil, errors.NewDataError("Read", o.FeatureColumns[i], row, "malformed numeric value "+strconv.Quote(record[idx]))
			}
			xData = append(xData, v)
		}

		nsp, err := parseCell(record[labelIdx])
		if err != nil {
			return nil, errors.NewDataError("Read", o.LabelColumn, row, "malformed numeric value "+strconv.Quote(record[labelIdx]))
		}
		label, err := DeriveLabel(int(nsp))
		if err != nil {
			return nil, errors.NewDataError("Read", o.LabelColumn, row, err.Error())
		}
		yData = append(yData, label)
	}

	n := len(yData)
	if n == 0 {
		return nil, errors.NewModelError("dataset.Read", "no data rows", errors.ErrEmptyData)
	}

	return &Dataset{
		Features: append([]string(nil), o.FeatureColumns...),
		X:        mat.NewDense(n, len(o.FeatureColumns), xData),
		Y:        mat.NewVecDense(n, yData),
	}, nil
}

// parseCell parses a numeric cell, accepting the comma decimal separator
// found in European CSV exports.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

// DeriveLabel collapses the 3-class NSP code into the binary outcome:
// normal (1) maps to 0, suspect (2) and pathologic (3) map to 1.
func DeriveLabel(nsp int) (float64, error) {
	switch nsp {
	case 1:
		return 0, nil
	case 2, 3:
		return 1, nil
	default:
		return 0, errors.Newf("invalid NSP class %d, want 1, 2 or 3", nsp)
	}
}

// NumRows returns the number of observations.
func (ds *Dataset) NumRows() int {
	r, _ := ds.X.Dims()
	return r
}

// NumFeatures returns the number of feature columns.
func (ds *Dataset) NumFeatures() int {
	_, c := ds.X.Dims()
	return c
}

// ClassBalance returns the number of negative (0) and positive (1) rows.
func (ds *Dataset) ClassBalance() (neg, pos int) {
	for i := 0; i < ds.Y.Len(); i++ {
		if ds.Y.AtVec(i) == 1 {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}

// FeatureSummary holds per-feature descriptive statistics.
type FeatureSummary struct {
	Name   string
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary computes descriptive statistics for every feature column.
func (ds *Dataset) Summary() []FeatureSummary {
	n, p := ds.X.Dims()
	out := make([]FeatureSummary, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, ds.X)
		mean, std := stat.MeanStdDev(col, nil)
		min, max := col[0], col[0]
		for _, v := range col {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		out[j] = FeatureSummary{Name: ds.Features[j], Mean: mean, StdDev: std, Min: min, Max: max}
	}
	return out
}

// CorrelationMatrix returns the Pearson correlation matrix of the feature
// columns, used by the tile heatmap.
func (ds *Dataset) CorrelationMatrix() *mat.SymDense {
	_, p := ds.X.Dims()
	corr := mat.NewSymDense(p, nil)
	stat.CorrelationMatrix(corr, ds.X, nil)
	return corr
}

// Subset returns a new Dataset containing the given rows in order.
func (ds *Dataset) Subset(indices []int) *Dataset {
	_, p := ds.X.Dims()
	x := mat.NewDense(len(indices), p, nil)
	y := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		for j := 0; j < p; j++ {
			x.Set(i, j, ds.X.At(idx, j))
		}
		y.SetVec(i, ds.Y.AtVec(idx))
	}
	return &Dataset{Features: ds.Features, X: x, Y: y}
}
