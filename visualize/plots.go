// Package visualize renders the study's charts with gonum/plot: the
// correlation heatmap, class-balance bars, confusion-matrix tiles, variable
// importances, OOB-error curves and sample-size curves. Every function
// writes a PNG to the given path.
package visualize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cardiolab/ctgml/metrics"
	"github.com/cardiolab/ctgml/modelselection"
	"github.com/cardiolab/ctgml/pkg/errors"
	"github.com/cardiolab/ctgml/samplesize"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4.5 * vg.Inch
)

// matrixGrid adapts a square matrix to plotter.GridXYZ. NaN cells (e.g.
// correlations of constant columns) render as zero.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g matrixGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// nominalTicks labels integer positions with the given names.
func nominalTicks(names []string) plot.ConstantTicks {
	ticks := make([]plot.Tick, len(names))
	for i, name := range names {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	return plot.ConstantTicks(ticks)
}

// CorrelationHeatmap renders the feature-correlation matrix as a tile
// heatmap.
func CorrelationHeatmap(corr *mat.SymDense, labels []string, path string) error {
	n, _ := corr.Dims()
	if n == 0 {
		return errors.NewValueError("CorrelationHeatmap", "empty matrix")
	}
	if len(labels) != n {
		return errors.NewDimensionError("CorrelationHeatmap", n, len(labels), 1)
	}

	p := plot.New()
	p.Title.Text = "Feature correlation"

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(matrixGrid{m: corr}, pal)
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	p.X.Tick.Marker = nominalTicks(labels)
	p.Y.Tick.Marker = nominalTicks(labels)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = -0.5

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "visualize: save correlation heatmap")
}

// ClassBalanceBar renders the negative/positive class counts as a bar
// chart.
func ClassBalanceBar(neg, pos int, path string) error {
	if neg < 0 || pos < 0 || neg+pos == 0 {
		return errors.NewValueError("ClassBalanceBar", "class counts must be non-negative and not all zero")
	}

	p := plot.New()
	p.Title.Text = "Class balance"
	p.Y.Label.Text = "Rows"

	bars, err := plotter.NewBarChart(plotter.Values{float64(neg), float64(pos)}, vg.Points(40))
	if err != nil {
		return errors.Wrap(err, "visualize: class balance bars")
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX("normal (0)", "abnormal (1)")

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "visualize: save class balance")
}

// ConfusionMatrixPlot renders the 2x2 confusion counts as a tile chart with
// in-cell count labels.
func ConfusionMatrixPlot(cm *metrics.ConfusionMatrix, title, path string) error {
	if cm == nil || cm.Total() == 0 {
		return errors.NewValueError("ConfusionMatrixPlot", "empty confusion matrix")
	}

	counts := cm.Counts()
	grid := mat.NewDense(2, 2, []float64{
		float64(counts[0][0]), float64(counts[0][1]),
		float64(counts[1][0]), float64(counts[1][1]),
	})

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(matrixGrid{m: grid}, pal)
	p.Add(hm)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{
			{X: 0, Y: 0}, {X: 1, Y: 0},
			{X: 0, Y: 1}, {X: 1, Y: 1},
		},
		Labels: []string{
			fmt.Sprintf("%d", counts[0][0]), fmt.Sprintf("%d", counts[0][1]),
			fmt.Sprintf("%d", counts[1][0]), fmt.Sprintf("%d", counts[1][1]),
		},
	})
	if err != nil {
		return errors.Wrap(err, "visualize: confusion labels")
	}
	p.Add(labels)

	p.X.Tick.Marker = nominalTicks([]string{"0", "1"})
	p.Y.Tick.Marker = nominalTicks([]string{"0", "1"})

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "visualize: save confusion matrix")
}

// ImportanceBar renders normalized variable importances as a bar chart,
// preserving the given feature order.
func ImportanceBar(names []string, importances []float64, path string) error {
	if len(names) == 0 {
		return errors.NewValueError("ImportanceBar", "no features")
	}
	if len(names) != len(importances) {
		return errors.NewDimensionError("ImportanceBar", len(names), len(importances), 1)
	}

	p := plot.New()
	p.Title.Text = "Variable importance (mean decrease in gini)"
	p.Y.Label.Text = "Importance"

	bars, err := plotter.NewBarChart(plotter.Values(importances), vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "visualize: importance bars")
	}
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = -0.5

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "visualize: save importances")
}

// OOBCurves renders out-of-bag error against mtry, one line per nodeSize.
// Failed candidates are omitted from their line.
func OOBCurves(results []modelselection.CandidateResult, path string) error {
	if len(results) == 0 {
		return errors.NewValueError("OOBCurves", "no results")
	}

	byNodeSize := make(map[int]plotter.XYs)
	var nodeSizes []int
	for _, r := range results {
		if r.Failed {
			continue
		}
		if _, seen := byNodeSize[r.NodeSize]; !seen {
			nodeSizes = append(nodeSizes, r.NodeSize)
		}
		byNodeSize[r.NodeSize] = append(byNodeSize[r.NodeSize], plotter.XY{X: float64(r.Mtry), Y: r.OOBError})
	}
	if len(nodeSizes) == 0 {
		return errors.NewValueError("OOBCurves", "every candidate failed")
	}

	p := plot.New()
	p.Title.Text = "Out-of-bag error by mtry"
	p.X.Label.Text = "mtry"
	p.Y.Label.Text = "OOB error"
	p.Legend.Top = true

	args := make([]interface{}, 0, 2*len(nodeSizes))
	for _, ns := range nodeSizes {
		args = append(args, fmt.Sprintf("nodeSize=%d", ns), byNodeSize[ns])
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return errors.Wrap(err, "visualize: oob curves")
	}

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "visualize: save oob curves")
}

// SampleSizeCurves renders required sample size against the odds ratio, one
// line per power level.
func SampleSizeCurves(points []samplesize.CurvePoint, path string) error {
	if len(points) == 0 {
		return errors.NewValueError("SampleSizeCurves", "no points")
	}

	byPower := make(map[float64]plotter.XYs)
	var powers []float64
	for _, pt := range points {
		if _, seen := byPower[pt.Power]; !seen {
			powers = append(powers, pt.Power)
		}
		byPower[pt.Power] = append(byPower[pt.Power], plotter.XY{X: pt.OddsRatio, Y: float64(pt.N)})
	}

	p := plot.New()
	p.Title.Text = "Required sample size for logistic regression"
	p.X.Label.Text = "Odds ratio per SD"
	p.Y.Label.Text = "n"
	p.Legend.Top = true

	args := make([]interface{}, 0, 2*len(powers))
	for _, power := range powers {
		args = append(args, fmt.Sprintf("power=%.2f", power), byPower[power])
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return errors.Wrap(err, "visualize: sample-size curves")
	}

	return errors.Wrap(p.Save(plotWidth, plotHeight, path), "visualize: save sample-size curves")
}
