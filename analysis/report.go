package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Summary renders the report as the study's textual output.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cardiotocography study\n")
	fmt.Fprintf(&b, "======================\n\n")

	fmt.Fprintf(&b, "Dataset: %d rows, %d features\n", r.Rows, len(r.Features))
	total := r.ClassNeg + r.ClassPos
	fmt.Fprintf(&b, "Class balance: %d normal (%.2f%%), %d abnormal (%.2f%%)\n",
		r.ClassNeg, 100*float64(r.ClassNeg)/float64(total),
		r.ClassPos, 100*float64(r.ClassPos)/float64(total))
	fmt.Fprintf(&b, "Partition: %d train / %d test\n\n", r.TrainRows, r.TestRows)

	fmt.Fprintf(&b, "Feature summary\n")
	for _, s := range r.Summaries {
		fmt.Fprintf(&b, "  %-6s mean=%9.3f sd=%9.3f min=%9.3f max=%9.3f\n",
			s.Name, s.Mean, s.StdDev, s.Min, s.Max)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Logistic regression (test set)\n")
	writeEvaluation(&b, r.Logistic, true)

	fmt.Fprintf(&b, "Random forest grid search (out-of-bag error)\n")
	fmt.Fprintf(&b, "  candidates evaluated: %d\n", len(r.Search))
	fmt.Fprintf(&b, "  best: mtry=%d nodeSize=%d oob=%.4f\n", r.Best.Mtry, r.Best.NodeSize, r.Best.OOBError)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Random forest (test set)\n")
	writeEvaluation(&b, r.Forest, false)

	fmt.Fprintf(&b, "Variable importance\n")
	for _, row := range r.rankedImportances() {
		fmt.Fprintf(&b, "  %-6s %.4f\n", row.name, row.importance)
	}
	b.WriteString("\n")

	if r.Bootstrap != nil {
		fmt.Fprintf(&b, "Bootstrap validation of the logistic model (%d/%d resamples)\n",
			r.Bootstrap.Completed, r.Bootstrap.B)
		fmt.Fprintf(&b, "  accuracy: apparent=%.4f optimism=%.4f corrected=%.4f\n",
			r.Bootstrap.ApparentAccuracy, r.Bootstrap.OptimismAccuracy, r.Bootstrap.CorrectedAccuracy)
		fmt.Fprintf(&b, "  auc:      apparent=%.4f optimism=%.4f corrected=%.4f\n",
			r.Bootstrap.ApparentAUC, r.Bootstrap.OptimismAUC, r.Bootstrap.CorrectedAUC)
		b.WriteString("\n")
	}

	if len(r.SampleSizes) > 0 {
		fmt.Fprintf(&b, "Sample-size planning (alpha=0.05, event rate from data)\n")
		for _, pt := range r.SampleSizes {
			fmt.Fprintf(&b, "  OR=%.2f power=%.2f -> n=%d\n", pt.OddsRatio, pt.Power, pt.N)
		}
		b.WriteString("\n")
	}

	if len(r.PlotPaths) > 0 {
		fmt.Fprintf(&b, "Plots written\n")
		for _, p := range r.PlotPaths {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}

	return b.String()
}

func writeEvaluation(b *strings.Builder, e Evaluation, withAUC bool) {
	fmt.Fprintf(b, "  confusion: %s\n", e.Confusion)
	fmt.Fprintf(b, "  accuracy=%.4f sensitivity=%.4f specificity=%.4f", e.Accuracy, e.Sensitivity, e.Specificity)
	if withAUC {
		fmt.Fprintf(b, " auc=%.4f", e.AUC)
	}
	b.WriteString("\n\n")
}

type importanceRow struct {
	name       string
	importance float64
}

// rankedImportances pairs features with their importances, descending.
func (r *Report) rankedImportances() []importanceRow {
	rows := make([]importanceRow, 0, len(r.Importances))
	for i, v := range r.Importances {
		rows = append(rows, importanceRow{name: r.Features[i], importance: v})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].importance > rows[b].importance
	})
	return rows
}
