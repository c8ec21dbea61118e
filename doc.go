// Package ctgml implements a cardiotocography (CTG) classification study
// in Go: loading the CTG table, deriving a binary abnormality outcome from
// the three-class NSP assessment, and comparing a logistic-regression
// baseline against a random forest tuned by out-of-bag error.
//
// # Quick Start
//
// Run the whole study through the analysis package:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/cardiolab/ctgml/analysis"
//	)
//
//	func main() {
//	    cfg := analysis.DefaultConfig()
//	    cfg.InputPath = "CTG.csv"
//	    cfg.OutputDir = "plots"
//
//	    report, err := analysis.Run(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(report.Summary())
//	}
//
// Or use the building blocks directly:
//
//	ds, err := dataset.Load("CTG.csv")
//	train, test, err := dataset.TrainTestSplit(ds, 0.75, 123)
//	res, err := modelselection.GridSearchOOB(train.X, train.Y, 2, 9, 1, 9)
//
// # Packages
//
//   - dataset: CSV loading, label derivation, descriptives, train/test split
//   - linear: binary logistic regression
//   - tree, ensemble: CART trees and the bagged random forest
//   - modelselection: OOB grid search and bootstrap validation
//   - metrics: confusion matrix, sensitivity/specificity, AUC
//   - samplesize: sample-size planning for logistic regression
//   - visualize: the study's plots (gonum/plot)
//   - analysis: the end-to-end study and its report
//
// The ctgml command under cmd/ctgml exposes the study as a CLI.
package ctgml
