// Package samplesize provides sample-size planning for logistic regression
// studies, following Hsieh's approximation for a standardized continuous
// covariate.
package samplesize

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cardiolab/ctgml/pkg/errors"
)

// LogisticPlan describes one planning scenario. OddsRatio is the effect per
// one standard deviation of the covariate; EventRate is the outcome
// probability at the covariate mean; RSquared is the squared multiple
// correlation of the covariate with the other model covariates (zero for a
// univariable model).
type LogisticPlan struct {
	EventRate float64
	OddsRatio float64
	Alpha     float64 // two-sided significance level
	Power     float64
	RSquared  float64
}

// Validate checks that every parameter is in its admissible range.
func (p LogisticPlan) Validate() error {
	if p.EventRate <= 0 || p.EventRate >= 1 {
		return errors.NewValidationError("EventRate", "must be in (0, 1)", p.EventRate)
	}
	if p.OddsRatio <= 0 {
		return errors.NewValidationError("OddsRatio", "must be > 0", p.OddsRatio)
	}
	if p.OddsRatio == 1 {
		return errors.NewValidationError("OddsRatio", "no effect to detect", p.OddsRatio)
	}
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return errors.NewValidationError("Alpha", "must be in (0, 1)", p.Alpha)
	}
	if p.Power <= 0 || p.Power >= 1 {
		return errors.NewValidationError("Power", "must be in (0, 1)", p.Power)
	}
	if p.RSquared < 0 || p.RSquared >= 1 {
		return errors.NewValidationError("RSquared", "must be in [0, 1)", p.RSquared)
	}
	return nil
}

// N returns the required sample size, rounded up:
//
//	n = (z_{1-alpha/2} + z_{power})^2 / (p(1-p) * log(OR)^2 * (1 - R^2))
func (p LogisticPlan) N() (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	zAlpha := norm.Quantile(1 - p.Alpha/2)
	zPower := norm.Quantile(p.Power)

	beta := math.Log(p.OddsRatio)
	n := (zAlpha + zPower) * (zAlpha + zPower) /
		(p.EventRate * (1 - p.EventRate) * beta * beta)
	n /= 1 - p.RSquared

	return int(math.Ceil(n)), nil
}

// CurvePoint is one (odds ratio, power) scenario with its required size.
type CurvePoint struct {
	OddsRatio float64
	Power     float64
	N         int
}

// Curve evaluates the plan over a grid of odds ratios and power levels,
// holding the other parameters fixed. Used by the sample-size line chart.
func Curve(base LogisticPlan, oddsRatios, powers []float64) ([]CurvePoint, error) {
	if len(oddsRatios) == 0 || len(powers) == 0 {
		return nil, errors.NewValueError("Curve", "oddsRatios and powers must not be empty")
	}

	out := make([]CurvePoint, 0, len(oddsRatios)*len(powers))
	for _, power := range powers {
		for _, or := range oddsRatios {
			plan := base
			plan.OddsRatio = or
			plan.Power = power
			n, err := plan.N()
			if err != nil {
				return nil, err
			}
			out = append(out, CurvePoint{OddsRatio: or, Power: power, N: n})
		}
	}
	return out, nil
}
