/*
 * expfit.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package report

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

//FitExpDecay fits y = a*exp(b*(x-1)) to the samples by least squares,
//starting from (1, -1). The correlation gain of a converging fit-in decays
//roughly exponentially, which is what makes this a usable stopping model.
func FitExpDecay(xs, ys []float64) (a, b float64, err error) {
	if len(xs) != len(ys) {
		return 0, 0, fmt.Errorf("report: %d x samples but %d y samples", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return 0, 0, fmt.Errorf("report: need at least 3 samples to fit the decay, got %d", len(xs))
	}
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			sum := 0.0
			for i, x := range xs {
				d := p[0]*math.Exp(p[1]*(x-1)) - ys[i]
				sum += d * d
			}
			return sum
		},
	}
	result, err := optimize.Minimize(problem, []float64{1, -1}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, fmt.Errorf("report: decay fit did not converge: %v", err)
	}
	a, b = result.X[0], result.X[1]
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0, 0, fmt.Errorf("report: decay fit produced NaN parameters")
	}
	return a, b, nil
}

//ExpDecay evaluates the fitted model at x.
func ExpDecay(a, b, x float64) float64 {
	return a * math.Exp(b*(x-1))
}

//DecayStep returns the first step at which the fitted gain has decayed by
//the factor p. With a non-decaying fit (b >= 0) there is no such step.
func DecayStep(b, p float64) (int, error) {
	if b >= 0 {
		return 0, fmt.Errorf("report: the correlation gain is not decaying (b = %g)", b)
	}
	return int(math.Ceil(math.Log(p)/b + 1)), nil
}
