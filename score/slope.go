/*
 * slope.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package score

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

//Slope is the linear trend of the correlation of one mode across the
//amplitude sweep. A steep slope means deforming along that mode moves the
//image quickly toward (or away from) the target.
type Slope struct {
	Mode      int
	Slope     float64
	Intercept float64
}

//Slopes fits cc against dq for every mode in [first, last]. Every mode must
//have at least two sampled amplitudes.
func Slopes(t Table, first, last int) ([]Slope, error) {
	out := make([]Slope, 0, last-first+1)
	for mode := first; mode <= last; mode++ {
		pts := t.ForMode(mode)
		if len(pts) < 2 {
			return nil, fmt.Errorf("score: mode %d has %d sampled amplitudes, need at least 2", mode, len(pts))
		}
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = float64(p.Dq)
			ys[i] = p.CC
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		out = append(out, Slope{Mode: mode, Slope: beta, Intercept: alpha})
	}
	return out, nil
}

//BySteepness returns the slopes ordered by |slope|, steepest first.
func BySteepness(slopes []Slope) []Slope {
	out := make([]Slope, len(slopes))
	copy(out, slopes)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Slope) > math.Abs(out[j].Slope)
	})
	return out
}
