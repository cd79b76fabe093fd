/*
 * select.go, part of nmff-afm.
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

	"github.com/TamaLab/nmff-afm/params"
)

//Selection is the mode and amplitude the next deformation will use. An
//Amplitude of zero means the search sees no move worth making.
type Selection struct {
	Mode      int
	Amplitude float64
}

//Select picks the deformation for the next iteration.
//
//With the slope strategy, the mode with the steepest correlation trend is
//taken and pushed a full amplitude in the uphill direction. With maxcc, the
//single best-scoring (mode, dq) point is taken as is. maxcc_force_move is
//maxcc, except that a best point sitting at dq 0 is replaced by the best
//point among the moving ones, so the search can not stall on an iteration
//whose undeformed image already scores best.
func Select(strategy string, slopes []Slope, t Table, amplitude int) (Selection, error) {
	switch strategy {
	case params.SelectSlope:
		steepest := BySteepness(slopes)
		if len(steepest) == 0 {
			return Selection{}, fmt.Errorf("score: no slopes to select from")
		}
		best := steepest[0]
		if best.Slope == 0 {
			return Selection{Mode: best.Mode, Amplitude: 0}, nil
		}
		dir := 1.0
		if best.Slope < 0 {
			dir = -1.0
		}
		return Selection{Mode: best.Mode, Amplitude: dir * float64(amplitude)}, nil
	case params.SelectMaxCC:
		byCC := t.ByCC()
		if len(byCC) == 0 {
			return Selection{}, fmt.Errorf("score: empty correlation table")
		}
		return Selection{Mode: byCC[0].Mode, Amplitude: float64(byCC[0].Dq)}, nil
	case params.SelectMaxCCForceMove:
		byCC := t.ByCC()
		if len(byCC) == 0 {
			return Selection{}, fmt.Errorf("score: empty correlation table")
		}
		if byCC[0].Dq != 0 {
			return Selection{Mode: byCC[0].Mode, Amplitude: float64(byCC[0].Dq)}, nil
		}
		for _, p := range byCC {
			if p.Dq != 0 {
				return Selection{Mode: p.Mode, Amplitude: float64(p.Dq)}, nil
			}
		}
		return Selection{}, fmt.Errorf("score: every scored image has amplitude 0")
	default:
		return Selection{}, fmt.Errorf("score: possible mode selection algorithms are %q, %q and %q, got %q",
			params.SelectSlope, params.SelectMaxCC, params.SelectMaxCCForceMove, strategy)
	}
}
