/*
 * cc.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 * Reference:
 * Modeling Conformational Transitions of Biomolecules from Atomic Force
 * Microscopy Images using Normal Mode Analysis.
 * Xuan Wu, Osamu Miyashita, and Florence Tama
 * https://doi.org/10.1021/acs.jpcb.4c04189
 *
 */

//Package score compares simulated pseudo-AFM images against the target
//image and picks the normal mode to deform along. All its inputs come from
//the external simulators; only the scoring heuristics live here.
package score

import (
	"fmt"

	"github.com/TamaLab/nmff-afm/afm"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//normalize shifts a height map by its minimum and scales it by its pre-shift
//maximum, returning the flattened samples. The scaling matches the original
//scoring exactly, unshifted maximum included; CC values would otherwise not
//be comparable across runs of the two implementations.
func normalize(m *mat.Dense) []float64 {
	lo := mat.Min(m)
	hi := mat.Max(m)
	if hi == 0 {
		hi = 1 //flat zero image, leave it flat
	}
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, (m.At(i, j)-lo)/hi)
		}
	}
	return out
}

//CC returns the Pearson correlation between two normalized height maps.
//The maps must have the same shape.
func CC(target, image *mat.Dense) (float64, error) {
	tr, tc := target.Dims()
	ir, ic := image.Dims()
	if tr != ir || tc != ic {
		return 0, fmt.Errorf("score: image is %dx%d but target is %dx%d", ir, ic, tr, tc)
	}
	return stat.Correlation(normalize(target), normalize(image), nil), nil
}

//CCFiles is CC over two TSV height-map files.
func CCFiles(targetPath, imagePath string) (float64, error) {
	target, err := afm.ReadTSV(targetPath)
	if err != nil {
		return 0, err
	}
	image, err := afm.ReadTSV(imagePath)
	if err != nil {
		return 0, err
	}
	return CC(target, image)
}
