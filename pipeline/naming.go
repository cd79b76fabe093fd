/*
 * naming.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

//DeformDir is the subfolder of each iteration folder holding the mode
//vectors, the deformation sweep and its simulated images.
const DeformDir = "1st"

//NextName returns the conformation name of the following iteration. The
//step counter lives after a "#s" marker, which is why '#' is banned from
//the initial PDB name.
func NextName(name string) string {
	if i := strings.LastIndex(name, "#s"); i >= 0 {
		if n, err := strconv.Atoi(name[i+2:]); err == nil {
			return fmt.Sprintf("%s#s%d", name[:i], n+1)
		}
	}
	return name + "#s1"
}

//Step returns the iteration counter embedded in a conformation name, or -1
//when the name carries none.
func Step(name string) int {
	if i := strings.LastIndex(name, "#s"); i >= 0 {
		if n, err := strconv.Atoi(name[i+2:]); err == nil {
			return n
		}
	}
	return -1
}
