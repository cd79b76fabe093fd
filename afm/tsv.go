/*
 * tsv.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package afm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

//ReadTSV reads an afmize height map into a matrix with one row per scan
//line. All rows must have the same number of samples.
func ReadTSV(name string) (*mat.Dense, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data := make([]float64, 0, 4096)
	cols := -1
	rows := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if cols == -1 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("afm: %s: row %d has %d samples, previous rows had %d",
				name, rows+1, len(fields), cols)
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("afm: %s, row %d: %v", name, rows+1, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("afm: %s: %v", name, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("afm: %s contains no data", name)
	}
	return mat.NewDense(rows, cols, data), nil
}
