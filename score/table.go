/*
 * table.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package score

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

//Point is the score of one deformed conformation: the mode and amplitude it
//was deformed by, and its correlation against the target image.
type Point struct {
	Mode int
	Dq   int
	CC   float64
}

//Table collects the scores of one iteration's deformation sweep.
type Table []Point

//BuildTable scores every deformed image in dir against the target. Images
//are recognized by the mode#dq naming and the ext image extension; the
//iteration's own undeformed image (exclude) is skipped.
func BuildTable(dir, targetPath, exclude, ext string) (Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	t := make(Table, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, "."+ext) || !strings.Contains(name, "#") {
			continue
		}
		base := strings.TrimSuffix(name, "."+ext)
		if base == exclude {
			continue
		}
		parts := strings.SplitN(base, "#", 2)
		mode, err1 := strconv.Atoi(parts[0])
		dq, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			continue //not a mode#dq image
		}
		cc, err := CCFiles(targetPath, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("score: %s: %v", name, err)
		}
		t = append(t, Point{Mode: mode, Dq: dq, CC: cc})
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("score: no deformed images found in %s", dir)
	}
	return t, nil
}

//ByCC returns the table sorted by correlation, best first.
func (t Table) ByCC() Table {
	out := make(Table, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CC > out[j].CC })
	return out
}

//ForMode returns the points of one mode, sorted by amplitude.
func (t Table) ForMode(mode int) Table {
	out := make(Table, 0, 5)
	for _, p := range t {
		if p.Mode == mode {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Dq < out[j].Dq })
	return out
}

//Amplitudes returns the distinct amplitudes present in the table, sorted.
func (t Table) Amplitudes() []int {
	seen := make(map[int]bool)
	for _, p := range t {
		seen[p.Dq] = true
	}
	out := make([]int, 0, len(seen))
	for dq := range seen {
		out = append(out, dq)
	}
	sort.Ints(out)
	return out
}

//WriteCSV saves the table for later inspection, one row per scored image.
func (t Table) WriteCSV(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"mode", "dq", "cc"}); err != nil {
		return err
	}
	for _, p := range t {
		err := w.Write([]string{
			strconv.Itoa(p.Mode),
			strconv.Itoa(p.Dq),
			strconv.FormatFloat(p.CC, 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
