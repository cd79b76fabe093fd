/*
 * steplog.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/TamaLab/nmff-afm/score"
)

//WriteStepLog saves the correlation sweep of one iteration: one row per
//mode with the CC at every sampled amplitude, the fitted slope and the
//intercept. A pre-existing file means the iteration folder is being reused,
//which is an error.
func WriteStepLog(name string, t score.Table, slopes []score.Slope) error {
	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("report: step log %s already exists", name)
	}
	amps := t.Amplitudes()
	ccAt := make(map[int]map[int]float64, len(slopes))
	for _, p := range t {
		if ccAt[p.Mode] == nil {
			ccAt[p.Mode] = make(map[int]float64, len(amps))
		}
		ccAt[p.Mode][p.Dq] = p.CC
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{""}
	for _, dq := range amps {
		header = append(header, strconv.Itoa(dq))
	}
	header = append(header, "slope", "intercept")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range slopes {
		row := []string{fmt.Sprintf("Mode %d", s.Mode)}
		for _, dq := range amps {
			cc, ok := ccAt[s.Mode][dq]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(cc, 'g', -1, 64))
		}
		row = append(row, strconv.FormatFloat(s.Slope, 'g', -1, 64),
			strconv.FormatFloat(s.Intercept, 'g', -1, 64))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
