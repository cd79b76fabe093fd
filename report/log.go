/*
 * log.go, part of nmff-afm.
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

//Package report keeps the per-run and per-step logs of a flexible fit-in
//and renders the summary figures. The logs are plain CSV so they can be
//inspected with anything.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

//Record is one iteration of the run: which conformation it scored, how it
//scored, and the deformation chosen from it. The RMSD fields are filled in
//after the loop by the Pro-Fit pass; NaN marks a still-missing value.
type Record struct {
	Name          string
	CC            float64
	Mode          int
	Amplitude     float64
	Avg5          float64
	RMSDInitial   float64
	RMSDReference float64
	Result        string
}

//NewRecord returns a Record with the RMSD fields marked missing.
func NewRecord(name string, cc float64, mode int, amplitude, avg5 float64) Record {
	return Record{
		Name:          name,
		CC:            cc,
		Mode:          mode,
		Amplitude:     amplitude,
		Avg5:          avg5,
		RMSDInitial:   math.NaN(),
		RMSDReference: math.NaN(),
	}
}

//RunLog is the overall log file of one run.
type RunLog struct {
	path    string
	withRef bool
}

func NewRunLog(path string, withReference bool) *RunLog {
	return &RunLog{path: path, withRef: withReference}
}

//Path returns the log's file name.
func (L *RunLog) Path() string { return L.path }

//header keeps the column titles of the original logs.
func (L *RunLog) header() []string {
	h := []string{"Deformed fig name", "CC of this iter", "Largest mode", "Amplitude",
		"Last 5 iter average CC", "RMSD to Initial"}
	if L.withRef {
		h = append(h, "RMSD to Reference")
	}
	return append(h, "Result")
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (L *RunLog) row(rec Record) []string {
	row := []string{
		rec.Name,
		formatFloat(rec.CC),
		strconv.Itoa(rec.Mode),
		formatFloat(rec.Amplitude),
		formatFloat(rec.Avg5),
		formatFloat(rec.RMSDInitial),
	}
	if L.withRef {
		row = append(row, formatFloat(rec.RMSDReference))
	}
	return append(row, rec.Result)
}

//Create writes an empty log with only the header. An existing log is an
//error; the pre-flight checks should have caught it.
func (L *RunLog) Create() error {
	if _, err := os.Stat(L.path); err == nil {
		return fmt.Errorf("report: log %s already exists", L.path)
	}
	return L.writeAll(nil)
}

func (L *RunLog) writeAll(recs []Record) error {
	f, err := os.Create(L.path)
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(L.header()); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Write(L.row(rec)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

//Append adds one iteration to the log.
func (L *RunLog) Append(rec Record) error {
	f, err := os.OpenFile(L.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(L.row(rec)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

//Read returns every logged iteration, in order.
func (L *RunLog) Read() ([]Record, error) {
	f, err := os.Open(L.path)
	if err != nil {
		return nil, fmt.Errorf("report: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("report: %s: %v", L.path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report: %s has no header", L.path)
	}
	want := len(L.header())
	recs := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != want {
			return nil, fmt.Errorf("report: %s, row %d: %d columns, want %d", L.path, i+2, len(row), want)
		}
		rec := Record{
			Name:          row[0],
			CC:            parseFloat(row[1]),
			Amplitude:     parseFloat(row[3]),
			Avg5:          parseFloat(row[4]),
			RMSDInitial:   parseFloat(row[5]),
			RMSDReference: math.NaN(),
		}
		rec.Mode, _ = strconv.Atoi(row[2])
		if L.withRef {
			rec.RMSDReference = parseFloat(row[6])
		}
		rec.Result = row[len(row)-1]
		recs = append(recs, rec)
	}
	return recs, nil
}

//SumLastCC sums the correlation of the last n iterations. Fewer than n
//logged iterations is an error, which callers use to fall back during the
//first few steps of a run.
func (L *RunLog) SumLastCC(n int) (float64, error) {
	recs, err := L.Read()
	if err != nil {
		return 0, err
	}
	if len(recs) < n {
		return 0, fmt.Errorf("report: only %d iterations logged, need %d", len(recs), n)
	}
	total := 0.0
	for _, rec := range recs[len(recs)-n:] {
		total += rec.CC
	}
	return total, nil
}

//LastCC returns the correlation of the most recent iteration.
func (L *RunLog) LastCC() (float64, error) {
	recs, err := L.Read()
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, fmt.Errorf("report: no iterations logged yet")
	}
	return recs[len(recs)-1].CC, nil
}

//SetRMSD fills an RMSD column from the Pro-Fit results, matching rows by
//conformation name. The first iteration's RMSD to the initial conformation
//is pinned to zero, as Pro-Fit never fits a structure onto itself.
func (L *RunLog) SetRMSD(values map[string]float64, toReference bool) error {
	if toReference && !L.withRef {
		return fmt.Errorf("report: log was created without a reference column")
	}
	recs, err := L.Read()
	if err != nil {
		return err
	}
	for i := range recs {
		if v, ok := values[recs[i].Name]; ok {
			if toReference {
				recs[i].RMSDReference = v
			} else {
				recs[i].RMSDInitial = v
			}
		}
	}
	if !toReference && len(recs) > 0 {
		recs[0].RMSDInitial = 0
	}
	return L.writeAll(recs)
}

//SetResult marks the winning step in its row of the log.
func (L *RunLog) SetResult(step int) error {
	recs, err := L.Read()
	if err != nil {
		return err
	}
	if step < 0 || step >= len(recs) {
		return fmt.Errorf("report: result step %d is outside the %d logged iterations", step, len(recs))
	}
	recs[step].Result = fmt.Sprintf("s%d", step)
	return L.writeAll(recs)
}
