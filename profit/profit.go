/*
 * profit.go, part of nmff-afm.
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

//Package profit obtains RMSD values from the external Pro-Fit structural
//fitting program (PRO_FIT_PATH). Pro-Fit performs the superposition; this
//package only writes its scripts and scrapes its reports.
package profit

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//Pro-Fit chokes on very long scripts, so the mobiles are split in chunks.
const scriptChunk = 50

//Handle locates and runs Pro-Fit.
type Handle struct {
	command string
}

func NewHandle() *Handle {
	H := new(Handle)
	H.SetDefaults()
	return H
}

//SetDefaults points the handle at the binary named by PRO_FIT_PATH.
func (H *Handle) SetDefaults() {
	H.command = os.Getenv("PRO_FIT_PATH")
}

//SetCommand overrides the Pro-Fit binary.
func (H *Handle) SetCommand(command string) {
	H.command = command
}

//ScriptName returns the name of the n-th (1-based) fitting script.
func ScriptName(n int) string {
	return fmt.Sprintf("script_%d.txt", n)
}

//resultName maps script_N.txt to its captured-output file.
func resultName(script string) string {
	return "result-" + strings.SplitN(script, "_", 2)[1]
}

//WriteScripts writes fitting scripts into dir that superpose every PDB file
//there (except the reference itself) onto reference. It returns how many
//scripts were written.
func WriteScripts(dir, reference string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	mobiles := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".pdb") {
			continue
		}
		if strings.TrimSuffix(name, ".pdb") == reference {
			continue
		}
		mobiles = append(mobiles, name)
	}
	sort.Strings(mobiles)
	nscripts := 0
	for i := 0; i < len(mobiles); i += scriptChunk {
		chunk := mobiles[i:min(i+scriptChunk, len(mobiles))]
		nscripts++
		f, err := os.Create(filepath.Join(dir, ScriptName(nscripts)))
		if err != nil {
			return nscripts, fmt.Errorf("profit: %v", err)
		}
		fmt.Fprintf(f, "reference %s.pdb\n", reference)
		for _, mobile := range chunk {
			fmt.Fprintf(f, "mobile %s\n", mobile)
			fmt.Fprintln(f, "fit")
		}
		fmt.Fprintln(f, "quit")
		if err := f.Close(); err != nil {
			return nscripts, fmt.Errorf("profit: %v", err)
		}
	}
	return nscripts, nil
}

//Run executes every fitting script in dir, capturing Pro-Fit's report into
//the matching result file.
func (H *Handle) Run(dir string) error {
	scripts, err := filepath.Glob(filepath.Join(dir, "script_*.txt"))
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return fmt.Errorf("profit: no fitting scripts in %s", dir)
	}
	for _, script := range scripts {
		name := filepath.Base(script)
		command := fmt.Sprintf("%s -h -f %s > %s 2>&1", H.command, name, resultName(name))
		cmd := exec.Command("sh", "-c", command)
		cmd.Dir = dir
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("profit: %s failed: %v", name, err)
		}
	}
	return nil
}

var (
	mobileRe = regexp.MustCompile(`Reading mobile structure \((.*)\)`)
	rmsRe    = regexp.MustCompile(`RMS: (\d+\.\d+)`)
)

//parseResult pairs the mobile names and RMS values of one Pro-Fit report in
//reading order.
func parseResult(name string) (map[string]float64, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	mobiles := mobileRe.FindAllStringSubmatch(string(text), -1)
	rms := rmsRe.FindAllStringSubmatch(string(text), -1)
	if len(mobiles) != len(rms) {
		return nil, fmt.Errorf("profit: %s reports %d structures but %d RMS values",
			name, len(mobiles), len(rms))
	}
	out := make(map[string]float64, len(mobiles))
	for i, m := range mobiles {
		base := strings.TrimSuffix(m[1], ".pdb")
		v, err := strconv.ParseFloat(rms[i][1], 64)
		if err != nil {
			return nil, fmt.Errorf("profit: %s: %v", name, err)
		}
		out[base] = v
	}
	return out, nil
}

//ParseResults reads every result file in dir and returns the RMSD of each
//fitted conformation, keyed by its base name.
func ParseResults(dir string) (map[string]float64, error) {
	results, err := filepath.Glob(filepath.Join(dir, "result-*"))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("profit: no result files in %s", dir)
	}
	all := make(map[string]float64)
	for _, name := range results {
		one, err := parseResult(name)
		if err != nil {
			return nil, err
		}
		for k, v := range one {
			all[k] = v
		}
	}
	return all, nil
}

//CleanScripts removes the scripts and reports of a finished RMSD pass so a
//second pass against another reference starts clean.
func CleanScripts(dir string) error {
	for _, pattern := range []string{"script_*.txt", "result-*"} {
		names, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := os.Remove(name); err != nil {
				return err
			}
		}
	}
	return nil
}
