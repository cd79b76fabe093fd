/*
 * params_test.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package params

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const goodParams = `original_conformation = "1ake"
target_conformation = "4ake"
which_type_of_target = "tsv"
combined_amplitude = 50
res_x = 0.5
res_y = 0.5
res_z = 0.64
size_x = 12.0
size_y = 12.0
first_mode = 7
last_mode = 16
mode_selection = "slope"
how_many_threads = 4
num_iterations = 30
calculate_rmsd_to_reference = "yes"
file_name_of_reference_pdb = "4ake"
radius_of_probe = 3.0
angle_of_probe = 10.0
`

func writeParams(t *testing.T, text string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "params.toml")
	if err := os.WriteFile(name, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestLoad(Te *testing.T) {
	P, err := Load(writeParams(Te, goodParams))
	if err != nil {
		Te.Fatal(err)
	}
	if P.OriginalConformation != "1ake" || P.LastMode != 16 || P.CombinedAmplitude != 50 {
		Te.Errorf("unexpected params: %+v", P)
	}
	if !P.WithReference() {
		Te.Error("WithReference should be true")
	}
	if P.NModes() != 10 {
		Te.Errorf("NModes = %d, want 10", P.NModes())
	}
	if P.ArchiveIterations {
		Te.Error("archive_iterations should default to false")
	}
	if P.FirstIterDir() != "1ake#s0" {
		Te.Errorf("FirstIterDir = %q", P.FirstIterDir())
	}
}

func TestLoadRejects(Te *testing.T) {
	cases := []struct{ name, old, new string }{
		{"unknown key", "angle_of_probe = 10.0", "angle_of_probe = 10.0\nnot_a_key = 1"},
		{"bad selection", `mode_selection = "slope"`, `mode_selection = "steepest"`},
		{"reversed mode range", "last_mode = 16", "last_mode = 3"},
		{"zero amplitude", "combined_amplitude = 50", "combined_amplitude = 0"},
		{"bad rmsd toggle", `calculate_rmsd_to_reference = "yes"`, `calculate_rmsd_to_reference = "maybe"`},
		{"missing reference", `file_name_of_reference_pdb = "4ake"`, `file_name_of_reference_pdb = ""`},
		{"no threads", "how_many_threads = 4", "how_many_threads = 0"},
	}
	for _, c := range cases {
		text := strings.Replace(goodParams, c.old, c.new, 1)
		if text == goodParams {
			Te.Fatalf("%s: replacement %q did not apply", c.name, c.old)
		}
		if _, err := Load(writeParams(Te, text)); err == nil {
			Te.Errorf("%s: expected an error", c.name)
		}
	}
}

func TestLogName(Te *testing.T) {
	if got := LogName("/scratch/runs/adk_open"); got != "adk_open_log.csv" {
		Te.Errorf("LogName = %q", got)
	}
	if got := LogName("adk_open/"); got != "adk_open_log.csv" {
		Te.Errorf("LogName with trailing slash = %q", got)
	}
}

func TestConfirm(Te *testing.T) {
	var out bytes.Buffer
	if !Confirm(strings.NewReader("yes\n"), &out) {
		Te.Error("'yes' should confirm")
	}
	if Confirm(strings.NewReader("no\n"), &out) {
		Te.Error("'no' should not confirm")
	}
	out.Reset()
	if !Confirm(strings.NewReader("what\nYES\n"), &out) {
		Te.Error("should retry until a valid answer is given")
	}
	if !strings.Contains(out.String(), "Invalid input") {
		Te.Error("invalid answers should be reported")
	}
	if Confirm(strings.NewReader(""), &out) {
		Te.Error("EOF should not confirm")
	}
}

const checkPDB = `ATOM      1  N   GLY A   1      11.104   6.134  -6.504  1.00  0.00           N
ATOM      2  CA  GLY A   1      11.639   6.071  -5.147  1.00  0.00           C
END
`

//fakeTools sets the toolchain env vars to files under dir.
func fakeTools(t *testing.T, dir string) {
	t.Helper()
	nma := filepath.Join(dir, "nma")
	if err := os.Mkdir(nma, 0755); err != nil {
		t.Fatal(err)
	}
	for _, tool := range nmaTools {
		if err := os.WriteFile(filepath.Join(nma, tool), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, bin := range []string{"afmize", "profit"} {
		if err := os.WriteFile(filepath.Join(dir, bin), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv(EnvNMA, nma)
	t.Setenv(EnvAfmize, filepath.Join(dir, "afmize"))
	t.Setenv(EnvProFit, filepath.Join(dir, "profit"))
}

func TestCheck(Te *testing.T) {
	tools := Te.TempDir()
	fakeTools(Te, tools)
	runDir := Te.TempDir()
	P, err := Load(writeParams(Te, strings.Replace(goodParams,
		`calculate_rmsd_to_reference = "yes"`, `calculate_rmsd_to_reference = "no"`, 1)))
	if err != nil {
		Te.Fatal(err)
	}

	//Missing inputs first.
	if _, err := P.Check(runDir); err == nil {
		Te.Error("Check should fail without the initial PDB")
	}
	if err := os.WriteFile(filepath.Join(runDir, "1ake.pdb"), []byte(checkPDB), 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := P.Check(runDir); err == nil {
		Te.Error("Check should fail without the target image")
	}
	if err := os.WriteFile(filepath.Join(runDir, "4ake.tsv"), []byte("0.0\t1.0\n"), 0644); err != nil {
		Te.Fatal(err)
	}

	initial, err := P.Check(runDir)
	if err != nil {
		Te.Fatal(err)
	}
	if initial.Len() != 2 {
		Te.Errorf("initial has %d atoms, want 2", initial.Len())
	}

	//Leftovers from a previous run must stop us.
	if err := os.Mkdir(filepath.Join(runDir, SummaryDir), 0755); err != nil {
		Te.Fatal(err)
	}
	if _, err := P.Check(runDir); err == nil {
		Te.Error("Check should fail when All_conformation already exists")
	}

	var sheet bytes.Buffer
	P.Checklist(&sheet, runDir, initial)
	//the numeric values are wrapped in underline escapes, so only the
	//plain fragments can be matched
	for _, want := range []string{"1ake", "4ake", "2 atoms", "24"} {
		if !strings.Contains(sheet.String(), want) {
			Te.Errorf("checklist is missing %q", want)
		}
	}
}

func TestCheckRejectsHashInName(Te *testing.T) {
	tools := Te.TempDir()
	fakeTools(Te, tools)
	runDir := Te.TempDir()
	P, err := Load(writeParams(Te, strings.Replace(goodParams,
		`original_conformation = "1ake"`, `original_conformation = "1ake#old"`, 1)))
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := P.Check(runDir); err == nil || !strings.Contains(err.Error(), "#") {
		Te.Errorf("expected a '#' naming error, got %v", err)
	}
}
