/*
 * nma_test.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package nma

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

//fakeToolchain builds a stand-in NMA toolchain out of shell scripts: the
//scripts just echo their arguments, which is all these tests need to verify
//the plumbing.
func fakeToolchain(t *testing.T) *Handle {
	t.Helper()
	dir := t.TempDir()
	echo := "#!/bin/sh\necho \"$@\"\n"
	for _, tool := range []string{"makebloc.pl", "movemode.pl", "rtb2"} {
		if err := os.WriteFile(filepath.Join(dir, tool), []byte(echo), 0755); err != nil {
			t.Fatal(err)
		}
	}
	H := NewHandle()
	H.SetRoot(dir)
	return H
}

func TestBuildInput(Te *testing.T) {
	H := fakeToolchain(Te)
	work := Te.TempDir()
	if err := H.BuildInput(work, 100); err != nil {
		Te.Fatal(err)
	}
	text, err := os.ReadFile(filepath.Join(work, "rtb.inp"))
	if err != nil {
		Te.Fatal(err)
	}
	for _, want := range []string{" &inputs", "cutoff = 8.00,", "ncv = 60,", "tol = 1e-18", "nstep = 0,", "nvec = 100", " /&"} {
		if !strings.Contains(string(text), want) {
			Te.Errorf("rtb.inp is missing %q:\n%s", want, text)
		}
	}
}

func TestModeFile(Te *testing.T) {
	if got := ModeFile(7); got != "mov000.mod007" {
		Te.Errorf("ModeFile(7) = %q", got)
	}
	if got := ModeFile(103); got != "mov000.mod103" {
		Te.Errorf("ModeFile(103) = %q", got)
	}
}

func TestAmplitudes(Te *testing.T) {
	got := Amplitudes(50)
	want := []int{-50, -25, 0, 25, 50}
	for i := range want {
		if got[i] != want[i] {
			Te.Fatalf("Amplitudes(50) = %v, want %v", got, want)
		}
	}
	//Odd amplitudes truncate the half step, as file naming needs integers.
	got = Amplitudes(5)
	if got[1] != -2 || got[3] != 2 {
		Te.Errorf("Amplitudes(5) = %v, want half steps of 2", got)
	}
}

func TestDeform(Te *testing.T) {
	H := fakeToolchain(Te)
	work := Te.TempDir()
	if err := H.Deform(work, "start.pdb", 7, -25, "7#-25.pdb"); err != nil {
		Te.Fatal(err)
	}
	out, err := os.ReadFile(filepath.Join(work, "7#-25.pdb"))
	if err != nil {
		Te.Fatal(err)
	}
	//The echo toolchain writes its arguments into the output file.
	for _, want := range []string{"start.pdb", "mov000.mod007", "-25"} {
		if !strings.Contains(string(out), want) {
			Te.Errorf("movemode.pl was not called with %q: %q", want, out)
		}
	}
}

func TestGenerateDeformed(Te *testing.T) {
	H := fakeToolchain(Te)
	work := Te.TempDir()
	if err := H.GenerateDeformed(work, "start", 50, 7, 9); err != nil {
		Te.Fatal(err)
	}
	for _, name := range []string{"7#-50.pdb", "7#0.pdb", "8#25.pdb", "9#50.pdb"} {
		if _, err := os.Stat(filepath.Join(work, name)); err != nil {
			Te.Errorf("missing deformed conformation %s", name)
		}
	}
	if err := H.GenerateDeformed(work, "start", 0, 7, 9); err == nil {
		Te.Error("a non-positive amplitude should be rejected")
	}
}

func TestToolFailure(Te *testing.T) {
	H := NewHandle()
	H.SetRoot(Te.TempDir()) //no tools there
	err := H.MakeBlocks(Te.TempDir(), "start")
	if err == nil {
		Te.Fatal("expected an error from a missing toolchain")
	}
	if !strings.Contains(err.Error(), "nma:") {
		Te.Errorf("unexpected error text: %v", err)
	}
}
