/*
 * afmize_test.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package afm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

var testGeometry = Geometry{
	ResX: 0.5, ResY: 0.5, ResZ: 0.64,
	SizeX: 12, SizeY: 12,
	Radius: 3, Angle: 10,
}

func TestBuildInput(Te *testing.T) {
	H := NewHandle()
	dir := Te.TempDir()
	if err := H.BuildInput(dir, "7#-25", testGeometry); err != nil {
		Te.Fatal(err)
	}
	name := filepath.Join(dir, InputName("7#-25"))
	//The written input must be valid TOML that decodes back to what afmize
	//needs to see.
	var in Input
	if _, err := toml.DecodeFile(name, &in); err != nil {
		Te.Fatal(err)
	}
	if in.File.Input != "7#-25.pdb" || in.File.Output.Basename != "7#-25" {
		Te.Errorf("wrong file section: %+v", in.File)
	}
	if len(in.File.Output.Formats) != 2 || in.File.Output.Formats[0] != "tsv" || in.File.Output.Formats[1] != "svg" {
		Te.Errorf("wrong output formats: %v", in.File.Output.Formats)
	}
	if in.Probe.Size.Radius != "3nm" || in.Probe.Size.Angle != 10 {
		Te.Errorf("wrong probe: %+v", in.Probe.Size)
	}
	if in.Resolution.X != "0.5nm" || in.Resolution.Z != "0.64angstrom" {
		Te.Errorf("wrong resolution: %+v", in.Resolution)
	}
	if len(in.Range.X) != 2 || in.Range.X[0] != "-12nm" || in.Range.X[1] != "12nm" {
		Te.Errorf("wrong x range: %v", in.Range.X)
	}
	if !in.Stage.Align || in.Stage.Position != 0 || in.Noise != "0.0nm" || in.ScaleBar.Length != "0.0nm" {
		Te.Errorf("wrong stage/noise/scale_bar: %+v %q %+v", in.Stage, in.Noise, in.ScaleBar)
	}
}

func TestGenerateAll(Te *testing.T) {
	dir := Te.TempDir()
	for _, base := range []string{"7#-50", "7#0", "8#50"} {
		if err := os.WriteFile(filepath.Join(dir, base+".pdb"), []byte("END\n"), 0644); err != nil {
			Te.Fatal(err)
		}
	}
	//A stand-in afmize that writes a trivial height map for its input.
	fake := filepath.Join(Te.TempDir(), "afmize")
	script := `#!/bin/sh
base=$(sed -n 's/.*basename = "\(.*\)"/\1/p' "$1")
printf '0.0\t1.0\n2.0\t3.0\n' > "$base.tsv"
`
	if err := os.WriteFile(fake, []byte(script), 0755); err != nil {
		Te.Fatal(err)
	}
	H := NewHandle()
	H.SetCommand(fake)
	if err := H.GenerateAll(dir, testGeometry, 2); err != nil {
		Te.Fatal(err)
	}
	for _, base := range []string{"7#-50", "7#0", "8#50"} {
		m, err := ReadTSV(filepath.Join(dir, base+".tsv"))
		if err != nil {
			Te.Fatal(err)
		}
		if r, c := m.Dims(); r != 2 || c != 2 {
			Te.Errorf("%s.tsv read as %dx%d, want 2x2", base, r, c)
		}
	}
}

func TestGenerateAllPropagatesFailure(Te *testing.T) {
	dir := Te.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "7#0.pdb"), []byte("END\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	H := NewHandle()
	H.SetCommand("/does/not/exist/afmize")
	if err := H.GenerateAll(dir, testGeometry, 2); err == nil {
		Te.Error("expected an error from the failing simulator")
	}
}

func TestReadTSV(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "img.tsv")
	if err := os.WriteFile(name, []byte("0.0\t1.5\t2.0\n3.0\t4.0\t5.5\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	m, err := ReadTSV(name)
	if err != nil {
		Te.Fatal(err)
	}
	if r, c := m.Dims(); r != 2 || c != 3 {
		Te.Fatalf("got %dx%d, want 2x3", r, c)
	}
	if m.At(1, 2) != 5.5 {
		Te.Errorf("m[1][2] = %f, want 5.5", m.At(1, 2))
	}

	ragged := filepath.Join(dir, "ragged.tsv")
	if err := os.WriteFile(ragged, []byte("0.0\t1.0\n2.0\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := ReadTSV(ragged); err == nil {
		Te.Error("a ragged TSV should be rejected")
	}
	if _, err := ReadTSV(filepath.Join(dir, "empty.tsv")); err == nil {
		Te.Error("a missing file should be an error")
	}
}
