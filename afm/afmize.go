/*
 * afmize.go, part of nmff-afm.
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

//Package afm generates pseudo-AFM images of conformations by driving the
//external afmize simulator, and reads the TSV height maps it produces.
//afmize is found through the AFMIZE_PATH environment variable.
package afm

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"
)

//Geometry bundles the imaging parameters shared by every simulated image of
//a run: the resolution and extent of the scan and the probe shape.
type Geometry struct {
	ResX, ResY float64 //nm
	ResZ       float64 //angstrom
	SizeX      float64 //half extent in x, nm
	SizeY      float64 //half extent in y, nm
	Radius     float64 //probe radius, nm
	Angle      float64 //probe half-angle, degrees
}

//Input mirrors the afmize input file. It is encoded as real TOML, so the
//field order keeps the bare keys ahead of the tables.
type Input struct {
	Noise      string   `toml:"noise"`
	File       fileSec  `toml:"file"`
	Probe      probeSec `toml:"probe"`
	Resolution resSec   `toml:"resolution"`
	Range      rangeSec `toml:"range"`
	ScaleBar   scaleBar `toml:"scale_bar"`
	Stage      stageSec `toml:"stage"`
}

type fileSec struct {
	Input  string    `toml:"input"`
	Output outputSec `toml:"output"`
}

type outputSec struct {
	Basename string   `toml:"basename"`
	Formats  []string `toml:"formats"`
}

type probeSec struct {
	Size probeSize `toml:"size"`
}

type probeSize struct {
	Radius string  `toml:"radius"`
	Angle  float64 `toml:"angle"`
}

type resSec struct {
	X string `toml:"x"`
	Y string `toml:"y"`
	Z string `toml:"z"`
}

type rangeSec struct {
	X []string `toml:"x"`
	Y []string `toml:"y"`
}

type scaleBar struct {
	Length string `toml:"length"`
}

type stageSec struct {
	Align    bool    `toml:"align"`
	Position float64 `toml:"position"`
}

//NewInput returns the afmize input for one conformation. base is the PDB
//file name without its extension; the outputs take the same base name.
func NewInput(base string, g Geometry) *Input {
	in := new(Input)
	in.Noise = "0.0nm"
	in.File.Input = base + ".pdb"
	in.File.Output.Basename = base
	in.File.Output.Formats = []string{"tsv", "svg"}
	in.Probe.Size = probeSize{Radius: fmt.Sprintf("%gnm", g.Radius), Angle: g.Angle}
	in.Resolution.X = fmt.Sprintf("%gnm", g.ResX)
	in.Resolution.Y = fmt.Sprintf("%gnm", g.ResY)
	in.Resolution.Z = fmt.Sprintf("%gangstrom", g.ResZ)
	in.Range.X = []string{fmt.Sprintf("-%gnm", g.SizeX), fmt.Sprintf("%gnm", g.SizeX)}
	in.Range.Y = []string{fmt.Sprintf("-%gnm", g.SizeY), fmt.Sprintf("%gnm", g.SizeY)}
	in.ScaleBar.Length = "0.0nm"
	in.Stage.Align = true
	in.Stage.Position = 0.0
	return in
}

//InputName returns the afmize input file name for a conformation.
func InputName(base string) string {
	return base + "_gen_image.toml"
}

//Handle locates and runs afmize.
type Handle struct {
	command string
}

func NewHandle() *Handle {
	H := new(Handle)
	H.SetDefaults()
	return H
}

//SetDefaults points the handle at the binary named by AFMIZE_PATH.
func (H *Handle) SetDefaults() {
	H.command = os.Getenv("AFMIZE_PATH")
}

//SetCommand overrides the afmize binary.
func (H *Handle) SetCommand(command string) {
	H.command = command
}

//BuildInput writes the input file for one conformation into dir.
func (H *Handle) BuildInput(dir, base string, g Geometry) error {
	f, err := os.Create(filepath.Join(dir, InputName(base)))
	if err != nil {
		return fmt.Errorf("afm: can't write input for %s: %v", base, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(NewInput(base, g)); err != nil {
		return fmt.Errorf("afm: can't encode input for %s: %v", base, err)
	}
	return nil
}

//Run simulates one image inside dir; BuildInput must have been called for
//base first. afmize's own output is only surfaced on failure.
func (H *Handle) Run(dir, base string) error {
	cmd := exec.Command("sh", "-c", fmt.Sprintf("%s %s", H.command, InputName(base)))
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("afm: afmize failed for %s: %v: %s", base, err, out)
	}
	return nil
}

//GenerateAll renders a pseudo-AFM image for every PDB file in dir, running
//at most threads simulations at once. The first failure cancels the rest.
func (H *Handle) GenerateAll(dir string, g Geometry, threads int) error {
	names, err := filepath.Glob(filepath.Join(dir, "*.pdb"))
	if err != nil {
		return err
	}
	if threads < 1 {
		threads = 1
	}
	var group errgroup.Group
	group.SetLimit(threads)
	for _, name := range names {
		base := strings.TrimSuffix(filepath.Base(name), ".pdb")
		group.Go(func() error {
			if err := H.BuildInput(dir, base, g); err != nil {
				return err
			}
			return H.Run(dir, base)
		})
	}
	return group.Wait()
}
