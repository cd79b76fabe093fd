/*
 * nma.go, part of nmff-afm.
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

//Package nma drives the external RTB normal-mode-analysis toolchain
//(makebloc.pl, rtb2 and movemode.pl). The toolchain is found through the
//NMA_FOLDER environment variable and reached only through its command line;
//no mode mathematics is done here.
package nma

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

//Handle locates and runs the RTB toolchain. The zero value is not usable;
//build one with NewHandle.
type Handle struct {
	root string
}

func NewHandle() *Handle {
	H := new(Handle)
	H.SetDefaults()
	return H
}

//SetDefaults points the handle at the toolchain named by NMA_FOLDER.
func (H *Handle) SetDefaults() {
	H.root = os.Getenv("NMA_FOLDER")
}

//SetRoot overrides the toolchain directory.
func (H *Handle) SetRoot(dir string) {
	H.root = dir
}

func (H *Handle) tool(name string) string {
	return filepath.Join(H.root, name)
}

//run executes a shell command inside dir.
func run(dir, command string) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Error{ErrToolFailed, command, fmt.Sprintf("%v: %s", err, out), []string{"run"}, true}
	}
	return nil
}

//MakeBlocks runs makebloc.pl on the named conformation inside dir, writing
//the block file the RTB calculation reads.
func (H *Handle) MakeBlocks(dir, name string) error {
	command := fmt.Sprintf("%s %s.pdb > pdb", H.tool("makebloc.pl"), name)
	if err := run(dir, command); err != nil {
		return errDecorate(err, "MakeBlocks")
	}
	return nil
}

//BuildInput writes the rtb.inp control file inside dir. nvec is how many
//mode vectors rtb2 will compute; the remaining inputs are the values the
//toolchain expects for protein-sized systems.
func (H *Handle) BuildInput(dir string, nvec int) error {
	f, err := os.Create(filepath.Join(dir, "rtb.inp"))
	if err != nil {
		return Error{ErrCantInput, "rtb.inp", err.Error(), []string{"BuildInput"}, true}
	}
	defer f.Close()
	fmt.Fprintln(f, " &inputs")
	fmt.Fprintln(f, "   cutoff = 8.00,")
	fmt.Fprintln(f, "   ncv = 60,")
	fmt.Fprintln(f, "   tol = 1e-18")
	fmt.Fprintln(f, "   nstep = 0,")
	fmt.Fprintf(f, "   nvec = %d\n", nvec)
	fmt.Fprintln(f, " /&")
	fmt.Fprintln(f, "")
	return nil
}

//ComputeModes runs rtb2 inside dir, producing one mov000.modNNN file per
//mode. BuildInput and MakeBlocks must have run there first.
func (H *Handle) ComputeModes(dir string) error {
	if err := run(dir, H.tool("rtb2")); err != nil {
		return errDecorate(err, "ComputeModes")
	}
	return nil
}

//ModeFile returns the file name rtb2 gives the vector of a mode.
func ModeFile(mode int) string {
	return fmt.Sprintf("mov000.mod%03d", mode)
}

//Deform displaces initialPDB along one mode by amplitude with movemode.pl,
//writing the result to outPDB. Both paths are relative to dir.
func (H *Handle) Deform(dir, initialPDB string, mode int, amplitude float64, outPDB string) error {
	command := fmt.Sprintf("%s %s %s %g > %s",
		H.tool("movemode.pl"), initialPDB, ModeFile(mode), amplitude, outPDB)
	if err := run(dir, command); err != nil {
		return errDecorate(err, "Deform")
	}
	return nil
}

//Amplitudes returns the amplitude grid sampled for every mode: both signs of
//the full and the half amplitude, plus zero. The half amplitude is truncated
//to an integer so it can name files.
func Amplitudes(amplitude int) []int {
	half := amplitude / 2
	return []int{-amplitude, -half, 0, half, amplitude}
}

//DeformedName returns the PDB file name for one (mode, amplitude) sample.
func DeformedName(mode, dq int) string {
	return fmt.Sprintf("%d#%d.pdb", mode, dq)
}

//GenerateDeformed deforms the named conformation along every mode in
//[first, last] over the amplitude grid, writing mode#dq.pdb files into dir.
//Stale outputs from a previous attempt are replaced.
func (H *Handle) GenerateDeformed(dir, name string, amplitude, first, last int) error {
	if amplitude <= 0 {
		return Error{ErrBadAmplitude, name, fmt.Sprintf("amplitude %d", amplitude), []string{"GenerateDeformed"}, true}
	}
	initial := name + ".pdb"
	for mode := first; mode <= last; mode++ {
		for _, dq := range Amplitudes(amplitude) {
			out := DeformedName(mode, dq)
			if err := os.Remove(filepath.Join(dir, out)); err != nil && !os.IsNotExist(err) {
				return Error{ErrToolFailed, out, err.Error(), []string{"GenerateDeformed"}, true}
			}
			if err := H.Deform(dir, initial, mode, float64(dq), out); err != nil {
				return errDecorate(err, "GenerateDeformed")
			}
		}
	}
	return nil
}
