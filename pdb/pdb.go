/*
 * pdb.go, part of nmff-afm.
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

//Package pdb reads the subset of the PDB format that the fit-in pipeline
//needs: ATOM/HETATM records with names, residue information and Cartesian
//coordinates. All structural manipulation (mode deformation, superposition)
//is done by the external toolchains, so nothing here goes beyond parsing.
package pdb

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

//Atom holds the per-atom fields of one ATOM/HETATM record, without the
//coordinates, which are kept together in the Structure's matrix.
type Atom struct {
	ID      int
	Name    string
	MolName string //residue name, 3-letter code
	Chain   byte
	MolID   int //residue number
	Het     bool
}

//Structure is a molecule read from a PDB file. Coords has one row per atom,
//in file order.
type Structure struct {
	Atoms  []*Atom
	Coords *mat.Dense
}

//Len returns the number of atoms in the structure.
func (S *Structure) Len() int {
	return len(S.Atoms)
}

//NResidues returns the number of distinct (chain, residue number) pairs.
func (S *Structure) NResidues() int {
	type res struct {
		chain byte
		molid int
	}
	seen := make(map[res]bool)
	for _, at := range S.Atoms {
		seen[res{at.Chain, at.MolID}] = true
	}
	return len(seen)
}

//NCAlphas returns the number of CA atoms, which the RTB toolchain uses to
//build its blocks. A structure without any is not something the pipeline
//can deform.
func (S *Structure) NCAlphas() int {
	n := 0
	for _, at := range S.Atoms {
		if at.Name == "CA" && !at.Het {
			n++
		}
	}
	return n
}

//parseRecord parses one ATOM/HETATM line into an Atom and its coordinates.
//Only the fixed columns up to the z coordinate are required; shorter or
//malformed lines are an error.
func parseRecord(line string) (*Atom, [3]float64, error) {
	var xyz [3]float64
	if len(line) < 54 {
		return nil, xyz, fmt.Errorf("record too short: %q", line)
	}
	at := new(Atom)
	at.Het = strings.HasPrefix(line, "HETATM")
	var err [5]error
	at.ID, err[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	at.Name = strings.TrimSpace(line[12:16])
	at.MolName = strings.TrimSpace(line[17:20])
	at.Chain = line[21]
	at.MolID, err[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	xyz[0], err[2] = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	xyz[1], err[3] = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	xyz[2], err[4] = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	for _, e := range err {
		if e != nil {
			return nil, xyz, e
		}
	}
	return at, xyz, nil
}

//Read reads the atoms and coordinates of the first model in a PDB file.
//Reading stops at ENDMDL, so multi-model files yield only their first
//conformation, which is all the pipeline ever uses.
func Read(name string) (*Structure, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	S := &Structure{Atoms: make([]*Atom, 0, 1000)}
	coords := make([]float64, 0, 3000)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.HasPrefix(line, "ENDMDL") || strings.HasPrefix(line, "END ") || line == "END" {
			break
		}
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		at, xyz, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("%s, line %d: %v", name, lineno, err)
		}
		S.Atoms = append(S.Atoms, at)
		coords = append(coords, xyz[0], xyz[1], xyz[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if len(S.Atoms) == 0 {
		return nil, fmt.Errorf("%s: no ATOM/HETATM records found", name)
	}
	S.Coords = mat.NewDense(len(S.Atoms), 3, coords)
	return S, nil
}
