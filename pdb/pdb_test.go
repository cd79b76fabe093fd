/*
 * pdb_test.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package pdb

import (
	"os"
	"path/filepath"
	"testing"
)

const smallPDB = `REMARK test structure
ATOM      1  N   GLY A   1      11.104   6.134  -6.504  1.00  0.00           N
ATOM      2  CA  GLY A   1      11.639   6.071  -5.147  1.00  0.00           C
ATOM      3  C   GLY A   1      10.729   6.768  -4.123  1.00  0.00           C
ATOM      4  N   ALA A   2      10.934   6.564  -2.851  1.00  0.00           N
ATOM      5  CA  ALA A   2      10.124   7.194  -1.784  1.00  0.00           C
HETATM    6  O   HOH B   1       0.000   1.500   2.250  1.00  0.00           O
END
`

func writeTestPDB(t *testing.T, text string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.pdb")
	if err := os.WriteFile(name, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestRead(Te *testing.T) {
	S, err := Read(writeTestPDB(Te, smallPDB))
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 6 {
		Te.Errorf("read %d atoms, want 6", S.Len())
	}
	if S.NResidues() != 3 {
		Te.Errorf("got %d residues, want 3", S.NResidues())
	}
	if S.NCAlphas() != 2 {
		Te.Errorf("got %d CA atoms, want 2", S.NCAlphas())
	}
	at := S.Atoms[1]
	if at.Name != "CA" || at.MolName != "GLY" || at.Chain != 'A' || at.MolID != 1 {
		Te.Errorf("unexpected atom 2: %+v", at)
	}
	if x := S.Coords.At(1, 0); x != 11.639 {
		Te.Errorf("atom 2 x = %f, want 11.639", x)
	}
	if !S.Atoms[5].Het {
		Te.Error("atom 6 should be HETATM")
	}
}

func TestReadRejectsGarbage(Te *testing.T) {
	bad := "ATOM      1  N   GLY A   1      not.a.number\n"
	if _, err := Read(writeTestPDB(Te, bad)); err == nil {
		Te.Error("expected an error for a malformed ATOM record")
	}
	empty := "REMARK nothing here\n"
	if _, err := Read(writeTestPDB(Te, empty)); err == nil {
		Te.Error("expected an error for a PDB with no atoms")
	}
}
