/*
 * profit_test.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package profit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touchPDBs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name+".pdb"), []byte("END\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWriteScripts(Te *testing.T) {
	dir := Te.TempDir()
	touchPDBs(Te, dir, "initial", "initial#s1", "initial#s2")
	n, err := WriteScripts(dir, "initial")
	if err != nil {
		Te.Fatal(err)
	}
	if n != 1 {
		Te.Fatalf("wrote %d scripts, want 1", n)
	}
	text, err := os.ReadFile(filepath.Join(dir, ScriptName(1)))
	if err != nil {
		Te.Fatal(err)
	}
	script := string(text)
	if !strings.HasPrefix(script, "reference initial.pdb\n") {
		Te.Errorf("script does not start with the reference:\n%s", script)
	}
	if strings.Contains(script, "mobile initial.pdb") {
		Te.Error("the reference must not be fitted onto itself")
	}
	for _, mobile := range []string{"mobile initial#s1.pdb", "mobile initial#s2.pdb"} {
		if !strings.Contains(script, mobile) {
			Te.Errorf("script is missing %q", mobile)
		}
	}
	if strings.Count(script, "fit\n") != 2 || !strings.HasSuffix(script, "quit\n") {
		Te.Errorf("malformed script:\n%s", script)
	}
}

func TestWriteScriptsChunks(Te *testing.T) {
	dir := Te.TempDir()
	names := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		names = append(names, fmt.Sprintf("conf%03d", i))
	}
	touchPDBs(Te, dir, names...)
	n, err := WriteScripts(dir, "conf000")
	if err != nil {
		Te.Fatal(err)
	}
	//119 mobiles in chunks of 50.
	if n != 3 {
		Te.Errorf("wrote %d scripts, want 3", n)
	}
}

const profitReport = `   Pro-Fit output
Reading reference structure (initial.pdb)...
Reading mobile structure (initial#s1.pdb)...
   Fitting structures...
   RMS: 1.234
Reading mobile structure (initial#s2.pdb)...
   Fitting structures...
   RMS: 2.500
`

func TestParseResults(Te *testing.T) {
	dir := Te.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "result-1.txt"), []byte(profitReport), 0644); err != nil {
		Te.Fatal(err)
	}
	got, err := ParseResults(dir)
	if err != nil {
		Te.Fatal(err)
	}
	if len(got) != 2 {
		Te.Fatalf("parsed %d values, want 2: %v", len(got), got)
	}
	if got["initial#s1"] != 1.234 || got["initial#s2"] != 2.5 {
		Te.Errorf("wrong RMSD values: %v", got)
	}
}

func TestParseResultsMismatch(Te *testing.T) {
	dir := Te.TempDir()
	bad := "Reading mobile structure (a.pdb)...\nno rms here\n"
	if err := os.WriteFile(filepath.Join(dir, "result-1.txt"), []byte(bad), 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := ParseResults(dir); err == nil {
		Te.Error("a report without RMS values should be an error")
	}
}

func TestRunAndClean(Te *testing.T) {
	dir := Te.TempDir()
	touchPDBs(Te, dir, "initial", "initial#s1")
	if _, err := WriteScripts(dir, "initial"); err != nil {
		Te.Fatal(err)
	}
	//A stand-in Pro-Fit that emits a plausible report for any script.
	fake := filepath.Join(Te.TempDir(), "profit")
	script := `#!/bin/sh
echo "Reading mobile structure (initial#s1.pdb)..."
echo "   RMS: 0.500"
`
	if err := os.WriteFile(fake, []byte(script), 0755); err != nil {
		Te.Fatal(err)
	}
	H := NewHandle()
	H.SetCommand(fake)
	if err := H.Run(dir); err != nil {
		Te.Fatal(err)
	}
	got, err := ParseResults(dir)
	if err != nil {
		Te.Fatal(err)
	}
	if got["initial#s1"] != 0.5 {
		Te.Errorf("RMSD = %v, want 0.5", got["initial#s1"])
	}
	if err := CleanScripts(dir); err != nil {
		Te.Fatal(err)
	}
	if _, err := ParseResults(dir); err == nil {
		Te.Error("results should be gone after CleanScripts")
	}
}
