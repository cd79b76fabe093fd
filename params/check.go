/*
 * check.go, part of nmff-afm.
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

package params

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TamaLab/nmff-afm/pdb"
)

//Environment variables pointing at the external toolchains.
const (
	EnvNMA    = "NMA_FOLDER"
	EnvAfmize = "AFMIZE_PATH"
	EnvProFit = "PRO_FIT_PATH"
)

//The scripts and binaries expected inside NMA_FOLDER.
var nmaTools = []string{"makebloc.pl", "rtb2", "movemode.pl"}

//SummaryDir is the folder collecting the accepted conformation of every
//iteration, created under the run directory.
const SummaryDir = "All_conformation"

//LogName returns the run-log file name for a run directory, derived from the
//directory's own name as the original driver does.
func LogName(runDir string) string {
	return filepath.Base(filepath.Clean(runDir)) + "_log.csv"
}

//FirstIterDir returns the name of the #s0 iteration folder.
func (P *Params) FirstIterDir() string {
	return P.OriginalConformation + "#s0"
}

//checkTools verifies that the three toolchain env vars are set and that the
//files they point at exist.
func checkTools() error {
	for _, v := range []string{EnvAfmize, EnvNMA, EnvProFit} {
		if os.Getenv(v) == "" {
			return fmt.Errorf("environment variable %s is not set", v)
		}
	}
	nmaDir := os.Getenv(EnvNMA)
	for _, tool := range nmaTools {
		if _, err := os.Stat(filepath.Join(nmaDir, tool)); err != nil {
			return fmt.Errorf("NMA tool %s not found in %s", tool, nmaDir)
		}
	}
	if _, err := os.Stat(os.Getenv(EnvAfmize)); err != nil {
		return fmt.Errorf("afmize not found at %s", os.Getenv(EnvAfmize))
	}
	if _, err := os.Stat(os.Getenv(EnvProFit)); err != nil {
		return fmt.Errorf("Pro-Fit not found at %s", os.Getenv(EnvProFit))
	}
	return nil
}

//Check runs the pre-flight checks for a run rooted at runDir: toolchains
//reachable, input files present and readable, and no leftovers from a
//previous run that would be clobbered. It returns the parsed initial
//structure so the checklist can report its size.
func (P *Params) Check(runDir string) (*pdb.Structure, error) {
	if err := checkTools(); err != nil {
		return nil, err
	}
	if fi, err := os.Stat(runDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("run directory %s does not exist", runDir)
	}
	if strings.Contains(P.OriginalConformation, "#") {
		return nil, fmt.Errorf("initial PDB name %q contains a '#', which the iteration naming reserves; please rename it",
			P.OriginalConformation)
	}
	initial, err := pdb.Read(filepath.Join(runDir, P.OriginalConformation+".pdb"))
	if err != nil {
		return nil, fmt.Errorf("initial PDB: %v", err)
	}
	if initial.NCAlphas() == 0 {
		return nil, fmt.Errorf("initial PDB %s.pdb has no CA atoms, the RTB toolchain can not block it",
			P.OriginalConformation)
	}
	target := filepath.Join(runDir, P.TargetConformation+"."+P.TargetType)
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("target %s file %s does not exist", P.TargetType, target)
	}
	if P.WithReference() {
		ref, err := pdb.Read(filepath.Join(runDir, P.ReferencePDB+".pdb"))
		if err != nil {
			return nil, fmt.Errorf("reference PDB: %v", err)
		}
		if ref.Len() != initial.Len() {
			//Pro-Fit can still fit structures of different size, but this
			//almost always means the wrong file was given.
			fmt.Printf("Warning: reference has %d atoms but the initial structure has %d.\n",
				ref.Len(), initial.Len())
		}
	}
	for _, leftover := range []string{
		SummaryDir,
		LogName(runDir),
		P.FirstIterDir(),
	} {
		if _, err := os.Stat(filepath.Join(runDir, leftover)); err == nil {
			return nil, fmt.Errorf("%s already exists in %s; remove leftovers from the previous run first",
				leftover, runDir)
		}
	}
	return initial, nil
}

const (
	checkMark = " ✓"
	underline = "\033[4m"
	reset     = "\033[0m"
)

func uline(v interface{}) string {
	return fmt.Sprintf("%s%v%s", underline, v, reset)
}

//Checklist prints the parameter sheet shown before the confirmation prompt.
func (P *Params) Checklist(w io.Writer, runDir string, initial *pdb.Structure) {
	fmt.Fprintf(w, "\n=== Check List ===\n\n")
	fmt.Fprintf(w, "Work directory: %s%s\n", uline(runDir), checkMark)
	fmt.Fprintf(w, "Initial PDB file: %s%s (%d atoms, %d residues)\n",
		uline(P.OriginalConformation), checkMark, initial.Len(), initial.NResidues())
	fmt.Fprintf(w, "Target figure: %s%s\n", uline(P.TargetConformation), checkMark)
	fmt.Fprintf(w, "Use which format as target figure: %s\n", uline(P.TargetType))
	fmt.Fprintf(w, "How many steps will be performed: %s\n", uline(P.Iterations))
	fmt.Fprintf(w, "Overall amplitude used in deformation: %s\n", uline(P.CombinedAmplitude))
	fmt.Fprintf(w, "Resolution in x-axis of the AFM images: %snm\n", uline(P.ResX))
	fmt.Fprintf(w, "Resolution in y-axis of the AFM images: %snm\n", uline(P.ResY))
	fmt.Fprintf(w, "Resolution in z-axis of the AFM images: %sAngstrom\n", uline(P.ResZ))
	fmt.Fprintf(w, "The size of the AFM image will be: %snm by %snm\n", uline(P.SizeX*2), uline(P.SizeY*2))
	fmt.Fprintf(w, "Frequency from %s to %s will be used in the calculation.\n",
		uline(P.FirstMode), uline(P.LastMode))
	fmt.Fprintf(w, "%s threads will be used for AFM image simulation.\n\n", uline(P.Threads))
	fmt.Fprintf(w, "Calculate the RMSD-Reference value: %s\n", uline(P.RMSDToReference))
	if P.WithReference() {
		fmt.Fprintf(w, "PDB file named %s will be used to calculate RMSD-Reference.\n\n", uline(P.ReferencePDB))
	}
	fmt.Fprintf(w, "Radius of the probe in the simulated figure: %snm\n", uline(P.ProbeRadius))
	fmt.Fprintf(w, "Angle of the probe in the simulated figure: %s°\n", uline(P.ProbeAngle))
	if P.ArchiveIterations {
		fmt.Fprintf(w, "Finished iteration folders will be archived with zstd.\n")
	}
}

//Confirm asks on w whether to start the run and reads yes/no answers from r
//until one of them is given.
func Confirm(r io.Reader, w io.Writer) bool {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "Start flexible fit-in with above parameters? [yes/no]: ")
		if !scanner.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "yes":
			return true
		case "no":
			return false
		default:
			fmt.Fprintln(w, "Invalid input. Please enter 'yes' to continue or 'no' to stop.")
		}
	}
}
