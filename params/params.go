/*
 * params.go, part of nmff-afm.
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

//Package params loads and validates the TOML parameter file that controls a
//flexible fit-in run, and performs the pre-flight checks on the run
//directory and the external toolchains before anything is started.
package params

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

//Mode selection strategies understood by the driver.
const (
	SelectSlope          = "slope"
	SelectMaxCC          = "maxcc"
	SelectMaxCCForceMove = "maxcc_force_move"
)

//Params are the contents of the parameter file. The TOML keys are the ones
//the original parameter files use, so existing run setups keep working.
type Params struct {
	OriginalConformation string  `toml:"original_conformation"`
	TargetConformation   string  `toml:"target_conformation"`
	TargetType           string  `toml:"which_type_of_target"`
	CombinedAmplitude    int     `toml:"combined_amplitude"`
	ResX                 float64 `toml:"res_x"`
	ResY                 float64 `toml:"res_y"`
	ResZ                 float64 `toml:"res_z"`
	SizeX                float64 `toml:"size_x"`
	SizeY                float64 `toml:"size_y"`
	FirstMode            int     `toml:"first_mode"`
	LastMode             int     `toml:"last_mode"`
	ModeSelection        string  `toml:"mode_selection"`
	Threads              int     `toml:"how_many_threads"`
	Iterations           int     `toml:"num_iterations"`
	RMSDToReference      string  `toml:"calculate_rmsd_to_reference"`
	ReferencePDB         string  `toml:"file_name_of_reference_pdb"`
	ProbeRadius          float64 `toml:"radius_of_probe"`
	ProbeAngle           float64 `toml:"angle_of_probe"`
	ArchiveIterations    bool    `toml:"archive_iterations"`
}

//WithReference reports whether the run tracks RMSD against a reference
//conformation in addition to the initial one.
func (P *Params) WithReference() bool {
	return P.RMSDToReference == "yes"
}

//NModes returns how many modes the deformation search spans.
func (P *Params) NModes() int {
	return P.LastMode - P.FirstMode + 1
}

//Validate checks the internal consistency of the parameters. File-system
//level checks live in Check.
func (P *Params) Validate() error {
	if P.OriginalConformation == "" {
		return fmt.Errorf("params: original_conformation is not set")
	}
	if P.TargetConformation == "" {
		return fmt.Errorf("params: target_conformation is not set")
	}
	if P.TargetType == "" {
		return fmt.Errorf("params: which_type_of_target is not set")
	}
	if P.CombinedAmplitude <= 0 {
		return fmt.Errorf("params: combined_amplitude must be positive, got %d", P.CombinedAmplitude)
	}
	if P.FirstMode > P.LastMode {
		return fmt.Errorf("params: first_mode (%d) is past last_mode (%d)", P.FirstMode, P.LastMode)
	}
	if P.FirstMode < 1 {
		return fmt.Errorf("params: first_mode must be at least 1, got %d", P.FirstMode)
	}
	switch P.ModeSelection {
	case SelectSlope, SelectMaxCC, SelectMaxCCForceMove:
	default:
		return fmt.Errorf("params: unknown mode_selection %q (possible values are %q, %q and %q)",
			P.ModeSelection, SelectSlope, SelectMaxCC, SelectMaxCCForceMove)
	}
	if P.Threads < 1 {
		return fmt.Errorf("params: how_many_threads must be at least 1, got %d", P.Threads)
	}
	if P.Iterations < 1 {
		return fmt.Errorf("params: num_iterations must be at least 1, got %d", P.Iterations)
	}
	if P.RMSDToReference != "yes" && P.RMSDToReference != "no" {
		return fmt.Errorf("params: calculate_rmsd_to_reference must be \"yes\" or \"no\", got %q", P.RMSDToReference)
	}
	if P.WithReference() && P.ReferencePDB == "" {
		return fmt.Errorf("params: calculate_rmsd_to_reference is \"yes\" but file_name_of_reference_pdb is not set")
	}
	if P.ProbeRadius <= 0 {
		return fmt.Errorf("params: radius_of_probe must be positive, got %g", P.ProbeRadius)
	}
	return nil
}

//Load reads and validates a TOML parameter file.
func Load(name string) (*Params, error) {
	P := new(Params)
	meta, err := toml.DecodeFile(name, P)
	if err != nil {
		return nil, fmt.Errorf("params: %v", err)
	}
	if und := meta.Undecoded(); len(und) > 0 {
		return nil, fmt.Errorf("params: unknown key %q in %s", und[0].String(), name)
	}
	if err := P.Validate(); err != nil {
		return nil, err
	}
	return P, nil
}
