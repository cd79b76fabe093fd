/*
 * main.go, part of nmff-afm.
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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TamaLab/nmff-afm/params"
	"github.com/TamaLab/nmff-afm/pipeline"
)

func newRootCmd() *cobra.Command {
	var yes bool
	var criterion string
	cmd := &cobra.Command{
		Use:   "nmff-afm <parameter-file>",
		Short: "Flexible fit-in of a protein conformation to an AFM image",
		Long: `nmff-afm iteratively deforms a protein structure along its normal modes
until its simulated AFM image matches a target image.

The run happens in the parameter file's directory. The normal mode
toolchain, afmize and Pro-Fit must be reachable through the NMA_FOLDER,
AFMIZE_PATH and PRO_FIT_PATH environment variables.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch criterion {
			case pipeline.JudgeNumeric, pipeline.JudgeAverage, pipeline.JudgeSingle:
			default:
				return fmt.Errorf("unknown criterion %q (possible values are %q, %q and %q)",
					criterion, pipeline.JudgeNumeric, pipeline.JudgeAverage, pipeline.JudgeSingle)
			}
			fmt.Println("=== NMFF-AFM initializing... ===")
			P, err := params.Load(args[0])
			if err != nil {
				return err
			}
			runDir, err := filepath.Abs(filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			initial, err := P.Check(runDir)
			if err != nil {
				return err
			}
			P.Checklist(os.Stdout, runDir, initial)
			if !yes && !params.Confirm(os.Stdin, os.Stdout) {
				fmt.Println("Nothing was started.")
				return nil
			}
			R := pipeline.New(P, runDir)
			R.Criterion = criterion
			_, err = R.Run()
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "start without the confirmation prompt")
	cmd.Flags().StringVar(&criterion, "criterion", pipeline.JudgeNumeric,
		"stopping criterion: numeric, average or single")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
