/*
 * errors.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 */

package nma

import "fmt"

//Error is the error type for failures of the RTB toolchain or of the files
//feeding it.
type Error struct {
	message  string
	subject  string //the command or file involved
	detail   string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.detail == "" {
		return fmt.Sprintf("nma: %s (%s)", err.message, err.subject)
	}
	return fmt.Sprintf("nma: %s (%s): %s", err.message, err.subject, err.detail)
}

//Decorate adds the caller's name to the error's trace and returns the trace.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns true if the error should abort the run.
func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	e, ok := err.(Error)
	if !ok {
		return err
	}
	e.Decorate(caller)
	return e
}

const (
	ErrToolFailed   = "toolchain command failed"
	ErrCantInput    = "can't write input file"
	ErrBadAmplitude = "deformation amplitude must be positive"
)
