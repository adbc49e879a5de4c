// -----------------------------------------------------------------------
// Error taxonomy - Only misconfiguration is fatal
// -----------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks the expected case of missing external
	// data. Callers convert it into Unavailable envelopes and continue.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrModuleFault marks an unexpected bug (panic or error) inside an
	// analysis module. Isolated at the module boundary.
	ErrModuleFault = errors.New("module fault")

	// ErrValidationConflict marks cross-source disagreement. Recorded
	// as a mismatch, never raised past the validator.
	ErrValidationConflict = errors.New("validation conflict")

	// ErrSafetyVeto marks a safety gate trip. Overrides the rating,
	// never aborts the run.
	ErrSafetyVeto = errors.New("safety veto")

	// ErrPipelineMisconfiguration marks an invalid phase graph or
	// config. The only error class that aborts startup.
	ErrPipelineMisconfiguration = errors.New("pipeline misconfiguration")
)

// FaultError carries the context of a recovered module panic or
// returned error so the phase trace can show what broke.
type FaultError struct {
	Module string
	Cause  error
	Stack  []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("module %s: %v", e.Module, e.Cause)
}

func (e *FaultError) Unwrap() error { return ErrModuleFault }

// NewFault wraps a module error into the fault taxonomy.
func NewFault(module string, cause error, stack []byte) *FaultError {
	return &FaultError{Module: module, Cause: cause, Stack: stack}
}

// MisconfigError reports an invalid pipeline or config at startup.
type MisconfigError struct {
	Detail string
}

func (e *MisconfigError) Error() string {
	return fmt.Sprintf("pipeline misconfiguration: %s", e.Detail)
}

func (e *MisconfigError) Unwrap() error { return ErrPipelineMisconfiguration }

// Misconfigf builds a MisconfigError with a formatted detail.
func Misconfigf(format string, args ...any) *MisconfigError {
	return &MisconfigError{Detail: fmt.Sprintf(format, args...)}
}

// UnavailableError signals missing input data with the input's name so
// the caller can emit a precise reason.
type UnavailableError struct {
	Input string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable", e.Input)
}

func (e *UnavailableError) Unwrap() error { return ErrDataUnavailable }
