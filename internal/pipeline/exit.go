package pipeline

import "errors"

// Process exit codes
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitVerificationFailed = 2 // contract deployed, source not verified
)

// ExitCode maps an outcome to the process exit status. A declined
// confirmation is not a failure; a run that stopped short of a terminal
// state is.
func ExitCode(o Outcome) int {
	switch {
	case errors.Is(o.Err, ErrConfirmationDenied):
		return ExitOK
	case errors.Is(o.Err, ErrVerificationFailed):
		return ExitVerificationFailed
	case o.Err == nil && o.State.Terminal():
		return ExitOK
	default:
		return ExitFailure
	}
}
