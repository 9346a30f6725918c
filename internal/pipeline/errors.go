package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when a required secret is absent or malformed
	ErrMissingCredential = errors.New("missing credential")
	// ErrConfirmationDenied ends a run the operator declined. It is not a failure.
	ErrConfirmationDenied = errors.New("deployment not confirmed")
	// ErrDeploymentFailed wraps any error raised while deploying
	ErrDeploymentFailed = errors.New("deployment failed")
	// ErrVerificationFailed wraps any error raised while verifying a deployed contract
	ErrVerificationFailed = errors.New("verification failed")
)

// MissingCredentialError names the secret or setting preflight rejected
type MissingCredentialError struct {
	Name   string
	Reason string
}

func (e *MissingCredentialError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not set", e.Name)
	}
	return fmt.Sprintf("%s %s", e.Name, e.Reason)
}

func (e *MissingCredentialError) Unwrap() error {
	return ErrMissingCredential
}

func missing(name string) error {
	return &MissingCredentialError{Name: name}
}

func malformed(name, reason string) error {
	return &MissingCredentialError{Name: name, Reason: reason}
}
