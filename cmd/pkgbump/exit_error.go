package main

import (
	"errors"
	"fmt"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// Process exit codes
const (
	ExitOK                  = 0
	ExitGeneric             = 1
	ExitUsage               = 2
	ExitUpstreamUnavailable = 3
	ExitRecipeMalformed     = 4
	ExitAssetMissing        = 5
	ExitInvalidRecord       = 6
	ExitDowngrade           = 7
	ExitSignatureInvalid    = 8
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a command line mistake
func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

// exitCodes maps domain failures to their exit codes, checked in order
var exitCodes = []struct {
	err  error
	code int
}{
	{entities.ErrUpstreamUnavailable, ExitUpstreamUnavailable},
	{entities.ErrRecipeMalformed, ExitRecipeMalformed},
	{entities.ErrAssetMissing, ExitAssetMissing},
	{entities.ErrInvalidRecord, ExitInvalidRecord},
	{entities.ErrDowngrade, ExitDowngrade},
	{entities.ErrSignatureInvalid, ExitSignatureInvalid},
}

// exitCodeFor classifies an error returned by a command
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	for _, c := range exitCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ExitGeneric
}
