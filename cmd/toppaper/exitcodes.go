package main

import (
	"context"
	"errors"

	"github.com/renyezhang/toppaper/internal/consolidate"
	"github.com/renyezhang/toppaper/internal/fetch"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (unknown venue, missing workspace or index)
	ExitDataError    = 3 // Data error (unreadable or unwritable store)
	ExitNetworkError = 4 // Listing or API could not be fetched
	ExitAborted      = 5 // Interrupted, or a confirmation was declined
)

// exitCodeFor maps an operation error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, consolidate.ErrDeclined):
		return ExitAborted
	case errors.Is(err, consolidate.ErrInvalidYear):
		return ExitError
	case errors.Is(err, fetch.ErrNetwork), isStatusError(err):
		return ExitNetworkError
	default:
		return ExitError
	}
}

func isStatusError(err error) bool {
	var se *fetch.StatusError
	return errors.As(err, &se)
}
