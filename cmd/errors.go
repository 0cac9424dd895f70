// =============================================================================
// YPBank Converter - Exit Codes
// =============================================================================
//
// This file maps command errors to process exit codes.
//
// EXIT CODES:
//   0   - Success
//   1   - Input could not be decoded
//   2   - Output could not be encoded
//   3   - Usage or configuration error
//   4   - I/O error
//   5   - compare --fail-on-diff found a difference
//   6   - validate --strict found an error-severity issue
//   130 - Interrupted
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitDecode    = 1
	ExitEncode    = 2
	ExitUsage     = 3
	ExitIO        = 4
	ExitDiffer    = 5 // compare --fail-on-diff
	ExitInvalid   = 6 // validate --strict
	ExitCancelled = 130
)

var (
	errDiffer  = errors.New("transaction sequences differ")
	errInvalid = errors.New("validation failed")
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error { return &exitError{code: ExitUsage, err: err} }

func ioError(err error) error { return &exitError{code: ExitIO, err: err} }

// classify marks errors that did not come from a codec as I/O failures.
func classify(err error) error {
	var de *types.DecodeError
	var ee *types.EncodeError
	if err == nil || errors.As(err, &de) || errors.As(err, &ee) || errors.Is(err, context.Canceled) {
		return err
	}
	var xe *exitError
	if errors.As(err, &xe) {
		return err
	}
	return ioError(err)
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var de *types.DecodeError
	if errors.As(err, &de) {
		if de.Kind == types.KindIO {
			return ExitIO
		}
		return ExitDecode
	}
	var ee *types.EncodeError
	if errors.As(err, &ee) {
		return ExitEncode
	}

	var xe *exitError
	switch {
	case errors.Is(err, errDiffer):
		return ExitDiffer
	case errors.Is(err, errInvalid):
		return ExitInvalid
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.As(err, &xe):
		return xe.code
	}

	var pe *fs.PathError
	var le *os.LinkError
	if errors.As(err, &pe) || errors.As(err, &le) {
		return ExitIO
	}

	// Cobra reports unknown commands and bad arguments as plain errors.
	return ExitUsage
}
