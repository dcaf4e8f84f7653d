package app

import (
	"errors"
	"io"
	"syscall"
)

// isBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Downstream consumers (like `head`) closing early is not a failure.
func isBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
