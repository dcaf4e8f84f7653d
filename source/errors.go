package source

import (
	"errors"
	"fmt"
)

// FatalError marks conditions that must abort the whole run: an input that
// fails the format check, quality/sequence length disagreement, or a file
// list with no openable member. Recoverable conditions (a single file that
// cannot be opened) never surface as errors; they are warned about once
// and skipped.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatalf builds a FatalError.
func Fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// badFormat reports a first-byte format-check failure, guessing at the
// likely actual format.
func badFormat(expected string, saw byte) error {
	hint := ""
	switch saw {
	case '>':
		hint = "; the file looks like FASTA (use -f)"
	case '@':
		hint = "; the file looks like FASTQ (use -q)"
	}
	return Fatalf("reads file does not look like a %s file (first byte %q)%s", expected, saw, hint)
}
