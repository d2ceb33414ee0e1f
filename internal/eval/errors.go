package eval

import (
	"errors"
	"fmt"
)

var (
	// ErrFileCountMismatch means the submission and ground-truth directories
	// hold a different number of files.
	ErrFileCountMismatch = errors.New("submission and ground truth file counts differ")

	// ErrFileNameMismatch means sorted submission and ground-truth file names
	// do not match pairwise.
	ErrFileNameMismatch = errors.New("submission and ground truth file names differ")

	// ErrUnknownClass means a record names a class missing from the object
	// config.
	ErrUnknownClass = errors.New("unknown class")

	// ErrMalformedRecord means a record has the wrong number of fields or a
	// field fails to parse.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrGridIndex means a grid-indexed record points outside the range or
	// angle grid.
	ErrGridIndex = errors.New("grid index out of range")

	// ErrThresholdNotFound means a report asked for a similarity threshold
	// that was not evaluated.
	ErrThresholdNotFound = errors.New("similarity threshold not evaluated")
)

// RecordError reports the input line that failed to parse.
type RecordError struct {
	Line int    // 1-based line number
	Text string // offending line, trimmed
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
