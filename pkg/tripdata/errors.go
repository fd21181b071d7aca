package tripdata

import (
	"errors"
	"fmt"
)

// FormatError reports source data that does not match the expected trip
// schema: a missing required column or a timestamp that fails to parse.
// Format problems fail the whole attempt; there is no per-row skip.
type FormatError struct {
	Path    string
	Message string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// NewFormatErrorf creates a FormatError with a formatted message.
func NewFormatErrorf(path, format string, args ...any) *FormatError {
	return &FormatError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsFormatError reports whether err is (or wraps) a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IOError reports a failure writing the staging artifact.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("staging write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err is (or wraps) an IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}
