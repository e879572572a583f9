package document

import (
	"errors"
	"fmt"
)

var (
	// ErrConversion marks failures to turn an uploaded file into PDF pages.
	ErrConversion = errors.New("document conversion failed")
	// ErrNoInput indicates the normalizer received nothing to convert.
	ErrNoInput = errors.New("at least one file is required")
	// ErrUnsupportedFormat indicates the file type has no converter.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnsafePath indicates a relative path tried to escape the storage root.
	ErrUnsafePath = errors.New("path escapes storage root")
)

// ConversionError names the input that could not be converted.
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to pdf: %v", e.File, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrConversion) match any ConversionError.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}
