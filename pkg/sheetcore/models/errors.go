package models

import (
	"errors"
	"fmt"
)

// ErrMalformedInput indicates unparseable or invalid caller input such as
// a bad range, a non-rectangular paste, or an invalid rule definition.
var ErrMalformedInput = errors.New("malformed input")

// ErrPartialApply indicates a staged batch mutation was rejected.
// Nothing from the batch has been applied.
var ErrPartialApply = errors.New("batch rejected")

// ErrMalformedContainer indicates a workbook container that could not be read.
var ErrMalformedContainer = errors.New("malformed workbook container")

// CodecError wraps a failure while reading or writing one part of a workbook.
type CodecError struct {
	SheetName string
	Component string
	Err       error
}

func (e *CodecError) Error() string {
	if e.SheetName != "" {
		return fmt.Sprintf("%s on sheet %q: %v", e.Component, e.SheetName, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// NewCodecError returns a CodecError for component on sheetName.
func NewCodecError(sheetName, component string, err error) *CodecError {
	return &CodecError{SheetName: sheetName, Component: component, Err: err}
}
