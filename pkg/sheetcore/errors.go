package sheetcore

import (
	"errors"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// ErrUnsupportedContainer indicates the input is neither delimited text
// nor a recognized spreadsheet container.
var ErrUnsupportedContainer = errors.New("unsupported container")

// ErrServerErrorMasquerade indicates the input is an error response, such
// as a JSON error body or an HTML error page, rather than a spreadsheet.
var ErrServerErrorMasquerade = errors.New("input is a server error response, not a spreadsheet")

// ErrMalformedContainer indicates a recognized container that cannot be read.
var ErrMalformedContainer = models.ErrMalformedContainer

// ErrMalformedInput indicates invalid ranges, rules, charts or text.
var ErrMalformedInput = models.ErrMalformedInput

// CodecError represents an error while decoding or encoding one component
// of a sheet.
type CodecError = models.CodecError
