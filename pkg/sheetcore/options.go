// Package sheetcore decodes and encodes spreadsheet workbooks, keeping
// conditional formatting rules, charts and cell metadata across a round
// trip through the xlsx container.
package sheetcore

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/parser"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/writer"
)

// Options configures decoding and encoding.
type Options struct {
	// Logger receives warnings about skipped or rewritten content.
	// If nil, warnings are discarded.
	Logger *logrus.Logger
	// MetaSheetName is the hidden sheet carrying the metadata payload.
	MetaSheetName string
	// AutofitCap caps auto-fitted column widths, in width units.
	AutofitCap int
	// SheetName names the sheet decoded from delimited text.
	SheetName string
	// Debounce delays overlay recomputation in Watch.
	Debounce time.Duration
}

// DefaultDebounce is the overlay recomputation delay used by Watch.
const DefaultDebounce = 150 * time.Millisecond

// DefaultOptions returns default codec options.
func DefaultOptions() Options {
	return Options{
		MetaSheetName: models.MetaSheetName,
		AutofitCap:    writer.DefaultAutofitCap,
		SheetName:     "Sheet1",
		Debounce:      DefaultDebounce,
	}
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o Options) parserOptions() parser.Options {
	return parser.Options{
		Logger:        o.logger(),
		MetaSheetName: o.MetaSheetName,
		SheetName:     o.SheetName,
	}
}

func (o Options) writerOptions() writer.Options {
	return writer.Options{
		Logger:        o.logger(),
		MetaSheetName: o.MetaSheetName,
		AutofitCap:    o.AutofitCap,
	}
}
