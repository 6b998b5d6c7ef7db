// Package parser decodes workbook containers (xlsx via excelize) and
// delimited text into workbooks.
package parser

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// Options configures decoding.
type Options struct {
	// Logger receives warnings about skipped content. Nil discards them.
	Logger *logrus.Logger
	// MetaSheetName is the hidden sheet holding the metadata payload.
	// Empty means models.MetaSheetName.
	MetaSheetName string
	// SheetName names the sheet of a delimited-text import. Empty means "Sheet1".
	SheetName string
}

func (o Options) metaSheetName() string {
	if o.MetaSheetName != "" {
		return o.MetaSheetName
	}
	return models.MetaSheetName
}

func (o Options) sheetName() string {
	if o.SheetName != "" {
		return o.SheetName
	}
	return "Sheet1"
}

func orDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
