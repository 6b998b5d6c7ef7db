package sheetcore

import (
	"bytes"
	"encoding/json"
	"mime"
	"path/filepath"
	"strings"
)

// Format is a decodable input format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ContentType identifies encoded workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxErrorBodySize is the largest input that is checked for being an error
// response instead of a spreadsheet.
const maxErrorBodySize = 4096

// binarySniffSize is how much of the input is checked for NUL bytes before
// it is accepted as delimited text.
const binarySniffSize = 8192

var zipMagic = []byte("PK\x03\x04")

// Hint carries what the caller knows about an input.
type Hint struct {
	// Filename is the original file name; only its extension is used.
	Filename string
	// ContentType is the declared media type.
	ContentType string
}

// Detect picks the decoder for data. Error responses are rejected first,
// then the extension, the declared content type and the ZIP signature are
// consulted in that order. Input that is none of these but free of NUL
// bytes is treated as delimited text.
func Detect(data []byte, hint Hint) (Format, error) {
	if isErrorResponse(data) {
		return "", ErrServerErrorMasquerade
	}

	switch strings.ToLower(filepath.Ext(hint.Filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	}

	if hint.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(hint.ContentType); err == nil {
			switch mt {
			case ContentType, "application/vnd.ms-excel.sheet.macroenabled.12":
				return FormatXLSX, nil
			case "text/csv", "text/tab-separated-values", "text/plain", "application/csv":
				return FormatCSV, nil
			}
		}
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX, nil
	}
	if len(bytes.TrimSpace(data)) > 0 && !bytes.Contains(data[:min(len(data), binarySniffSize)], []byte{0}) {
		return FormatCSV, nil
	}
	return "", ErrUnsupportedContainer
}

// isErrorResponse reports whether a small input looks like an HTML page or
// a JSON object.
func isErrorResponse(data []byte) bool {
	if len(data) == 0 || len(data) > maxErrorBodySize {
		return false
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case '<':
		head := strings.ToLower(string(trimmed[:min(len(trimmed), 512)]))
		return strings.HasPrefix(head, "<!doctype html") ||
			strings.Contains(head, "<html") ||
			strings.Contains(head, "<head") ||
			strings.Contains(head, "<body")
	case '{':
		var obj map[string]any
		return json.Unmarshal(trimmed, &obj) == nil
	}
	return false
}
