package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV decodes delimited text into a single-sheet workbook. The
// delimiter is sniffed from the first line. Input that is not valid UTF-8
// is read as Windows-1252. Fields go through models.ParseInput, so numbers
// become numbers and "=" fields become formulas.
func ReadCSV(ctx context.Context, data []byte, opts Options) (*workbook.Workbook, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedInput, err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]models.Value
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrMalformedInput, err)
		}
		row := make([]models.Value, len(record))
		for i, field := range record {
			row[i] = models.ParseInput(field)
		}
		rows = append(rows, row)
	}

	s := workbook.NewSheet(opts.sheetName())
	s.Grid = grid.FromRows(rows)
	return workbook.FromSheets([]*workbook.Sheet{s}, 0)
}

func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(data)
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab
// outside quotes on the first line. Ties go to the comma.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	counts := map[rune]int{}
	quoted := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			quoted = !quoted
		case !quoted && (c == ',' || c == ';' || c == '\t'):
			counts[c]++
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
