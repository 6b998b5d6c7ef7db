// Package address provides cell keys, rectangular ranges, and conversions
// between zero-based indices and spreadsheet-style A1 addresses.
package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxColumns is the number of columns addressable in the container format.
const MaxColumns = excelize.MaxColumns

// Key identifies a cell by zero-based row and column.
type Key struct {
	Row int
	Col int
}

// String returns the wire form of the key ("row-col").
func (k Key) String() string {
	return strconv.Itoa(k.Row) + "-" + strconv.Itoa(k.Col)
}

// A1 returns the spreadsheet address of the key (e.g. "B3").
func (k Key) A1() string {
	name, err := excelize.CoordinatesToCellName(k.Col+1, k.Row+1)
	if err != nil {
		return ""
	}
	return name
}

// MarshalText encodes the key as "row-col" so it can key JSON objects.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a "row-col" key.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses the "row-col" wire form of a key.
func ParseKey(s string) (Key, error) {
	r, c, ok := strings.Cut(s, "-")
	if !ok {
		return Key{}, fmt.Errorf("invalid cell key %q", s)
	}
	row, err := strconv.Atoi(r)
	if err != nil || row < 0 {
		return Key{}, fmt.Errorf("invalid cell key %q", s)
	}
	col, err := strconv.Atoi(c)
	if err != nil || col < 0 {
		return Key{}, fmt.Errorf("invalid cell key %q", s)
	}
	return Key{Row: row, Col: col}, nil
}

// Range is an inclusive rectangle of cells.
type Range struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	EndRow   int `json:"endRow"`
	EndCol   int `json:"endCol"`
}

// Cell returns the single-cell range at k.
func Cell(k Key) Range {
	return Range{StartRow: k.Row, StartCol: k.Col, EndRow: k.Row, EndCol: k.Col}
}

// Normalize reorders the corners so that start <= end component-wise.
func (r Range) Normalize() Range {
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	return r
}

// Valid reports whether every corner is non-negative.
func (r Range) Valid() bool {
	return r.StartRow >= 0 && r.StartCol >= 0 && r.EndRow >= 0 && r.EndCol >= 0
}

// Contains reports whether k lies inside r. r must be normalized.
func (r Range) Contains(k Key) bool {
	return k.Row >= r.StartRow && k.Row <= r.EndRow && k.Col >= r.StartCol && k.Col <= r.EndCol
}

// Rows returns the number of rows spanned by r.
func (r Range) Rows() int {
	return r.EndRow - r.StartRow + 1
}

// Cols returns the number of columns spanned by r.
func (r Range) Cols() int {
	return r.EndCol - r.StartCol + 1
}

// Start returns the top-left key.
func (r Range) Start() Key {
	return Key{Row: r.StartRow, Col: r.StartCol}
}

// Intersect returns the overlap of r and o, and false when they are disjoint.
func (r Range) Intersect(o Range) (Range, bool) {
	out := Range{
		StartRow: max(r.StartRow, o.StartRow),
		StartCol: max(r.StartCol, o.StartCol),
		EndRow:   min(r.EndRow, o.EndRow),
		EndCol:   min(r.EndCol, o.EndCol),
	}
	if out.StartRow > out.EndRow || out.StartCol > out.EndCol {
		return Range{}, false
	}
	return out, true
}

// Each calls fn for every key in r in row-major order.
func (r Range) Each(fn func(Key)) {
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			fn(Key{Row: row, Col: col})
		}
	}
}

// String returns the A1 form of r.
func (r Range) String() string {
	return RangeToA1(r)
}

// ColumnToLetter encodes a zero-based column index as bijective base-26
// letters (0 = "A", 25 = "Z", 26 = "AA"). It returns "" for indices outside
// the container's column limit.
func ColumnToLetter(index int) string {
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return ""
	}
	return name
}

// LetterToColumn decodes column letters into a zero-based index.
func LetterToColumn(s string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// RangeToA1 formats r as "A1:D10", or "A1" for a single cell.
func RangeToA1(r Range) string {
	r = r.Normalize()
	start := r.Start().A1()
	if r.Rows() == 1 && r.Cols() == 1 {
		return start
	}
	return start + ":" + Key{Row: r.EndRow, Col: r.EndCol}.A1()
}
