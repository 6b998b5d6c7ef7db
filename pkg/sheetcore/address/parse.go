package address

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseA1 parses a single cell address such as "B3" or "$B$3".
func ParseA1(cell string) (Key, bool) {
	cell = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(cell), "$", ""))
	if cell == "" {
		return Key{}, false
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return Key{}, false
	}
	return Key{Row: row - 1, Col: col - 1}, true
}

// ParseA1Range parses a range such as "A1:D10", "$A$1:$D$10", "B2" or a
// sheet-qualified form like 'My Sheet'!A1:B2. The result is normalized.
// It returns false on malformed input.
func ParseA1Range(ref string) (Range, bool) {
	_, rng, ok := ParseQualifiedRange(ref)
	return rng, ok
}

// ParseQualifiedRange is ParseA1Range that also returns the sheet prefix,
// unquoted, or "" when the reference is not qualified.
func ParseQualifiedRange(ref string) (string, Range, bool) {
	ref = strings.TrimSpace(ref)
	var sheet string

	// Split by ! to separate sheet name and range
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		sheet = strings.ReplaceAll(strings.Trim(ref[:idx], "'"), "''", "'")
		ref = ref[idx+1:]
	}

	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return "", Range{}, false
	}

	start, ok := ParseA1(parts[0])
	if !ok {
		return "", Range{}, false
	}
	end := start
	if len(parts) == 2 {
		if end, ok = ParseA1(parts[1]); !ok {
			return "", Range{}, false
		}
	}

	rng := Range{StartRow: start.Row, StartCol: start.Col, EndRow: end.Row, EndCol: end.Col}
	return sheet, rng.Normalize(), true
}

// Resolve turns user-entered range text into a range using the rule-creation
// fallback chain: the parsed text, else the current selection, else the whole
// sheet (rows x cols), else the single cell (0,0).
func Resolve(text string, selection *Range, rows, cols int) Range {
	if rng, ok := ParseA1Range(text); ok {
		return rng
	}
	if selection != nil && selection.Valid() {
		return selection.Normalize()
	}
	if rows > 0 && cols > 0 {
		return Range{EndRow: rows - 1, EndCol: cols - 1}
	}
	return Range{}
}
