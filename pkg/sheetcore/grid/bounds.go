package grid

import "github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"

// UsedRange returns the bounding box of non-empty cells, and false when
// every cell is empty.
func (g *Grid) UsedRange() (address.Range, bool) {
	minRow, maxRow := -1, -1
	minCol, maxCol := -1, -1

	for k := range g.values {
		if minRow < 0 || k.Row < minRow {
			minRow = k.Row
		}
		if maxRow < 0 || k.Row > maxRow {
			maxRow = k.Row
		}
		if minCol < 0 || k.Col < minCol {
			minCol = k.Col
		}
		if maxCol < 0 || k.Col > maxCol {
			maxCol = k.Col
		}
	}

	if minRow < 0 {
		return address.Range{}, false
	}
	return address.Range{StartRow: minRow, StartCol: minCol, EndRow: maxRow, EndCol: maxCol}, true
}

// CountNonEmpty counts non-empty cells within r.
func (g *Grid) CountNonEmpty(r address.Range) int {
	r = r.Normalize()
	count := 0
	for k := range g.values {
		if r.Contains(k) {
			count++
		}
	}
	return count
}
