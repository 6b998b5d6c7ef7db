package models

import "github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"

// CellSource is a read-only view over cell values.
type CellSource interface {
	// Bounds returns the number of rows and columns of the sheet's bounding box.
	Bounds() (rows, cols int)
	// Value returns the value at k, or the empty value.
	Value(k address.Key) Value
}
