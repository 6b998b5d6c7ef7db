package grid

import (
	"fmt"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// remapKeys moves every entry of m through fn; entries for which fn returns
// false are dropped.
func remapKeys[V any](m map[address.Key]V, fn func(address.Key) (address.Key, bool)) map[address.Key]V {
	out := make(map[address.Key]V, len(m))
	for k, v := range m {
		if nk, ok := fn(k); ok {
			out[nk] = v
		}
	}
	return out
}

// remap applies fn to the keys of every per-cell map.
func (g *Grid) remap(fn func(address.Key) (address.Key, bool)) {
	g.values = remapKeys(g.values, fn)
	g.types = remapKeys(g.types, fn)
	g.formats = remapKeys(g.formats, fn)
	g.styles = remapKeys(g.styles, fn)
	g.links = remapKeys(g.links, fn)
}

func checkSpan(at, n int) error {
	if at < 0 || n <= 0 {
		return fmt.Errorf("%w: span at %d count %d", models.ErrMalformedInput, at, n)
	}
	return nil
}

// InsertRows inserts n empty rows before row at, shifting cells and their
// metadata down. Formulas are kept verbatim.
func (g *Grid) InsertRows(at, n int) error {
	if err := checkSpan(at, n); err != nil {
		return err
	}
	g.remap(func(k address.Key) (address.Key, bool) {
		if k.Row >= at {
			k.Row += n
		}
		return k, true
	})
	if at <= g.rows {
		g.rows += n
	} else {
		g.rows = at + n
	}
	g.notifyStructure()
	return nil
}

// DeleteRows removes n rows starting at row at.
func (g *Grid) DeleteRows(at, n int) error {
	if err := checkSpan(at, n); err != nil {
		return err
	}
	g.remap(func(k address.Key) (address.Key, bool) {
		switch {
		case k.Row < at:
			return k, true
		case k.Row < at+n:
			return k, false
		}
		k.Row -= n
		return k, true
	})
	if at < g.rows {
		g.rows -= min(n, g.rows-at)
	}
	g.notifyStructure()
	return nil
}

// InsertCols inserts n empty columns before column at. Column widths shift
// with their columns.
func (g *Grid) InsertCols(at, n int) error {
	if err := checkSpan(at, n); err != nil {
		return err
	}
	g.remap(func(k address.Key) (address.Key, bool) {
		if k.Col >= at {
			k.Col += n
		}
		return k, true
	})
	widths := make(map[int]float64, len(g.widths))
	for col, w := range g.widths {
		if col >= at {
			col += n
		}
		widths[col] = w
	}
	g.widths = widths
	if at <= g.cols {
		g.cols += n
	} else {
		g.cols = at + n
	}
	g.notifyStructure()
	return nil
}

// DeleteCols removes n columns starting at column at.
func (g *Grid) DeleteCols(at, n int) error {
	if err := checkSpan(at, n); err != nil {
		return err
	}
	g.remap(func(k address.Key) (address.Key, bool) {
		switch {
		case k.Col < at:
			return k, true
		case k.Col < at+n:
			return k, false
		}
		k.Col -= n
		return k, true
	})
	widths := make(map[int]float64, len(g.widths))
	for col, w := range g.widths {
		switch {
		case col < at:
			widths[col] = w
		case col >= at+n:
			widths[col-n] = w
		}
	}
	g.widths = widths
	if at < g.cols {
		g.cols -= min(n, g.cols-at)
	}
	g.notifyStructure()
	return nil
}

func (g *Grid) notifyStructure() {
	g.notify(Change{Kind: ChangeStructure, Range: address.Range{EndRow: max(g.rows-1, 0), EndCol: max(g.cols-1, 0)}})
}

// Paste writes a rectangular block of values with its top-left corner at
// at, as one batch. A ragged or empty block is rejected.
func (g *Grid) Paste(at address.Key, block [][]models.Value) error {
	if len(block) == 0 || len(block[0]) == 0 {
		return fmt.Errorf("%w: empty paste block", models.ErrMalformedInput)
	}
	width := len(block[0])
	for i, row := range block {
		if len(row) != width {
			return fmt.Errorf("%w: paste row %d has %d cells, expected %d", models.ErrMalformedInput, i, len(row), width)
		}
	}
	return g.Batch(func(tx *Tx) error {
		for r, row := range block {
			for c, v := range row {
				tx.SetValue(address.Key{Row: at.Row + r, Col: at.Col + c}, v)
			}
		}
		tx.grow(address.Key{Row: at.Row + len(block) - 1, Col: at.Col + width - 1})
		return tx.Err()
	})
}
