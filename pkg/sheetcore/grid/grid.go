// Package grid implements the sparse cell model: values plus per-cell type
// metadata, formats, styles, links, and column widths.
package grid

import (
	"fmt"
	"maps"

	"github.com/tiendc/go-deepcopy"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// ChangeKind classifies a committed mutation.
type ChangeKind int

const (
	// ChangeValues means cell values changed.
	ChangeValues ChangeKind = iota + 1
	// ChangeMeta means type metadata, formats, styles, links or widths changed.
	ChangeMeta
	// ChangeStructure means rows or columns were inserted or deleted.
	ChangeStructure
)

// Change describes one committed mutation. A batch produces exactly one Change.
type Change struct {
	Kind  ChangeKind
	Range address.Range
}

// Grid is a sparse grid of cells with metadata maps. It is owned by a single
// editor session and is not safe for concurrent mutation.
type Grid struct {
	rows, cols int

	values  map[address.Key]models.Value
	types   map[address.Key]models.TypeMeta
	formats map[address.Key]models.Format
	styles  map[address.Key]models.Style
	links   map[address.Key]models.Link
	widths  map[int]float64

	listeners []func(Change)
}

// New returns an empty grid with the given bounding box.
func New(rows, cols int) *Grid {
	return &Grid{
		rows:    max(rows, 0),
		cols:    max(cols, 0),
		values:  make(map[address.Key]models.Value),
		types:   make(map[address.Key]models.TypeMeta),
		formats: make(map[address.Key]models.Format),
		styles:  make(map[address.Key]models.Style),
		links:   make(map[address.Key]models.Link),
		widths:  make(map[int]float64),
	}
}

// FromRows builds a grid from dense rows. Ragged rows are allowed.
func FromRows(rows [][]models.Value) *Grid {
	g := New(len(rows), 0)
	for r, row := range rows {
		g.cols = max(g.cols, len(row))
		for c, v := range row {
			if !v.IsEmpty() {
				g.values[address.Key{Row: r, Col: c}] = v
			}
		}
	}
	return g
}

// OnChange registers fn to be called after every committed mutation.
func (g *Grid) OnChange(fn func(Change)) {
	g.listeners = append(g.listeners, fn)
}

func (g *Grid) notify(c Change) {
	for _, fn := range g.listeners {
		fn(c)
	}
}

// Bounds returns the bounding box size.
func (g *Grid) Bounds() (rows, cols int) {
	return g.rows, g.cols
}

// Range returns the whole bounding box, and false when the grid is empty.
func (g *Grid) Range() (address.Range, bool) {
	if g.rows == 0 || g.cols == 0 {
		return address.Range{}, false
	}
	return address.Range{EndRow: g.rows - 1, EndCol: g.cols - 1}, true
}

// Resize sets the bounding box and drops every cell outside it.
func (g *Grid) Resize(rows, cols int) {
	g.rows, g.cols = max(rows, 0), max(cols, 0)
	g.remap(func(k address.Key) (address.Key, bool) {
		return k, k.Row < g.rows && k.Col < g.cols
	})
	g.notify(Change{Kind: ChangeStructure, Range: address.Range{EndRow: max(g.rows-1, 0), EndCol: max(g.cols-1, 0)}})
}

func (g *Grid) grow(k address.Key) {
	g.rows = max(g.rows, k.Row+1)
	g.cols = max(g.cols, k.Col+1)
}

// Value returns the value at k.
func (g *Grid) Value(k address.Key) models.Value {
	return g.values[k]
}

// Rows returns the values as dense rows covering the bounding box.
func (g *Grid) Rows() [][]models.Value {
	out := make([][]models.Value, g.rows)
	for r := range out {
		out[r] = make([]models.Value, g.cols)
	}
	for k, v := range g.values {
		if k.Row < g.rows && k.Col < g.cols {
			out[k.Row][k.Col] = v
		}
	}
	return out
}

// EachValue calls fn for every non-empty cell, in no particular order.
func (g *Grid) EachValue(fn func(address.Key, models.Value)) {
	for k, v := range g.values {
		fn(k, v)
	}
}

// SetValue sets a single cell value. An empty value clears the cell.
func (g *Grid) SetValue(k address.Key, v models.Value) error {
	return g.Batch(func(tx *Tx) error {
		tx.SetValue(k, v)
		return nil
	})
}

// TypeMeta returns the type metadata at k.
func (g *Grid) TypeMeta(k address.Key) (models.TypeMeta, bool) {
	m, ok := g.types[k]
	return m.Clone(), ok
}

// SetTypeMeta sets normalized type metadata at k.
func (g *Grid) SetTypeMeta(k address.Key, m models.TypeMeta) error {
	return g.Batch(func(tx *Tx) error {
		tx.SetTypeMeta(k, m)
		return nil
	})
}

// RemoveTypeMeta clears type metadata at k.
func (g *Grid) RemoveTypeMeta(k address.Key) error {
	return g.Batch(func(tx *Tx) error {
		tx.RemoveTypeMeta(k)
		return nil
	})
}

// Format returns the format at k.
func (g *Grid) Format(k address.Key) (models.Format, bool) {
	f, ok := g.formats[k]
	return f, ok
}

// Style returns a copy of the style at k.
func (g *Grid) Style(k address.Key) (models.Style, bool) {
	s, ok := g.styles[k]
	return s.Clone(), ok
}

// Link returns the link at k.
func (g *Grid) Link(k address.Key) (models.Link, bool) {
	l, ok := g.links[k]
	return l, ok
}

// SetLink sets a user link at k.
func (g *Grid) SetLink(k address.Key, url string) error {
	return g.Batch(func(tx *Tx) error {
		tx.SetLink(k, models.Link{URL: url})
		return nil
	})
}

// RemoveLink clears any link at k.
func (g *Grid) RemoveLink(k address.Key) error {
	return g.Batch(func(tx *Tx) error {
		tx.RemoveLink(k)
		return nil
	})
}

// ColumnWidth returns the stored pixel width of col.
func (g *Grid) ColumnWidth(col int) (float64, bool) {
	w, ok := g.widths[col]
	return w, ok
}

// SetColumnWidth stores a pixel width for col.
func (g *Grid) SetColumnWidth(col int, px float64) error {
	if col < 0 || px < 0 {
		return fmt.Errorf("%w: column width %v for column %d", models.ErrMalformedInput, px, col)
	}
	g.widths[col] = px
	g.notify(Change{Kind: ChangeMeta, Range: address.Range{StartCol: col, EndCol: col, EndRow: max(g.rows-1, 0)}})
	return nil
}

// ColumnWidths returns a copy of the stored widths.
func (g *Grid) ColumnWidths() map[int]float64 {
	return maps.Clone(g.widths)
}

// Clone returns a deep copy of g without its listeners.
func (g *Grid) Clone() (*Grid, error) {
	out := New(g.rows, g.cols)
	out.values = maps.Clone(g.values)
	out.formats = maps.Clone(g.formats)
	out.links = maps.Clone(g.links)
	out.widths = maps.Clone(g.widths)

	if err := deepcopy.Copy(&out.types, &g.types); err != nil {
		return nil, fmt.Errorf("copy type metadata: %w", err)
	}
	if err := deepcopy.Copy(&out.styles, &g.styles); err != nil {
		return nil, fmt.Errorf("copy styles: %w", err)
	}
	return out, nil
}
