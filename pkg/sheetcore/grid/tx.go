package grid

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// Tx stages mutations for Batch. Nothing staged is visible on the grid until
// the batch commits. Read-modify-write helpers such as AddClass and SetType
// build on the staged state, so several edits to one cell compose.
type Tx struct {
	g       *Grid
	ops     []func()
	err     error
	touched address.Range
	dirty   bool
	kind    ChangeKind

	types   map[address.Key]models.TypeMeta
	formats map[address.Key]models.Format
}

// Batch runs fn against a Tx and commits every staged mutation in one step.
// If fn returns an error, or any staged mutation was invalid, nothing is
// applied and the returned error wraps models.ErrPartialApply.
// A successful batch emits a single Change.
func (g *Grid) Batch(fn func(tx *Tx) error) error {
	tx := &Tx{
		g:       g,
		types:   make(map[address.Key]models.TypeMeta),
		formats: make(map[address.Key]models.Format),
	}
	if err := fn(tx); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPartialApply, err)
	}
	if tx.err != nil {
		return fmt.Errorf("%w: %w", models.ErrPartialApply, tx.err)
	}
	if len(tx.ops) == 0 {
		return nil
	}
	for _, op := range tx.ops {
		op()
	}
	g.notify(Change{Kind: tx.kind, Range: tx.touched})
	return nil
}

func (tx *Tx) fail(err error) {
	if tx.err == nil {
		tx.err = err
	}
}

// stage queues op and reports whether it was accepted.
func (tx *Tx) stage(k address.Key, kind ChangeKind, op func()) bool {
	if tx.err != nil {
		return false
	}
	if k.Row < 0 || k.Col < 0 {
		tx.fail(fmt.Errorf("%w: negative cell key %v", models.ErrMalformedInput, k))
		return false
	}
	if !tx.dirty {
		tx.touched = address.Cell(k)
		tx.dirty = true
	} else {
		tx.touched = address.Range{
			StartRow: min(tx.touched.StartRow, k.Row),
			StartCol: min(tx.touched.StartCol, k.Col),
			EndRow:   max(tx.touched.EndRow, k.Row),
			EndCol:   max(tx.touched.EndCol, k.Col),
		}
	}
	if tx.kind == 0 || kind == ChangeValues {
		tx.kind = kind
	}
	tx.ops = append(tx.ops, op)
	return true
}

// TypeMeta returns the cell's type metadata as staged so far in the batch.
func (tx *Tx) TypeMeta(k address.Key) (models.TypeMeta, bool) {
	if m, ok := tx.types[k]; ok {
		return m.Clone(), m.Type != ""
	}
	m, ok := tx.g.types[k]
	return m.Clone(), ok
}

// Format returns the cell's format as staged so far in the batch.
func (tx *Tx) Format(k address.Key) (models.Format, bool) {
	if f, ok := tx.formats[k]; ok {
		return f, f.ClassName != ""
	}
	f, ok := tx.g.formats[k]
	return f, ok
}

// Err returns the first staging error.
func (tx *Tx) Err() error {
	return tx.err
}

// SetValue stages a value write. An empty value clears the cell.
func (tx *Tx) SetValue(k address.Key, v models.Value) {
	g := tx.g
	tx.stage(k, ChangeValues, func() {
		if v.IsEmpty() {
			delete(g.values, k)
			return
		}
		g.values[k] = v
		g.grow(k)
	})
}

// grow stages extending the bounding box to include k.
func (tx *Tx) grow(k address.Key) {
	g := tx.g
	tx.stage(k, ChangeValues, func() {
		g.grow(k)
	})
}

// SetTypeMeta stages a normalized type metadata write.
func (tx *Tx) SetTypeMeta(k address.Key, m models.TypeMeta) {
	if err := m.Validate(); err != nil {
		tx.fail(err)
		return
	}
	m = m.Normalize().Clone()
	g := tx.g
	if tx.stage(k, ChangeMeta, func() {
		g.types[k] = m
	}) {
		tx.types[k] = m
	}
}

// SetType stages a type change on top of the cell's current metadata.
// Switching to dropdown or checkbox drops any numeric or date format.
func (tx *Tx) SetType(k address.Key, t models.CellType) {
	m, _ := tx.TypeMeta(k)
	m.Type = t
	tx.SetTypeMeta(k, m)
}

// RemoveTypeMeta stages removal of type metadata.
func (tx *Tx) RemoveTypeMeta(k address.Key) {
	g := tx.g
	if tx.stage(k, ChangeMeta, func() {
		delete(g.types, k)
	}) {
		tx.types[k] = models.TypeMeta{}
	}
}

// SetFormat stages a format write. An empty class list removes the format.
func (tx *Tx) SetFormat(k address.Key, f models.Format) {
	g := tx.g
	if tx.stage(k, ChangeMeta, func() {
		if f.ClassName == "" {
			delete(g.formats, k)
			return
		}
		g.formats[k] = f
	}) {
		tx.formats[k] = f
	}
}

// AddClass stages adding a format tag.
func (tx *Tx) AddClass(k address.Key, tag string) {
	f, _ := tx.Format(k)
	tx.SetFormat(k, f.With(tag))
}

// RemoveClass stages removing a format tag.
func (tx *Tx) RemoveClass(k address.Key, tag string) {
	f, _ := tx.Format(k)
	tx.SetFormat(k, f.Without(tag))
}

// MergeStyle stages merging props over the cell's style. Empty values
// remove the property.
func (tx *Tx) MergeStyle(k address.Key, props models.Style) {
	g := tx.g
	props = props.Clone()
	tx.stage(k, ChangeMeta, func() {
		merged := g.styles[k].Merge(props)
		for name, v := range merged {
			if v == "" {
				delete(merged, name)
			}
		}
		if len(merged) == 0 {
			delete(g.styles, k)
			return
		}
		g.styles[k] = merged
	})
}

// RemoveStyle stages removal of the whole style map.
func (tx *Tx) RemoveStyle(k address.Key) {
	g := tx.g
	tx.stage(k, ChangeMeta, func() {
		delete(g.styles, k)
	})
}

// SetLink stages a link write.
func (tx *Tx) SetLink(k address.Key, l models.Link) {
	if l.URL == "" {
		tx.fail(fmt.Errorf("%w: empty link", models.ErrMalformedInput))
		return
	}
	g := tx.g
	tx.stage(k, ChangeMeta, func() {
		g.links[k] = l
	})
}

// RemoveLink stages link removal.
func (tx *Tx) RemoveLink(k address.Key) {
	g := tx.g
	tx.stage(k, ChangeMeta, func() {
		delete(g.links, k)
	})
}

// Selection helpers. Each applies to every cell of the range as one batch.

var errNegativeRange = errors.New("range has negative coordinates")

func checkRange(r address.Range) (address.Range, error) {
	r = r.Normalize()
	if !r.Valid() {
		return r, fmt.Errorf("%w: %w", models.ErrMalformedInput, errNegativeRange)
	}
	return r, nil
}

// SetTypeRange sets the cell type on every cell of r.
func (g *Grid) SetTypeRange(r address.Range, t models.CellType) error {
	return g.rangeBatch(r, func(tx *Tx, k address.Key) { tx.SetType(k, t) })
}

// SetTypeMetaRange writes the same metadata to every cell of r.
func (g *Grid) SetTypeMetaRange(r address.Range, m models.TypeMeta) error {
	return g.rangeBatch(r, func(tx *Tx, k address.Key) { tx.SetTypeMeta(k, m) })
}

// AddClassRange adds a format tag to every cell of r.
func (g *Grid) AddClassRange(r address.Range, tag string) error {
	return g.rangeBatch(r, func(tx *Tx, k address.Key) { tx.AddClass(k, tag) })
}

// RemoveClassRange removes a format tag from every cell of r.
func (g *Grid) RemoveClassRange(r address.Range, tag string) error {
	return g.rangeBatch(r, func(tx *Tx, k address.Key) { tx.RemoveClass(k, tag) })
}

// MergeStyleRange merges props over the style of every cell of r.
func (g *Grid) MergeStyleRange(r address.Range, props models.Style) error {
	return g.rangeBatch(r, func(tx *Tx, k address.Key) { tx.MergeStyle(k, props) })
}

// ClearFormattingRange removes formats and styles from every cell of r.
func (g *Grid) ClearFormattingRange(r address.Range) error {
	return g.rangeBatch(r, func(tx *Tx, k address.Key) {
		tx.SetFormat(k, models.Format{})
		tx.RemoveStyle(k)
	})
}

func (g *Grid) rangeBatch(r address.Range, fn func(*Tx, address.Key)) error {
	r, err := checkRange(r)
	if err != nil {
		return err
	}
	return g.Batch(func(tx *Tx) error {
		r.Each(func(k address.Key) { fn(tx, k) })
		return tx.Err()
	})
}
