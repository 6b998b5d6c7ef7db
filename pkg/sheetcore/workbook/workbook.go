// Package workbook manages the ordered sheets of a document and the active
// sheet, and republishes sheet mutations on an event bus.
package workbook

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

var (
	// ErrLastSheet is returned when deleting the only sheet.
	ErrLastSheet = errors.New("cannot delete the last sheet")
	// ErrSheetIndex is returned for an index outside the sheet list.
	ErrSheetIndex = errors.New("sheet index out of range")
	// ErrSheetName is returned for an empty or reserved sheet name.
	ErrSheetName = errors.New("invalid sheet name")
)

// Workbook is an ordered list of sheets with an active index.
// It always holds at least one sheet and the active index is always valid.
type Workbook struct {
	Bus *Bus

	sheets []*Sheet
	active int
}

// New returns a workbook with one empty sheet named "Sheet1".
func New() *Workbook {
	w := &Workbook{Bus: NewBus()}
	w.sheets = []*Sheet{w.attach(NewSheet("Sheet1"))}
	return w
}

// FromSheets builds a workbook from decoded sheets.
func FromSheets(sheets []*Sheet, active int) (*Workbook, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", models.ErrMalformedInput)
	}
	w := &Workbook{Bus: NewBus()}
	for _, s := range sheets {
		w.sheets = append(w.sheets, w.attach(s))
	}
	w.active = min(max(active, 0), len(sheets)-1)
	return w, nil
}

// attach routes the sheet's grid, rule and chart notifications to the bus
// while the sheet belongs to w.
func (w *Workbook) attach(s *Sheet) *Sheet {
	owned := func() bool { return slices.Contains(w.sheets, s) }
	s.Grid.OnChange(func(c grid.Change) {
		if owned() {
			w.Bus.Publish(Event{Type: DataChanged, SheetID: s.ID, Change: c})
		}
	})
	s.Rules.OnChange(func() {
		if owned() {
			w.Bus.Publish(Event{Type: RulesChanged, SheetID: s.ID})
		}
	})
	s.onCharts = func() {
		if owned() {
			w.Bus.Publish(Event{Type: DataChanged, SheetID: s.ID})
		}
	}
	return s
}

// Len returns the number of sheets.
func (w *Workbook) Len() int {
	return len(w.sheets)
}

// Sheets returns the sheets in order.
func (w *Workbook) Sheets() []*Sheet {
	return slices.Clone(w.sheets)
}

// Sheet returns the sheet at index i.
func (w *Workbook) Sheet(i int) (*Sheet, error) {
	if i < 0 || i >= len(w.sheets) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSheetIndex, i, len(w.sheets))
	}
	return w.sheets[i], nil
}

// SheetByName returns the first sheet with the given name.
func (w *Workbook) SheetByName(name string) (*Sheet, int, bool) {
	for i, s := range w.sheets {
		if s.Name == name {
			return s, i, true
		}
	}
	return nil, -1, false
}

// Names returns the sheet names in order.
func (w *Workbook) Names() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.Name
	}
	return names
}

// ActiveIndex returns the index of the active sheet.
func (w *Workbook) ActiveIndex() int {
	return w.active
}

// Active returns the active sheet.
func (w *Workbook) Active() *Sheet {
	return w.sheets[w.active]
}

// AddSheet appends an empty sheet named "Sheet{n+1}" where n is the
// current sheet count. The name may repeat a renamed sheet's name.
func (w *Workbook) AddSheet() *Sheet {
	s := w.attach(NewSheet(fmt.Sprintf("Sheet%d", len(w.sheets)+1)))
	w.sheets = append(w.sheets, s)
	return s
}

// DuplicateSheet deep-copies the sheet at i and inserts the copy after it.
func (w *Workbook) DuplicateSheet(i int) (*Sheet, error) {
	src, err := w.Sheet(i)
	if err != nil {
		return nil, err
	}
	dup, err := src.clone(src.Name + " (Copy)")
	if err != nil {
		return nil, fmt.Errorf("duplicate sheet %q: %w", src.Name, err)
	}
	w.sheets = slices.Insert(w.sheets, i+1, w.attach(dup))
	if w.active > i {
		w.active++
	}
	return dup, nil
}

// DeleteSheet removes the sheet at i with its rules and charts. The last
// remaining sheet cannot be deleted.
func (w *Workbook) DeleteSheet(i int) error {
	if _, err := w.Sheet(i); err != nil {
		return err
	}
	if len(w.sheets) == 1 {
		return ErrLastSheet
	}
	prev := w.active
	w.sheets = slices.Delete(w.sheets, i, i+1)
	switch {
	case i == prev:
		w.active = max(0, i-1)
	case i < prev:
		w.active--
	}
	if i == prev {
		w.Bus.Publish(Event{Type: SheetSwitched, SheetID: w.Active().ID, From: prev, To: w.active})
	}
	return nil
}

// RenameSheet renames the sheet at i. Names are not required to be unique;
// the encoder makes container names unique on save.
func (w *Workbook) RenameSheet(i int, name string) error {
	s, err := w.Sheet(i)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == models.MetaSheetName {
		return fmt.Errorf("%w: %q", ErrSheetName, name)
	}
	s.Name = name
	return nil
}

// SwitchActive makes the sheet at i active. Sheets are live objects owned
// by the workbook, so the outgoing sheet's state is already in place.
func (w *Workbook) SwitchActive(i int) error {
	if _, err := w.Sheet(i); err != nil {
		return err
	}
	if i == w.active {
		return nil
	}
	prev := w.active
	w.active = i
	w.Bus.Publish(Event{Type: SheetSwitched, SheetID: w.Active().ID, From: prev, To: i})
	return nil
}
