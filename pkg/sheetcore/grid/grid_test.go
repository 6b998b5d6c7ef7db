package grid

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

func key(row, col int) address.Key {
	return address.Key{Row: row, Col: col}
}

func TestSetValueGrowsBounds(t *testing.T) {
	g := New(0, 0)
	if err := g.SetValue(key(3, 4), models.Text("x")); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	rows, cols := g.Bounds()
	if rows != 4 || cols != 5 {
		t.Errorf("Bounds = %d x %d, expected 4 x 5", rows, cols)
	}
	if err := g.SetValue(key(-1, 0), models.Text("x")); !errors.Is(err, models.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestBatchIsAtomic(t *testing.T) {
	g := New(3, 3)
	var changes []Change
	g.OnChange(func(c Change) { changes = append(changes, c) })

	err := g.Batch(func(tx *Tx) error {
		tx.AddClass(key(0, 0), models.ClassBold)
		tx.SetTypeMeta(key(0, 1), models.TypeMeta{Type: "spinner"})
		return nil
	})
	if !errors.Is(err, models.ErrPartialApply) || !errors.Is(err, models.ErrMalformedInput) {
		t.Fatalf("expected rejected batch, got %v", err)
	}
	if _, ok := g.Format(key(0, 0)); ok {
		t.Errorf("first staged write leaked into the grid")
	}
	if len(changes) != 0 {
		t.Errorf("rejected batch emitted %d changes", len(changes))
	}

	rng := address.Range{EndRow: 2, EndCol: 2}
	if err := g.MergeStyleRange(rng, models.Style{models.StyleColor: "#FF0000"}); err != nil {
		t.Fatalf("MergeStyleRange failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected one change per batch, got %d", len(changes))
	}
	if changes[0].Range != rng || changes[0].Kind != ChangeMeta {
		t.Errorf("change = %+v", changes[0])
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			s, _ := g.Style(key(r, c))
			if s[models.StyleColor] != "#FF0000" {
				t.Errorf("cell %d,%d style = %v", r, c, s)
			}
		}
	}
}

func TestBatchComposesEditsToOneCell(t *testing.T) {
	g := New(2, 2)
	k := key(0, 0)
	var changes []Change
	g.OnChange(func(c Change) { changes = append(changes, c) })

	err := g.Batch(func(tx *Tx) error {
		tx.AddClass(k, models.ClassBold)
		tx.AddClass(k, models.ClassItalic)
		tx.RemoveClass(k, models.ClassBold)
		tx.AddClass(k, models.ClassUnderline)

		tx.SetTypeMeta(k, models.TypeMeta{Type: models.TypeNumeric, NumericFormat: &models.NumericFormat{Pattern: "0.00"}})
		tx.SetType(k, models.TypeDate)
		if m, ok := tx.TypeMeta(k); !ok || m.Type != models.TypeDate {
			t.Errorf("staged type = %+v, %v", m, ok)
		}
		if _, ok := g.TypeMeta(k); ok {
			t.Errorf("staged type visible before commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	f, _ := g.Format(k)
	if !f.Has(models.ClassItalic) || !f.Has(models.ClassUnderline) || f.Has(models.ClassBold) {
		t.Errorf("Expected italic and underline, got %q", f.ClassName)
	}
	if m, _ := g.TypeMeta(k); m.Type != models.TypeDate || m.NumericFormat != nil {
		t.Errorf("Expected a date type without numeric format, got %+v", m)
	}
	if len(changes) != 1 {
		t.Errorf("Expected one change, got %d", len(changes))
	}
}

func TestBatchSeesStagedRemoval(t *testing.T) {
	g := New(1, 1)
	k := key(0, 0)
	if err := g.SetTypeMeta(k, models.TypeMeta{Type: models.TypeDropdown, Source: []string{"a"}}); err != nil {
		t.Fatalf("SetTypeMeta failed: %v", err)
	}
	err := g.Batch(func(tx *Tx) error {
		tx.RemoveTypeMeta(k)
		if _, ok := tx.TypeMeta(k); ok {
			t.Errorf("removed type still staged")
		}
		tx.SetType(k, models.TypeCheckbox)
		return nil
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	if m, _ := g.TypeMeta(k); m.Type != models.TypeCheckbox || len(m.Source) != 0 {
		t.Errorf("Expected a plain checkbox, got %+v", m)
	}
}

func TestSetTypeClearsFormats(t *testing.T) {
	g := New(1, 1)
	k := key(0, 0)
	_ = g.SetTypeMeta(k, models.TypeMeta{Type: models.TypeNumeric, NumericFormat: &models.NumericFormat{Pattern: "0.00"}})

	if err := g.SetTypeRange(address.Cell(k), models.TypeCheckbox); err != nil {
		t.Fatalf("SetTypeRange failed: %v", err)
	}
	m, _ := g.TypeMeta(k)
	if m.Type != models.TypeCheckbox || m.NumericFormat != nil {
		t.Errorf("TypeMeta = %+v", m)
	}

	_ = g.SetTypeRange(address.Cell(k), models.TypeDropdown)
	m, _ = g.TypeMeta(k)
	if m.Source == nil || m.DateFormat != "" {
		t.Errorf("dropdown TypeMeta = %+v", m)
	}
}

func TestMergeStyleRemovesEmptyValues(t *testing.T) {
	g := New(1, 1)
	k := key(0, 0)
	_ = g.MergeStyleRange(address.Cell(k), models.Style{models.StyleColor: "#111111", models.StyleFontSize: "14px"})
	_ = g.MergeStyleRange(address.Cell(k), models.Style{models.StyleColor: ""})

	s, ok := g.Style(k)
	if !ok || len(s) != 1 || s[models.StyleFontSize] != "14px" {
		t.Errorf("Style = %v", s)
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := New(2, 2)
	_ = g.SetValue(key(0, 0), models.Text("a"))
	_ = g.SetTypeMeta(key(0, 1), models.TypeMeta{Type: models.TypeDropdown, Source: []string{"x", "y"}})
	_ = g.MergeStyleRange(address.Cell(key(1, 1)), models.Style{models.StyleColor: "#000000"})

	c, err := g.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	_ = g.SetValue(key(0, 0), models.Text("b"))
	m, _ := g.TypeMeta(key(0, 1))
	m.Source[0] = "changed"
	_ = g.MergeStyleRange(address.Cell(key(1, 1)), models.Style{models.StyleColor: "#FFFFFF"})

	if c.Value(key(0, 0)).Text != "a" {
		t.Errorf("clone value changed")
	}
	cm, _ := c.TypeMeta(key(0, 1))
	if cm.Source[0] != "x" {
		t.Errorf("clone source shares backing array")
	}
	cs, _ := c.Style(key(1, 1))
	if cs[models.StyleColor] != "#000000" {
		t.Errorf("clone style changed")
	}
}

func TestMetaIsACopy(t *testing.T) {
	g := New(1, 2)
	_ = g.SetTypeMeta(key(0, 0), models.TypeMeta{Type: models.TypeDropdown, Source: []string{"x", "y"}})
	_ = g.SetTypeMeta(key(0, 1), models.TypeMeta{Type: models.TypeNumeric, NumericFormat: &models.NumericFormat{Pattern: "#,##0"}})

	meta := g.Meta()
	meta[key(0, 0)].Source[0] = "changed"
	meta[key(0, 1)].NumericFormat.Pattern = "0.00"
	tm, _ := g.TypeMeta(key(0, 0))
	tm.Source[1] = "changed"

	dropdown, _ := g.TypeMeta(key(0, 0))
	if dropdown.Source[0] != "x" || dropdown.Source[1] != "y" {
		t.Errorf("Expected source [x y], got %v", dropdown.Source)
	}
	numeric, _ := g.TypeMeta(key(0, 1))
	if numeric.NumericFormat == nil || numeric.NumericFormat.Pattern != "#,##0" {
		t.Errorf("Expected pattern #,##0, got %+v", numeric.NumericFormat)
	}
}

func TestGridJSONRoundTrip(t *testing.T) {
	g := New(3, 3)
	_ = g.SetValue(key(0, 0), models.Formula("SUM(A2:A3)"))
	_ = g.SetValue(key(1, 0), models.Number(2))
	_ = g.SetTypeMeta(key(2, 2), models.TypeMeta{Type: models.TypeDate, DateFormat: models.DateISO})
	_ = g.AddClassRange(address.Cell(key(0, 0)), models.ClassBold)
	_ = g.SetLink(key(1, 1), "https://example.com")
	_ = g.SetColumnWidth(2, 140)

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out Grid
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if v := out.Value(key(0, 0)); v.Kind != models.KindFormula || v.Text != "=SUM(A2:A3)" {
		t.Errorf("formula = %+v", v)
	}
	if m, _ := out.TypeMeta(key(2, 2)); m.DateFormat != models.DateISO {
		t.Errorf("type meta = %+v", m)
	}
	if f, _ := out.Format(key(0, 0)); f.ClassName != models.ClassBold {
		t.Errorf("format = %+v", f)
	}
	if l, _ := out.Link(key(1, 1)); l.URL != "https://example.com" || l.Auto {
		t.Errorf("link = %+v", l)
	}
	if w, _ := out.ColumnWidth(2); w != 140 {
		t.Errorf("width = %v", w)
	}
	if rows, cols := out.Bounds(); rows != 3 || cols != 3 {
		t.Errorf("bounds = %d x %d", rows, cols)
	}
}

func TestUsedRange(t *testing.T) {
	g := New(10, 10)
	if _, ok := g.UsedRange(); ok {
		t.Errorf("expected empty grid to have no used range")
	}
	_ = g.SetValue(key(2, 5), models.Text("a"))
	_ = g.SetValue(key(7, 1), models.Number(1))

	r, ok := g.UsedRange()
	if !ok || r != (address.Range{StartRow: 2, StartCol: 1, EndRow: 7, EndCol: 5}) {
		t.Errorf("UsedRange = %+v %v", r, ok)
	}
	if n := g.CountNonEmpty(r); n != 2 {
		t.Errorf("CountNonEmpty = %d", n)
	}
}
