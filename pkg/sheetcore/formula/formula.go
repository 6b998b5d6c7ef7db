// Package formula hides formula evaluation behind a narrow interface.
// The engine is excelize's calculation chain; this package only loads
// cells into it and reads results back.
package formula

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

// Engine computes formula cells.
type Engine interface {
	// Calc returns the computed value of the cell at k on sheet.
	Calc(sheet string, k address.Key) (models.Value, error)
}

// Sheet names a cell source loaded into an engine.
type Sheet struct {
	Name  string
	Cells models.CellSource
}

// ExcelizeEngine evaluates formulas with excelize.
type ExcelizeEngine struct {
	mu    sync.Mutex
	f     *excelize.File
	names []string
}

// NewExcelizeEngine loads sheets into an in-memory workbook. Sheets are
// loaded under their container names (see ContainerNames) and formulas
// referencing renamed sheets are rewritten to match.
func NewExcelizeEngine(sheets ...Sheet) (*ExcelizeEngine, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets to load", models.ErrMalformedInput)
	}
	original := make([]string, len(sheets))
	for i, s := range sheets {
		original[i] = s.Name
	}
	names := ContainerNames(original, "")
	rename := Renames(original, names)

	f := excelize.NewFile()
	first := f.GetSheetName(0)
	for i, s := range sheets {
		switch {
		case i == 0 && names[0] == first:
		case i == 0:
			if err := f.SetSheetName(first, names[0]); err != nil {
				f.Close()
				return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
			}
		default:
			if _, err := f.NewSheet(names[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
			}
		}
		if err := load(f, names[i], s.Cells, rename); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}
	return &ExcelizeEngine{f: f, names: names}, nil
}

func load(f *excelize.File, sheet string, cells models.CellSource, rename map[string]string) error {
	rows, cols := cells.Bounds()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			k := address.Key{Row: r, Col: c}
			v := cells.Value(k)
			if v.IsEmpty() {
				continue
			}
			if v.IsFormula() {
				v = models.Formula(RenameSheets(v.Text, rename))
			}
			if err := SetCell(f, sheet, k, v); err != nil {
				return fmt.Errorf("cell %s: %w", k.A1(), err)
			}
		}
	}
	return nil
}

// SheetName returns the name the i-th loaded sheet was given in the
// engine. Calc takes these names.
func (e *ExcelizeEngine) SheetName(i int) string {
	if i < 0 || i >= len(e.names) {
		return ""
	}
	return e.names[i]
}

// SetCell writes v to an excelize sheet. Formulas are written without
// their leading "=".
func SetCell(f *excelize.File, sheet string, k address.Key, v models.Value) error {
	cell := k.A1()
	switch v.Kind {
	case models.KindFormula:
		return f.SetCellFormula(sheet, cell, v.FormulaBody())
	case models.KindNumber:
		return f.SetCellFloat(sheet, cell, v.Number, -1, 64)
	case models.KindBool:
		return f.SetCellBool(sheet, cell, v.Bool)
	case models.KindDate:
		return f.SetCellValue(sheet, cell, v.Time)
	case models.KindText:
		return f.SetCellStr(sheet, cell, v.Text)
	}
	return nil
}

// Calc computes the cell at k of the engine sheet named sheet. Non-formula
// cells are returned as loaded.
func (e *ExcelizeEngine) Calc(sheet string, k address.Key) (models.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.f.CalcCellValue(sheet, k.A1())
	if err != nil {
		return models.Value{}, fmt.Errorf("calc %s!%s: %w", sheet, k.A1(), err)
	}
	return parseResult(s), nil
}

// Close releases the underlying workbook.
func (e *ExcelizeEngine) Close() error {
	return e.f.Close()
}

func parseResult(s string) models.Value {
	switch strings.ToUpper(s) {
	case "TRUE":
		return models.Bool(true)
	case "FALSE":
		return models.Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return models.Number(f)
	}
	if s == "" {
		return models.Empty()
	}
	// Results are never formulas
	return models.Value{Kind: models.KindText, Text: s}
}

// computed resolves formula cells through an engine. Results are cached.
type computed struct {
	src   models.CellSource
	eng   Engine
	sheet string

	mu    sync.Mutex
	cache map[address.Key]models.Value
}

// Computed returns a CellSource that reads src but replaces formula cells
// with their computed values. A formula that fails to evaluate reads as
// text holding the error.
func Computed(src models.CellSource, eng Engine, sheet string) models.CellSource {
	return &computed{src: src, eng: eng, sheet: sheet, cache: make(map[address.Key]models.Value)}
}

func (c *computed) Bounds() (int, int) {
	return c.src.Bounds()
}

func (c *computed) Value(k address.Key) models.Value {
	v := c.src.Value(k)
	if !v.IsFormula() {
		return v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache[k]; ok {
		return cached
	}
	out, err := c.eng.Calc(c.sheet, k)
	if err != nil {
		out = models.Value{Kind: models.KindText, Text: "#ERROR"}
	}
	c.cache[k] = out
	return out
}
