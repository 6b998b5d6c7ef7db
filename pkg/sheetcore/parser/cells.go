package parser

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

// defaultColWidth is the width the container reports for columns without
// an explicit width.
const defaultColWidth = 9.140625

// sheetReader reads one worksheet into a grid.
type sheetReader struct {
	f        *excelize.File
	name     string
	log      *logrus.Entry
	date1904 bool
	styles   *styleCache

	// serials keeps the stored number of every cell read as a date, so an
	// explicit type tag can turn it back into a number.
	serials map[address.Key]float64
}

func newSheetReader(f *excelize.File, name string, log *logrus.Entry, date1904 bool) *sheetReader {
	return &sheetReader{
		f:        f,
		name:     name,
		log:      log.WithField("sheet", name),
		date1904: date1904,
		styles:   newStyleCache(f),
		serials:  make(map[address.Key]float64),
	}
}

// extent returns the number of rows and columns holding cells: the larger
// of the row data and the recorded sheet dimension.
func (r *sheetReader) extent(rows [][]string) (int, int) {
	nRows, nCols := len(rows), 0
	for _, row := range rows {
		nCols = max(nCols, len(row))
	}
	if dim, err := r.f.GetSheetDimension(r.name); err == nil && dim != "" {
		if rng, ok := address.ParseA1Range(dim); ok {
			nRows = max(nRows, rng.EndRow+1)
			nCols = max(nCols, rng.EndCol+1)
		}
	}
	return nRows, nCols
}

// read decodes values and, when native is set, the native metadata:
// checkbox, date, numeric and dropdown types, formats, styles, links and
// column widths. Without native only values are read because the metadata
// payload describes the rest.
func (r *sheetReader) read(ctx context.Context, native bool) (*grid.Grid, error) {
	rows, err := r.f.GetRows(r.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	nRows, nCols := r.extent(rows)
	g := grid.New(nRows, nCols)
	bounds := address.Range{EndRow: max(nRows-1, 0), EndCol: max(nCols-1, 0)}

	var dropdowns map[address.Key][]string
	if native && nRows > 0 && nCols > 0 {
		dropdowns = readDropdowns(r.f, r.name, bounds, r.log)
	}

	err = g.Batch(func(tx *grid.Tx) error {
		for row := 0; row < nRows; row++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for col := 0; col < nCols; col++ {
				k := address.Key{Row: row, Col: col}
				raw := ""
				if row < len(rows) && col < len(rows[row]) {
					raw = rows[row][col]
				}
				if err := r.readCell(tx, k, raw, native); err != nil {
					return err
				}
			}
		}
		for k, options := range dropdowns {
			tx.SetTypeMeta(k, models.TypeMeta{Type: models.TypeDropdown, Source: options})
		}
		return tx.Err()
	})
	if err != nil {
		return nil, err
	}

	if native {
		r.readWidths(g, nCols)
	}
	return g, nil
}

// readCell stages the value of one cell and, when native is set, its metadata.
func (r *sheetReader) readCell(tx *grid.Tx, k address.Key, raw string, native bool) error {
	cell := k.A1()
	formula, err := r.f.GetCellFormula(r.name, cell)
	if err != nil {
		return err
	}
	if formula == "" && raw == "" {
		return nil
	}

	st := r.styles.cell(r.name, cell)
	v, meta := r.value(k, cell, raw, formula, st)
	if v.IsEmpty() {
		return nil
	}
	tx.SetValue(k, v)
	if !native {
		return nil
	}

	if meta.Type != "" {
		tx.SetTypeMeta(k, meta)
	}
	if st.format.ClassName != "" {
		tx.SetFormat(k, st.format)
	}
	if len(st.style) > 0 {
		tx.MergeStyle(k, st.style)
	}
	if ok, target, err := r.f.GetCellHyperLink(r.name, cell); err == nil && ok && target != "" {
		tx.SetLink(k, models.Link{URL: target})
	}
	return nil
}

// value converts the stored cell into a value plus the type metadata its
// storage implies.
func (r *sheetReader) value(k address.Key, cell, raw, formula string, st cellStyle) (models.Value, models.TypeMeta) {
	if formula != "" {
		return models.Formula(formula), models.TypeMeta{}
	}

	typ, err := r.f.GetCellType(r.name, cell)
	if err != nil {
		typ = excelize.CellTypeUnset
	}

	switch typ {
	case excelize.CellTypeBool:
		b := raw == "1" || strings.EqualFold(raw, "true")
		return models.Bool(b), models.TypeMeta{Type: models.TypeCheckbox}

	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return models.Date(t), models.TypeMeta{Type: models.TypeDate, DateFormat: st.date}
		}
		return models.Text(raw), models.TypeMeta{}

	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return models.Text(r.flatten(cell, raw)), models.TypeMeta{}

	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Text(raw), models.TypeMeta{}
		}
		if st.isDate {
			if t, err := excelize.ExcelDateToTime(n, r.date1904); err == nil {
				r.serials[k] = n
				return models.Date(t), models.TypeMeta{Type: models.TypeDate, DateFormat: st.date}
			}
		}
		if st.numeric != nil {
			return models.Number(n), models.TypeMeta{Type: models.TypeNumeric, NumericFormat: st.numeric}
		}
		return models.Number(n), models.TypeMeta{}
	}
	return models.Text(raw), models.TypeMeta{}
}

// flatten joins the rich text runs of a cell into plain text.
func (r *sheetReader) flatten(cell, raw string) string {
	runs, err := r.f.GetCellRichText(r.name, cell)
	if err != nil || len(runs) == 0 {
		return raw
	}
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// readWidths converts explicit column widths to pixels.
func (r *sheetReader) readWidths(g *grid.Grid, nCols int) {
	for col := 0; col < nCols; col++ {
		w, err := r.f.GetColWidth(r.name, address.ColumnToLetter(col))
		if err != nil || math.Abs(w-defaultColWidth) < 1e-6 {
			continue
		}
		_ = g.SetColumnWidth(col, math.Round(w*models.WidthRatio*100)/100)
	}
}

// reconcile applies explicit type tags over the date heuristic: a cell read
// as a date whose tag says otherwise becomes its stored number again, and a
// number tagged as a date becomes a date.
func (r *sheetReader) reconcile(g *grid.Grid, types map[address.Key]models.CellType) error {
	return g.Batch(func(tx *grid.Tx) error {
		for k, serial := range r.serials {
			if t, ok := types[k]; ok && t != models.TypeDate {
				tx.SetValue(k, models.Number(serial))
			}
		}
		for k, t := range types {
			v := g.Value(k)
			if t != models.TypeDate || v.Kind != models.KindNumber {
				continue
			}
			if d, err := excelize.ExcelDateToTime(v.Number, r.date1904); err == nil {
				tx.SetValue(k, models.Date(d))
			}
		}
		return tx.Err()
	})
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", models.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
