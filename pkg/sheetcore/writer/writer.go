// Package writer encodes workbooks into xlsx containers with excelize.
package writer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/meta"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
	"github.com/xuri/excelize/v2"
)

// DefaultAutofitCap is the widest auto-fitted column, in width units.
const DefaultAutofitCap = 50

// minAutofitWidth is the narrowest auto-fitted column, in width units.
const minAutofitWidth = 10

// Options configures encoding.
type Options struct {
	// Logger receives warnings such as rewritten sheet names. Nil discards them.
	Logger *logrus.Logger
	// MetaSheetName is the hidden sheet holding the metadata payload.
	// Empty means models.MetaSheetName.
	MetaSheetName string
	// AutofitCap caps auto-fitted column widths. Zero means DefaultAutofitCap.
	AutofitCap int
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o Options) metaSheetName() string {
	if o.MetaSheetName != "" {
		return o.MetaSheetName
	}
	return models.MetaSheetName
}

func (o Options) autofitCap() int {
	if o.AutofitCap > 0 {
		return o.AutofitCap
	}
	return DefaultAutofitCap
}

// Write encodes every sheet of w.
func Write(ctx context.Context, w *workbook.Workbook, opts Options) ([]byte, error) {
	return write(ctx, w.Sheets(), w.ActiveIndex(), opts)
}

// WriteSheet encodes a single sheet as a one-sheet workbook.
func WriteSheet(ctx context.Context, s *workbook.Sheet, opts Options) ([]byte, error) {
	return write(ctx, []*workbook.Sheet{s}, 0, opts)
}

func write(ctx context.Context, sheets []*workbook.Sheet, active int, opts Options) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", models.ErrMalformedInput)
	}
	logger := opts.logger()
	metaName := opts.metaSheetName()

	f := excelize.NewFile()
	defer f.Close()

	names := containerNames(sheets, metaName, logger)
	rename := formula.Renames(sheetNames(sheets), names)
	styles := newStyleCache(f)
	for i, s := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i == 0 {
			if first := f.GetSheetName(0); first != names[0] {
				if err := f.SetSheetName(first, names[0]); err != nil {
					return nil, models.NewCodecError(s.Name, "sheet", err)
				}
			}
		} else if _, err := f.NewSheet(names[i]); err != nil {
			return nil, models.NewCodecError(s.Name, "sheet", err)
		}

		sw := &sheetWriter{
			f:      f,
			name:   names[i],
			sheet:  s,
			styles: styles,
			rename: rename,
			cap:    opts.autofitCap(),
			log:    logger.WithField("sheet", names[i]),
		}
		if err := sw.write(ctx); err != nil {
			return nil, err
		}
	}

	if err := writeMeta(f, metaName, meta.BuildSheets(sheets, active)); err != nil {
		return nil, models.NewCodecError("", "metadata", err)
	}
	f.SetActiveSheet(min(max(active, 0), len(sheets)-1))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, models.NewCodecError("", "container", err)
	}
	return buf.Bytes(), nil
}

// writeMeta stores the payload on a hidden sheet: the sentinel in A1 and
// the JSON chunks down column B.
func writeMeta(f *excelize.File, name string, p meta.Payload) error {
	data, err := meta.Encode(p)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := f.SetCellStr(name, "A1", models.MetaSentinel); err != nil {
		return err
	}
	for i, chunk := range meta.Split(string(data), meta.ChunkSize) {
		if err := f.SetCellStr(name, "B"+strconv.Itoa(i+1), chunk); err != nil {
			return err
		}
	}
	return f.SetSheetVisible(name, false)
}

// sheetWriter writes one sheet.
type sheetWriter struct {
	f      *excelize.File
	name   string
	sheet  *workbook.Sheet
	styles *styleCache
	rename map[string]string
	cap    int
	log    *logrus.Entry
}

func (w *sheetWriter) write(ctx context.Context) error {
	g := w.sheet.Grid
	for r, row := range g.Rows() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for c, v := range row {
			if v.IsEmpty() {
				continue
			}
			if v.IsFormula() {
				v = models.Formula(formula.RenameSheets(v.Text, w.rename))
			}
			if err := formula.SetCell(w.f, w.name, address.Key{Row: r, Col: c}, v); err != nil {
				return models.NewCodecError(w.sheet.Name, "cells", err)
			}
		}
	}
	if rng, ok := g.Range(); ok {
		if err := w.f.SetSheetDimension(w.name, address.RangeToA1(rng)); err != nil {
			return models.NewCodecError(w.sheet.Name, "cells", err)
		}
	}

	steps := []struct {
		component string
		fn        func() error
	}{
		{"styles", w.writeStyles},
		{"validations", w.writeDropdowns},
		{"links", w.writeLinks},
		{"columns", w.writeWidths},
		{"charts", w.writeCharts},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return models.NewCodecError(w.sheet.Name, step.component, err)
		}
	}
	return nil
}

// writeStyles applies native styles. Date values always get a date number
// format so they read back as dates.
func (w *sheetWriter) writeStyles() error {
	g := w.sheet.Grid
	cells := g.Meta()
	g.EachValue(func(k address.Key, v models.Value) {
		if v.Kind == models.KindDate {
			if _, ok := cells[k]; !ok {
				cells[k] = grid.CellMeta{}
			}
		}
	})

	for k, cm := range cells {
		st := nativeStyle(cm, g.Value(k), w.log)
		if st == nil {
			continue
		}
		id, err := w.styles.id(st)
		if err != nil {
			return err
		}
		cell := k.A1()
		if err := w.f.SetCellStyle(w.name, cell, cell, id); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) writeLinks() error {
	g := w.sheet.Grid
	for k, cm := range g.Meta() {
		if cm.Link == "" {
			continue
		}
		if err := w.f.SetCellHyperLink(w.name, k.A1(), cm.Link, "External"); err != nil {
			w.log.WithFields(logrus.Fields{"cell": k.A1(), "link": cm.Link}).WithError(err).Warn("hyperlink not written")
		}
	}
	return nil
}

// writeWidths converts stored pixel widths to width units. Columns without
// a stored width are fitted to their longest value.
func (w *sheetWriter) writeWidths() error {
	g := w.sheet.Grid
	widths := g.ColumnWidths()
	longest := make(map[int]int)
	g.EachValue(func(k address.Key, v models.Value) {
		longest[k.Col] = max(longest[k.Col], utf8.RuneCountInString(v.String()))
	})

	for col, px := range widths {
		letter := address.ColumnToLetter(col)
		if letter == "" {
			continue
		}
		if err := w.f.SetColWidth(w.name, letter, letter, px/models.WidthRatio); err != nil {
			return err
		}
	}
	for col, n := range longest {
		if _, ok := widths[col]; ok || n == 0 {
			continue
		}
		letter := address.ColumnToLetter(col)
		width := float64(min(max(n+2, minAutofitWidth), w.cap))
		if err := w.f.SetColWidth(w.name, letter, letter, width); err != nil {
			return err
		}
	}
	return nil
}
