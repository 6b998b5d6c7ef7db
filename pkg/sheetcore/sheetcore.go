package sheetcore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/chartdata"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/condfmt"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/parser"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/writer"
)

// Open decodes data into a workbook. A failed decode returns no workbook.
func Open(ctx context.Context, data []byte, hint Hint, opts Options) (*workbook.Workbook, error) {
	format, err := Detect(data, hint)
	if err != nil {
		return nil, err
	}
	opts.logger().WithFields(logrus.Fields{"format": format, "bytes": len(data)}).Debug("decoding workbook")

	switch format {
	case FormatXLSX:
		return parser.ReadXLSX(ctx, data, opts.parserOptions())
	case FormatCSV:
		return parser.ReadCSV(ctx, data, opts.parserOptions())
	}
	return nil, ErrUnsupportedContainer
}

// OpenFile reads and decodes the file at path.
func OpenFile(ctx context.Context, path string, opts Options) (*workbook.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, data, Hint{Filename: filepath.Base(path)}, opts)
}

// Save encodes w as an xlsx container of type ContentType.
func Save(ctx context.Context, w *workbook.Workbook, opts Options) ([]byte, error) {
	return writer.Write(ctx, w, opts.writerOptions())
}

// SaveSheet encodes one sheet as a single-sheet xlsx container.
func SaveSheet(ctx context.Context, s *workbook.Sheet, opts Options) ([]byte, error) {
	return writer.WriteSheet(ctx, s, opts.writerOptions())
}

// SaveFile encodes w and writes it to path.
func SaveFile(ctx context.Context, w *workbook.Workbook, path string, opts Options) error {
	data, err := Save(ctx, w, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Overlay evaluates the rules of sheet i at now. When the sheet holds
// formulas they are computed first, with every sheet of w loaded, so rules
// see formula results instead of formula text.
func Overlay(ctx context.Context, w *workbook.Workbook, i int, now time.Time, opts Options) (condfmt.Overlay, error) {
	s, err := w.Sheet(i)
	if err != nil {
		return condfmt.Overlay{}, err
	}
	src, closeFn := computedSource(w, i, opts.logger())
	defer closeFn()
	return condfmt.EvaluateContext(ctx, src, s.Rules.Rules(), now)
}

// ChartData extracts the categories and series of rng on sheet i.
func ChartData(w *workbook.Workbook, i int, rng address.Range, categoryColumn int, opts Options) (chartdata.Data, error) {
	_, err := w.Sheet(i)
	if err != nil {
		return chartdata.Data{}, err
	}
	src, closeFn := computedSource(w, i, opts.logger())
	defer closeFn()
	return chartdata.Extract(src, rng, categoryColumn)
}

// Watch keeps an overlay of the active sheet of w current, recomputing it
// Debounce after each change. onCommit receives every overlay that becomes
// current. The returned function stops watching and drops pending work.
func Watch(w *workbook.Workbook, opts Options, onCommit func(gen uint64, ov condfmt.Overlay)) (*condfmt.Recomputer, func(), error) {
	rec := condfmt.NewRecomputer(condfmt.RecomputerOptions{
		Delay:    opts.Debounce,
		OnCommit: onCommit,
		Logger:   opts.logger(),
	})
	stop, err := workbook.AutoRecompute(w, rec)
	if err != nil {
		rec.Close()
		return nil, nil, err
	}
	return rec, func() {
		stop()
		rec.Close()
	}, nil
}

// computedSource wraps sheet i so formula cells read as their results. Without
// formulas, or when the engine cannot load the workbook, the sheet is read
// as is.
func computedSource(w *workbook.Workbook, i int, log *logrus.Logger) (models.CellSource, func()) {
	s := w.Sheets()[i]
	hasFormula := false
	s.Grid.EachValue(func(_ address.Key, v models.Value) {
		hasFormula = hasFormula || v.IsFormula()
	})
	if !hasFormula {
		return s.Grid, func() {}
	}

	sheets := make([]formula.Sheet, 0, w.Len())
	for _, ws := range w.Sheets() {
		sheets = append(sheets, formula.Sheet{Name: ws.Name, Cells: ws.Grid})
	}
	eng, err := formula.NewExcelizeEngine(sheets...)
	if err != nil {
		log.WithField("sheet", s.Name).WithError(err).Warn("formulas not computed")
		return s.Grid, func() {}
	}
	return formula.Computed(s.Grid, eng, eng.SheetName(i)), func() { _ = eng.Close() }
}
