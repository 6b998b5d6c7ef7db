package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/meta"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX decodes an xlsx container. The hidden metadata sheet, when
// present, is excluded from the result and its payload restores rules,
// charts and exact cell metadata. Unreadable payload entries are logged
// and skipped. Sheets without payload charts get their native charts.
func ReadXLSX(ctx context.Context, data []byte, opts Options) (*workbook.Workbook, error) {
	logger := orDiscard(opts.Logger)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedContainer, err)
	}
	defer f.Close()

	metaName := opts.metaSheetName()
	var (
		payload    meta.Payload
		hasPayload bool
		names      []string
		active     int
	)
	activeIndex := f.GetActiveSheetIndex()
	for i, name := range f.GetSheetList() {
		if name == metaName {
			p, ok, err := readPayload(f, name)
			switch {
			case err != nil:
				logger.WithError(err).Warn("metadata payload ignored")
			case ok:
				payload, hasPayload = p, true
			}
			continue
		}
		if i == activeIndex {
			active = len(names)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no worksheets", models.ErrMalformedContainer)
	}
	if hasPayload {
		active = payload.ActiveSheet
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	entry := logrus.NewEntry(logger)
	var native map[string][]models.Chart
	sheets := make([]*workbook.Sheet, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, hasMeta := payload.Sheet(i)
		rd := newSheetReader(f, name, entry, date1904)
		g, err := rd.read(ctx, !hasMeta)
		if err != nil {
			return nil, models.NewCodecError(name, "cells", err)
		}

		s := workbook.NewSheet(name)
		s.Grid = g
		if hasMeta {
			for _, problem := range m.Problems {
				rd.log.WithField("entry", problem).Warn("metadata entry skipped")
			}
			if err := rd.reconcile(g, cellTypes(m.Cells)); err != nil {
				return nil, models.NewCodecError(name, "cells", err)
			}
			if err := meta.Apply(s, m); err != nil {
				return nil, models.NewCodecError(name, "metadata", err)
			}
		}

		if len(s.Charts()) == 0 {
			if native == nil {
				if native, err = ImportCharts(data, logger); err != nil {
					rd.log.WithError(err).Warn("native charts not read")
					native = map[string][]models.Chart{}
				}
			}
			if charts := native[name]; len(charts) > 0 {
				if err := s.SetCharts(charts); err != nil {
					rd.log.WithError(err).Warn("native charts not imported")
				}
			}
		}
		sheets = append(sheets, s)
	}

	if err := restoreSheetRefs(sheets, names); err != nil {
		return nil, err
	}
	warnMissingSheets(sheets, entry)
	return workbook.FromSheets(sheets, active)
}

// readPayload reads the payload chunks stored down column B of the
// metadata sheet. ok is false when A1 does not hold the sentinel.
func readPayload(f *excelize.File, sheet string) (meta.Payload, bool, error) {
	sentinel, err := f.GetCellValue(sheet, "A1")
	if err != nil {
		return meta.Payload{}, false, err
	}
	if sentinel != models.MetaSentinel {
		return meta.Payload{}, false, nil
	}
	var b strings.Builder
	for row := 1; ; row++ {
		chunk, err := f.GetCellValue(sheet, "B"+strconv.Itoa(row))
		if err != nil {
			return meta.Payload{}, false, err
		}
		if chunk == "" {
			break
		}
		b.WriteString(chunk)
	}
	if b.Len() == 0 {
		return meta.Payload{}, false, nil
	}
	p, err := meta.Decode([]byte(b.String()))
	if err != nil {
		return meta.Payload{}, false, err
	}
	return p, true, nil
}

func cellTypes(cells map[address.Key]grid.CellMeta) map[address.Key]models.CellType {
	out := make(map[address.Key]models.CellType, len(cells))
	for k, cm := range cells {
		if cm.Type != "" {
			out[k] = cm.Type
		}
	}
	return out
}

// restoreSheetRefs rewrites formula references to container names that the
// payload renamed back to the recorded sheet names.
func restoreSheetRefs(sheets []*workbook.Sheet, containers []string) error {
	restored := make([]string, len(sheets))
	for i, s := range sheets {
		restored[i] = s.Name
	}
	rename := formula.Renames(containers, restored)
	if len(rename) == 0 {
		return nil
	}
	for _, s := range sheets {
		err := s.Grid.Batch(func(tx *grid.Tx) error {
			s.Grid.EachValue(func(k address.Key, v models.Value) {
				if v.IsFormula() {
					if text := formula.RenameSheets(v.Text, rename); text != v.Text {
						tx.SetValue(k, models.Formula(text))
					}
				}
			})
			return tx.Err()
		})
		if err != nil {
			return models.NewCodecError(s.Name, "cells", err)
		}
	}
	return nil
}

// warnMissingSheets logs formulas that reference sheets the workbook does not have.
func warnMissingSheets(sheets []*workbook.Sheet, log *logrus.Entry) {
	known := make([]string, len(sheets))
	for i, s := range sheets {
		known[i] = s.Name
	}
	for _, s := range sheets {
		s.Grid.EachValue(func(k address.Key, v models.Value) {
			if !v.IsFormula() {
				return
			}
			if missing := formula.MissingSheets(v.Text, known); len(missing) > 0 {
				log.WithFields(logrus.Fields{
					"sheet":   s.Name,
					"cell":    k.A1(),
					"missing": strings.Join(missing, ", "),
				}).Warn("formula references unknown sheets")
			}
		})
	}
}
