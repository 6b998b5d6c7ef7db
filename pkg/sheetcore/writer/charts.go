package writer

import (
	"fmt"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

var nativeChartTypes = map[models.ChartType]excelize.ChartType{
	models.ChartLine:     excelize.Line,
	models.ChartBar:      excelize.Col,
	models.ChartArea:     excelize.Area,
	models.ChartPie:      excelize.Pie,
	models.ChartScatter:  excelize.Scatter,
	models.ChartComposed: excelize.Col,
}

// writeCharts adds a native chart for every chart with a header row, at
// least one data row and one series column. A composed chart draws its
// first series as columns and the rest as lines.
func (w *sheetWriter) writeCharts() error {
	for _, c := range w.sheet.Charts() {
		chart, combo, ok := w.nativeChart(c)
		if !ok {
			w.log.WithField("chart", c.ID).Debug("chart has no series, not written natively")
			continue
		}
		cell := address.Key{
			Row: max(c.Position.Y, 0) / models.DefaultRowPixels,
			Col: max(c.Position.X, 0) / models.DefaultColumnPixels,
		}.A1()
		if err := w.f.AddChart(w.name, cell, chart, combo...); err != nil {
			return fmt.Errorf("chart %s: %w", c.ID, err)
		}
	}
	return nil
}

func (w *sheetWriter) nativeChart(c models.Chart) (*excelize.Chart, []*excelize.Chart, bool) {
	rng := c.DataRange.Normalize()
	if rng.Rows() < 2 {
		return nil, nil, false
	}
	sheet := formula.QuoteSheet(w.name)
	catCol := rng.StartCol + c.Options.CategoryColumn
	column := func(col, from, to int) string {
		letter := address.ColumnToLetter(col)
		if from == to {
			return fmt.Sprintf("%s!$%s$%d", sheet, letter, from+1)
		}
		return fmt.Sprintf("%s!$%s$%d:$%s$%d", sheet, letter, from+1, letter, to+1)
	}

	var series []excelize.ChartSeries
	for col := rng.StartCol; col <= rng.EndCol; col++ {
		if col == catCol {
			continue
		}
		s := excelize.ChartSeries{
			Name:   column(col, rng.StartRow, rng.StartRow),
			Values: column(col, rng.StartRow+1, rng.EndRow),
		}
		if catCol <= rng.EndCol {
			s.Categories = column(catCol, rng.StartRow+1, rng.EndRow)
		}
		series = append(series, s)
	}
	if len(series) == 0 {
		return nil, nil, false
	}

	legend := "none"
	if c.Options.ShowLegend {
		legend = "bottom"
	}
	chart := &excelize.Chart{
		Type:   nativeChartTypes[c.Type],
		Series: series,
		Format: excelize.GraphicOptions{
			OffsetX: max(c.Position.X, 0) % models.DefaultColumnPixels,
			OffsetY: max(c.Position.Y, 0) % models.DefaultRowPixels,
		},
		Dimension: excelize.ChartDimension{Width: uint(c.Size.Width), Height: uint(c.Size.Height)},
		Legend:    excelize.ChartLegend{Position: legend},
		XAxis:     excelize.ChartAxis{Title: richText(c.Options.XAxisLabel)},
		YAxis:     excelize.ChartAxis{Title: richText(c.Options.YAxisLabel), MajorGridLines: c.Options.ShowGrid},
		Title:     richText(c.Options.Title),
	}

	var combo []*excelize.Chart
	if c.Type == models.ChartComposed && len(series) > 1 {
		chart.Series = series[:1]
		combo = append(combo, &excelize.Chart{Type: excelize.Line, Series: series[1:]})
	}
	return chart, combo, true
}

func richText(s string) []excelize.RichTextRun {
	if s == "" {
		return nil
	}
	return []excelize.RichTextRun{{Text: s}}
}
