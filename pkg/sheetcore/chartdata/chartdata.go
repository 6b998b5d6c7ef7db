// Package chartdata projects a cell range into category and series arrays
// for chart rendering.
package chartdata

import (
	"fmt"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// Series is one named column of values.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Data is the projection of a range.
type Data struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// Extract reads rng from src. The first row of rng supplies series names and
// every later row one category label and one value per series.
// categoryColumn is an offset within rng and is excluded from the series.
func Extract(src models.CellSource, rng address.Range, categoryColumn int) (Data, error) {
	rng = rng.Normalize()
	if !rng.Valid() {
		return Data{}, fmt.Errorf("%w: chart range %v", models.ErrMalformedInput, rng)
	}
	if categoryColumn < 0 || categoryColumn >= rng.Cols() {
		return Data{}, fmt.Errorf("%w: category column %d outside a %d column range", models.ErrMalformedInput, categoryColumn, rng.Cols())
	}

	data := Data{Categories: []string{}, Series: []Series{}}
	var seriesCols []int
	for off := 0; off < rng.Cols(); off++ {
		if off == categoryColumn {
			continue
		}
		seriesCols = append(seriesCols, off)
		name := strings.TrimSpace(src.Value(address.Key{Row: rng.StartRow, Col: rng.StartCol + off}).String())
		if name == "" {
			name = fmt.Sprintf("Series %d", len(seriesCols))
		}
		data.Series = append(data.Series, Series{Name: name, Values: []float64{}})
	}

	for row := rng.StartRow + 1; row <= rng.EndRow; row++ {
		n := row - rng.StartRow
		label := strings.TrimSpace(src.Value(address.Key{Row: row, Col: rng.StartCol + categoryColumn}).String())
		if label == "" {
			label = fmt.Sprintf("Row %d", n)
		}
		data.Categories = append(data.Categories, label)

		for i, off := range seriesCols {
			// Non-numeric cells plot as 0.
			f, _ := src.Value(address.Key{Row: row, Col: rng.StartCol + off}).Float()
			data.Series[i].Values = append(data.Series[i].Values, f)
		}
	}
	return data, nil
}

// FromChart extracts the data of a chart definition.
func FromChart(src models.CellSource, c models.Chart) (Data, error) {
	return Extract(src, c.DataRange, c.Options.CategoryColumn)
}
