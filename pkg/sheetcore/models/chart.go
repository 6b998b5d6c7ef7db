package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ChartType is the rendering type of a chart.
type ChartType string

const (
	ChartLine     ChartType = "line"
	ChartBar      ChartType = "bar"
	ChartArea     ChartType = "area"
	ChartPie      ChartType = "pie"
	ChartScatter  ChartType = "scatter"
	ChartComposed ChartType = "composed"
)

// Position is the chart's top-left offset in pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is the chart's dimensions in pixels.
type Size struct {
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// ChartOptions configures chart rendering.
type ChartOptions struct {
	// Title is the chart title.
	Title string `json:"title,omitempty"`
	// XAxisLabel is the category axis label.
	XAxisLabel string `json:"xAxisLabel,omitempty"`
	// YAxisLabel is the value axis label.
	YAxisLabel string `json:"yAxisLabel,omitempty"`
	// CategoryColumn is the offset of the category column within DataRange.
	CategoryColumn int `json:"categoryColumn" validate:"gte=0"`
	// ShowLegend toggles the legend.
	ShowLegend bool `json:"showLegend"`
	// ShowGrid toggles grid lines.
	ShowGrid bool `json:"showGrid"`
}

// Chart is a chart definition owned by a sheet.
type Chart struct {
	// ID is unique across the workbook.
	ID string `json:"id"`
	// Type is the chart type.
	Type ChartType `json:"type" validate:"oneof=line bar area pie scatter composed"`
	// Position is the top-left offset in pixels.
	Position Position `json:"position"`
	// Size is the chart size in pixels.
	Size Size `json:"size" validate:"required"`
	// DataRange is the source range; its first row holds series names.
	DataRange address.Range `json:"dataRange"`
	// Options holds rendering options.
	Options ChartOptions `json:"options"`
}

// Validate checks the chart type, size, data range, and category column.
func (c Chart) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: chart %s: field %s fails %q", ErrMalformedInput, c.ID, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: chart %s: %w", ErrMalformedInput, c.ID, err)
	}
	if !c.DataRange.Valid() {
		return fmt.Errorf("%w: chart %s data range %+v", ErrMalformedInput, c.ID, c.DataRange)
	}
	return nil
}
