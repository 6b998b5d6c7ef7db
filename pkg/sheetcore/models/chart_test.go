package models

import (
	"errors"
	"testing"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
)

func TestChartValidate(t *testing.T) {
	valid := Chart{
		ID:        "c1",
		Type:      ChartBar,
		Size:      Size{Width: 400, Height: 300},
		DataRange: address.Range{EndRow: 4, EndCol: 2},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid chart, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Chart)
	}{
		{"unknown type", func(c *Chart) { c.Type = "radar" }},
		{"zero size", func(c *Chart) { c.Size = Size{} }},
		{"negative category", func(c *Chart) { c.Options.CategoryColumn = -1 }},
		{"negative range", func(c *Chart) { c.DataRange.StartRow = -1 }},
	}
	for _, tt := range tests {
		c := valid
		tt.mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", tt.name, err)
		}
	}
}
