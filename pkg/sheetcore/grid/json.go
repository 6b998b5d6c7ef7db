package grid

import (
	"encoding/json"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// CellMeta is the flattened metadata of one cell, as carried in JSON.
type CellMeta struct {
	Type          models.CellType       `json:"type,omitempty"`
	Source        []string              `json:"source,omitempty"`
	NumericFormat *models.NumericFormat `json:"numericFormat,omitempty"`
	DateFormat    models.DateFormat     `json:"dateFormat,omitempty"`
	ClassName     string                `json:"className,omitempty"`
	Styles        models.Style          `json:"styles,omitempty"`
	Link          string                `json:"link,omitempty"`
	AutoLink      bool                  `json:"autoLink,omitempty"`
}

// Meta returns the metadata of every cell that has any.
func (g *Grid) Meta() map[address.Key]CellMeta {
	out := make(map[address.Key]CellMeta)
	edit := func(k address.Key, fn func(*CellMeta)) {
		m := out[k]
		fn(&m)
		out[k] = m
	}
	for k, t := range g.types {
		t = t.Clone()
		edit(k, func(m *CellMeta) {
			m.Type = t.Type
			m.Source = t.Source
			m.NumericFormat = t.NumericFormat
			m.DateFormat = t.DateFormat
		})
	}
	for k, f := range g.formats {
		edit(k, func(m *CellMeta) { m.ClassName = f.ClassName })
	}
	for k, s := range g.styles {
		edit(k, func(m *CellMeta) { m.Styles = s.Clone() })
	}
	for k, l := range g.links {
		edit(k, func(m *CellMeta) {
			m.Link = l.URL
			m.AutoLink = l.Auto
		})
	}
	return out
}

// ApplyMeta writes each entry's fields over the cell's metadata as one batch.
// Fields left empty in an entry are not touched.
func (g *Grid) ApplyMeta(meta map[address.Key]CellMeta) error {
	return g.Batch(func(tx *Tx) error {
		for k, m := range meta {
			if m.Type != "" {
				tx.SetTypeMeta(k, models.TypeMeta{
					Type:          m.Type,
					Source:        m.Source,
					NumericFormat: m.NumericFormat,
					DateFormat:    m.DateFormat,
				})
			}
			if m.ClassName != "" {
				tx.SetFormat(k, models.Format{ClassName: m.ClassName})
			}
			if len(m.Styles) > 0 {
				tx.MergeStyle(k, m.Styles)
			}
			if m.Link != "" {
				tx.SetLink(k, models.Link{URL: m.Link, Auto: m.AutoLink})
			}
		}
		return tx.Err()
	})
}

type gridJSON struct {
	Rows         int                      `json:"rows"`
	Cols         int                      `json:"cols"`
	Data         [][]models.Value         `json:"data"`
	Cells        map[address.Key]CellMeta `json:"cells,omitempty"`
	ColumnWidths map[int]float64          `json:"columnWidths,omitempty"`
}

// MarshalJSON encodes the grid as dense rows plus a metadata map.
func (g *Grid) MarshalJSON() ([]byte, error) {
	w := gridJSON{
		Rows:  g.rows,
		Cols:  g.cols,
		Data:  g.Rows(),
		Cells: g.Meta(),
	}
	if len(w.Cells) == 0 {
		w.Cells = nil
	}
	if len(g.widths) > 0 {
		w.ColumnWidths = g.widths
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var w gridJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fresh := FromRows(w.Data)
	fresh.rows = max(fresh.rows, w.Rows)
	fresh.cols = max(fresh.cols, w.Cols)
	if err := fresh.ApplyMeta(w.Cells); err != nil {
		return err
	}
	for col, px := range w.ColumnWidths {
		if err := fresh.SetColumnWidth(col, px); err != nil {
			return err
		}
	}
	fresh.listeners = g.listeners
	*g = *fresh
	return nil
}
