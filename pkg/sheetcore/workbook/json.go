package workbook

import (
	"encoding/json"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/condfmt"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

type sheetJSON struct {
	ID     string           `json:"id,omitempty"`
	Name   string           `json:"name"`
	Grid   *grid.Grid       `json:"grid"`
	Rules  *condfmt.RuleSet `json:"conditionalFormatting"`
	Charts []models.Chart   `json:"charts"`
}

type workbookJSON struct {
	ActiveSheet int      `json:"activeSheet"`
	Sheets      []*Sheet `json:"sheets"`
}

// MarshalJSON encodes the sheet with its grid, rules and charts.
func (s *Sheet) MarshalJSON() ([]byte, error) {
	charts := s.charts
	if charts == nil {
		charts = []models.Chart{}
	}
	return json.Marshal(sheetJSON{ID: s.ID, Name: s.Name, Grid: s.Grid, Rules: s.Rules, Charts: charts})
}

// UnmarshalJSON decodes a sheet. Missing parts decode as empty.
func (s *Sheet) UnmarshalJSON(data []byte) error {
	var w sheetJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := NewSheet(w.Name)
	if w.ID != "" {
		out.ID = w.ID
	}
	if w.Grid != nil {
		out.Grid = w.Grid
	}
	if w.Rules != nil {
		out.Rules = w.Rules
	}
	if err := out.SetCharts(w.Charts); err != nil {
		return err
	}
	*s = *out
	return nil
}

// MarshalJSON encodes every sheet and the active index.
func (w *Workbook) MarshalJSON() ([]byte, error) {
	return json.Marshal(workbookJSON{ActiveSheet: w.active, Sheets: w.sheets})
}

// UnmarshalJSON replaces w with the decoded workbook and a fresh bus.
// Nothing is changed when decoding fails.
func (w *Workbook) UnmarshalJSON(data []byte) error {
	var raw workbookJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := FromSheets(raw.Sheets, raw.ActiveSheet)
	if err != nil {
		return err
	}
	*w = *built
	return nil
}
