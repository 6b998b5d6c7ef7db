// Package meta defines the JSON payload that carries state the container
// cannot express natively: conditional formatting rules, charts, and the
// exact per-cell metadata.
package meta

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/condfmt"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
)

// Version is written into every payload.
const Version = 2

// ChunkSize is the number of characters stored per cell. Containers cap a
// cell at 32767 characters.
const ChunkSize = 32000

// Default chart size applied to payload charts that carry none.
const (
	DefaultChartWidth  = 480
	DefaultChartHeight = 300
)

// Payload is the whole metadata document.
type Payload struct {
	Version     int         `json:"version"`
	ActiveSheet int         `json:"activeSheet"`
	Sheets      []SheetMeta `json:"sheets"`
}

// SheetMeta is the metadata of one sheet. Index is the sheet's position
// among the visible sheets of the container.
type SheetMeta struct {
	Index        int                           `json:"index"`
	Name         string                        `json:"name,omitempty"`
	Rows         int                           `json:"rows,omitempty"`
	Cols         int                           `json:"cols,omitempty"`
	Rules        []condfmt.Rule                `json:"conditionalFormatting,omitempty"`
	Charts       []models.Chart                `json:"charts,omitempty"`
	Cells        map[address.Key]grid.CellMeta `json:"cells,omitempty"`
	ColumnWidths map[int]float64               `json:"columnWidths,omitempty"`

	// Problems lists entries that were skipped while decoding.
	Problems []string `json:"-"`
}

func (m SheetMeta) empty() bool {
	return len(m.Rules) == 0 && len(m.Charts) == 0 && len(m.Cells) == 0 && len(m.ColumnWidths) == 0
}

// Build collects the payload of every sheet of w.
func Build(w *workbook.Workbook) Payload {
	return BuildSheets(w.Sheets(), w.ActiveIndex())
}

// BuildSheets collects the payload of sheets, in order.
func BuildSheets(sheets []*workbook.Sheet, active int) Payload {
	p := Payload{Version: Version, ActiveSheet: active}
	for i, s := range sheets {
		rows, cols := s.Grid.Bounds()
		p.Sheets = append(p.Sheets, SheetMeta{
			Index:        i,
			Name:         s.Name,
			Rows:         rows,
			Cols:         cols,
			Rules:        s.Rules.Rules(),
			Charts:       s.Charts(),
			Cells:        s.Grid.Meta(),
			ColumnWidths: s.Grid.ColumnWidths(),
		})
	}
	return p
}

// Sheet returns the metadata recorded for the visible sheet at index.
func (p Payload) Sheet(index int) (SheetMeta, bool) {
	for _, m := range p.Sheets {
		if m.Index == index {
			return m, true
		}
	}
	return SheetMeta{}, false
}

// Decode parses a payload. All keys are optional and unknown keys are
// ignored. A payload with top-level conditionalFormatting, charts, cells or
// columnWidths and no sheets list applies to the first sheet.
func Decode(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: metadata payload: %w", models.ErrMalformedInput, err)
	}
	if len(p.Sheets) == 0 {
		var legacy SheetMeta
		if err := json.Unmarshal(data, &legacy); err == nil && !legacy.empty() {
			legacy.Index = 0
			legacy.Name = ""
			p.Sheets = []SheetMeta{legacy}
		}
	}
	return p, nil
}

// Encode marshals p.
func Encode(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

type sheetMetaJSON struct {
	Index        int                        `json:"index"`
	Name         string                     `json:"name"`
	Rows         int                        `json:"rows"`
	Cols         int                        `json:"cols"`
	Rules        []json.RawMessage          `json:"conditionalFormatting"`
	Charts       []json.RawMessage          `json:"charts"`
	Cells        map[string]json.RawMessage `json:"cells"`
	ColumnWidths map[string]json.RawMessage `json:"columnWidths"`
}

// UnmarshalJSON decodes entry by entry. Entries that fail to parse or
// validate are dropped and described in Problems.
func (m *SheetMeta) UnmarshalJSON(data []byte) error {
	var w sheetMetaJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := SheetMeta{Index: w.Index, Name: w.Name, Rows: max(w.Rows, 0), Cols: max(w.Cols, 0)}
	problem := func(format string, args ...any) {
		out.Problems = append(out.Problems, fmt.Sprintf(format, args...))
	}

	for i, raw := range w.Rules {
		var r condfmt.Rule
		if err := json.Unmarshal(raw, &r); err != nil {
			problem("rule %d: %v", i, err)
			continue
		}
		if err := r.Validate(); err != nil {
			problem("rule %d: %v", i, err)
			continue
		}
		out.Rules = append(out.Rules, r)
	}

	for i, raw := range w.Charts {
		var c models.Chart
		if err := json.Unmarshal(raw, &c); err != nil {
			problem("chart %d: %v", i, err)
			continue
		}
		if c.Size.Width <= 0 || c.Size.Height <= 0 {
			c.Size = models.Size{Width: DefaultChartWidth, Height: DefaultChartHeight}
		}
		c.DataRange = c.DataRange.Normalize()
		if err := c.Validate(); err != nil {
			problem("chart %d: %v", i, err)
			continue
		}
		out.Charts = append(out.Charts, c)
	}

	for key, raw := range w.Cells {
		k, ok := parseCellKey(key)
		if !ok {
			problem("cell key %q", key)
			continue
		}
		var cm grid.CellMeta
		if err := json.Unmarshal(raw, &cm); err != nil {
			problem("cell %s: %v", key, err)
			continue
		}
		if cm.Type != "" && !cm.Type.Valid() {
			problem("cell %s: unknown type %q", key, cm.Type)
			cm.Type, cm.Source, cm.NumericFormat, cm.DateFormat = "", nil, nil, ""
		}
		if out.Cells == nil {
			out.Cells = make(map[address.Key]grid.CellMeta)
		}
		out.Cells[k] = cm
	}

	for key, raw := range w.ColumnWidths {
		col, err := strconv.Atoi(key)
		var px float64
		if err == nil {
			err = json.Unmarshal(raw, &px)
		}
		if err != nil || col < 0 || px < 0 {
			problem("column width %q", key)
			continue
		}
		if out.ColumnWidths == nil {
			out.ColumnWidths = make(map[int]float64)
		}
		out.ColumnWidths[col] = px
	}

	*m = out
	return nil
}

// parseCellKey accepts "row-col" keys and A1 addresses.
func parseCellKey(s string) (address.Key, bool) {
	if k, err := address.ParseKey(s); err == nil {
		return k, true
	}
	return address.ParseA1(s)
}

// Apply writes m onto s: bounds, cell metadata, column widths, rules and
// charts. A recorded name replaces the container name.
func Apply(s *workbook.Sheet, m SheetMeta) error {
	if m.Name != "" {
		s.Name = m.Name
	}
	if rows, cols := s.Grid.Bounds(); m.Rows > rows || m.Cols > cols {
		s.Grid.Resize(max(rows, m.Rows), max(cols, m.Cols))
	}
	if len(m.Cells) > 0 {
		if err := s.Grid.ApplyMeta(m.Cells); err != nil {
			return fmt.Errorf("sheet %q cell metadata: %w", s.Name, err)
		}
	}
	for col, px := range m.ColumnWidths {
		if err := s.Grid.SetColumnWidth(col, px); err != nil {
			return err
		}
	}
	if len(m.Rules) > 0 {
		if err := s.Rules.Replace(m.Rules); err != nil {
			return fmt.Errorf("sheet %q rules: %w", s.Name, err)
		}
	}
	if len(m.Charts) > 0 {
		if err := s.SetCharts(m.Charts); err != nil {
			return fmt.Errorf("sheet %q charts: %w", s.Name, err)
		}
	}
	return nil
}

// Split cuts s into chunks of at most size characters, never inside a
// multi-byte character.
func Split(s string, size int) []string {
	if size <= 0 {
		size = ChunkSize
	}
	var chunks []string
	for len(s) > 0 {
		n, end := 0, 0
		for end < len(s) && n < size {
			_, w := utf8.DecodeRuneInString(s[end:])
			end += w
			n++
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
