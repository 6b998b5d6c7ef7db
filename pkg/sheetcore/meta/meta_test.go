package meta

import (
	"strings"
	"testing"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/condfmt"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
)

func TestBuildEncodeDecode(t *testing.T) {
	w := workbook.New()
	s := w.Active()
	_ = s.Grid.SetTypeMeta(address.Key{Row: 1}, models.TypeMeta{Type: models.TypeDropdown, Source: []string{"a", "b"}})
	_ = s.Grid.SetColumnWidth(3, 210)
	_ = s.Grid.SetValue(address.Key{Row: 1, Col: 2}, models.Number(1))
	_, _ = s.Rules.Add(condfmt.Rule{
		Range:     address.Range{EndRow: 4},
		Condition: condfmt.TextCondition{Operator: condfmt.OpDuplicate},
		Format:    condfmt.Format{ClassName: "dup"},
	})
	_, _ = s.AddChart(models.Chart{Type: models.ChartPie, Size: models.Size{Width: 300, Height: 200}, DataRange: address.Range{EndRow: 3, EndCol: 1}})

	data, err := Encode(Build(w))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	p, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	m, ok := p.Sheet(0)
	if !ok {
		t.Fatal("sheet 0 missing from payload")
	}
	if len(m.Problems) != 0 {
		t.Errorf("problems = %v", m.Problems)
	}
	if cm := m.Cells[address.Key{Row: 1}]; cm.Type != models.TypeDropdown || len(cm.Source) != 2 {
		t.Errorf("cell meta = %+v", cm)
	}
	if m.ColumnWidths[3] != 210 || len(m.Rules) != 1 || len(m.Charts) != 1 {
		t.Errorf("sheet meta = %+v", m)
	}

	target := workbook.NewSheet("Imported")
	if err := Apply(target, m); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if target.Name != "Sheet1" || target.Rules.Len() != 1 || len(target.Charts()) != 1 {
		t.Errorf("applied sheet = %q rules %d charts %d", target.Name, target.Rules.Len(), len(target.Charts()))
	}
	if rows, cols := target.Grid.Bounds(); rows != 2 || cols != 3 {
		t.Errorf("bounds = %dx%d, expected 2x3", rows, cols)
	}
	if tm, _ := target.Grid.TypeMeta(address.Key{Row: 1}); tm.Type != models.TypeDropdown {
		t.Errorf("type meta = %+v", tm)
	}
}

func TestDecodeLegacyAndTolerant(t *testing.T) {
	payload := `{
		"unknownKey": true,
		"conditionalFormatting": [
			{"id": "r1", "range": {"startRow": 0, "startCol": 0, "endRow": 2, "endCol": 0},
			 "condition": {"type": "numeric", "operator": "gt", "value": "5"},
			 "format": {"className": "hot"}, "stopIfTrue": false, "priority": 0},
			{"id": "r2", "condition": {"type": "sparkle"}},
			{"id": "r3", "condition": {"type": "numeric", "operator": "between", "value": 1}}
		],
		"charts": [{"id": "c1", "type": "bar", "dataRange": {"startRow": 0, "startCol": 0, "endRow": 3, "endCol": 1}, "options": {"categoryColumn": 0}}],
		"cells": {"0-1": {"type": "checkbox"}, "B3": {"className": "bold"}, "bogus": {}},
		"columnWidths": {"0": 120, "x": 5}
	}`

	p, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	m, ok := p.Sheet(0)
	if !ok {
		t.Fatal("legacy fields not mapped to the first sheet")
	}
	if len(m.Rules) != 1 || m.Rules[0].ID != "r1" {
		t.Errorf("rules = %+v", m.Rules)
	}
	if len(m.Charts) != 1 || m.Charts[0].Size.Width != DefaultChartWidth {
		t.Errorf("charts = %+v", m.Charts)
	}
	if m.Cells[address.Key{Row: 0, Col: 1}].Type != models.TypeCheckbox {
		t.Errorf("row-col key not decoded: %+v", m.Cells)
	}
	if m.Cells[address.Key{Row: 2, Col: 1}].ClassName != "bold" {
		t.Errorf("A1 key not decoded: %+v", m.Cells)
	}
	if m.ColumnWidths[0] != 120 || len(m.ColumnWidths) != 1 {
		t.Errorf("widths = %v", m.ColumnWidths)
	}
	// r2, r3, the bogus cell key and the bad width
	if len(m.Problems) != 4 {
		t.Errorf("problems = %v", m.Problems)
	}
}

func TestDecodeRejectsNonJSON(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error")
	}
}

func TestSplit(t *testing.T) {
	s := strings.Repeat("ab", 5) + "日本語"
	chunks := Split(s, 4)
	if strings.Join(chunks, "") != s {
		t.Errorf("chunks do not join back: %q", chunks)
	}
	for _, c := range chunks {
		if n := len([]rune(c)); n > 4 {
			t.Errorf("chunk %q has %d characters", c, n)
		}
	}
	if len(Split("", 4)) != 0 {
		t.Error("empty input produced chunks")
	}
}
