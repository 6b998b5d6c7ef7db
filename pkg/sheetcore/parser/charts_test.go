package parser

import (
	"testing"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

const composedChartXML = `<?xml version="1.0" encoding="UTF-8"?>
<c:chartSpace xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <c:chart>
    <c:title><c:tx><c:rich><a:p><a:r><a:t>Monthly </a:t></a:r><a:r><a:t>Sales</a:t></a:r></a:p></c:rich></c:tx></c:title>
    <c:plotArea>
      <c:barChart>
        <c:ser>
          <c:tx><c:strRef><c:f>Data!$B$1</c:f><c:strCache><c:pt idx="0"><c:v>North</c:v></c:pt></c:strCache></c:strRef></c:tx>
          <c:cat><c:strRef><c:f>Data!$A$2:$A$4</c:f></c:strRef></c:cat>
          <c:val><c:numRef><c:f>Data!$B$2:$B$4</c:f></c:numRef></c:val>
        </c:ser>
      </c:barChart>
      <c:lineChart>
        <c:ser>
          <c:tx><c:strRef><c:f>Data!$C$1</c:f></c:strRef></c:tx>
          <c:cat><c:strRef><c:f>Data!$A$2:$A$4</c:f></c:strRef></c:cat>
          <c:val><c:numRef><c:f>Data!$C$2:$C$4</c:f></c:numRef></c:val>
        </c:ser>
      </c:lineChart>
      <c:radarChart><c:ser><c:val><c:numRef><c:f>Data!$Z$1:$Z$2</c:f></c:numRef></c:val></c:ser></c:radarChart>
      <c:catAx><c:title><c:tx><c:rich><a:p><a:r><a:t>Month</a:t></a:r></a:p></c:rich></c:tx></c:title></c:catAx>
      <c:valAx><c:majorGridlines/><c:title><c:tx><c:rich><a:p><a:r><a:t>Units</a:t></a:r></a:p></c:rich></c:tx></c:title></c:valAx>
    </c:plotArea>
    <c:legend><c:legendPos val="b"/></c:legend>
  </c:chart>
</c:chartSpace>`

func TestParseChartXML(t *testing.T) {
	p := parseChartXML([]byte(composedChartXML))

	if p.title != "Monthly Sales" {
		t.Errorf("Expected title 'Monthly Sales', got %q", p.title)
	}
	if len(p.types) != 2 || p.types[0] != models.ChartBar || p.types[1] != models.ChartLine {
		t.Errorf("Expected bar and line plots, got %v", p.types)
	}
	if len(p.series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(p.series))
	}
	if p.series[0].name != "Data!$B$1" || p.series[0].values != "Data!$B$2:$B$4" {
		t.Errorf("Unexpected first series %+v", p.series[0])
	}
	if !p.legend || !p.grid || !p.catAxis {
		t.Errorf("Expected legend, grid and category axis, got %+v", p)
	}
}

func TestBuildChart(t *testing.T) {
	ci := chartInfo{position: models.Position{X: 256, Y: 20}}
	chart, err := buildChart("Data", ci, parseChartXML([]byte(composedChartXML)))
	if err != nil {
		t.Fatalf("buildChart failed: %v", err)
	}

	if chart.Type != models.ChartComposed {
		t.Errorf("Expected composed chart, got %s", chart.Type)
	}
	expected := address.Range{StartRow: 0, StartCol: 0, EndRow: 3, EndCol: 2}
	if chart.DataRange != expected {
		t.Errorf("Expected data range %+v, got %+v", expected, chart.DataRange)
	}
	if chart.Options.CategoryColumn != 0 {
		t.Errorf("Expected category column 0, got %d", chart.Options.CategoryColumn)
	}
	if chart.Options.XAxisLabel != "Month" || chart.Options.YAxisLabel != "Units" {
		t.Errorf("Unexpected axis labels %q / %q", chart.Options.XAxisLabel, chart.Options.YAxisLabel)
	}
	if chart.Size.Width != 480 || chart.Size.Height != 300 {
		t.Errorf("Expected default size 480x300, got %+v", chart.Size)
	}
}

func TestBuildChartUnnamedSeries(t *testing.T) {
	p := plotInfo{
		types:  []models.ChartType{models.ChartLine},
		series: []seriesRefs{{values: "Sheet1!$C$3:$C$6"}, {values: "Sheet1!$D$3:$D$6"}},
	}
	chart, err := buildChart("Sheet1", chartInfo{size: models.Size{Width: 300, Height: 200}}, p)
	if err != nil {
		t.Fatalf("buildChart failed: %v", err)
	}
	expected := address.Range{StartRow: 1, StartCol: 1, EndRow: 5, EndCol: 3}
	if chart.DataRange != expected {
		t.Errorf("Expected data range %+v, got %+v", expected, chart.DataRange)
	}
	if chart.Options.CategoryColumn != 0 {
		t.Errorf("Expected category column 0, got %d", chart.Options.CategoryColumn)
	}
}

func TestBuildChartRejectsOtherSheets(t *testing.T) {
	p := plotInfo{
		types:  []models.ChartType{models.ChartBar},
		series: []seriesRefs{{values: "Other!$B$2:$B$4"}},
	}
	if _, err := buildChart("Sheet1", chartInfo{}, p); err == nil {
		t.Error("Expected an error for a reference to another sheet")
	}
}

func TestImportCharts(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{{"Month", "Sales"}, {"Jan", 10}, {"Feb", 20}, {"Mar", 15}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		f.SetSheetRow("Sheet1", cell, &row)
	}
	err := f.AddChart("Sheet1", "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       "Sheet1!$B$1",
			Categories: "Sheet1!$A$2:$A$4",
			Values:     "Sheet1!$B$2:$B$4",
		}},
		Title: []excelize.RichTextRun{{Text: "Sales"}},
	})
	if err != nil {
		t.Fatalf("AddChart failed: %v", err)
	}

	charts, err := ImportCharts(saveFile(t, f), nil)
	if err != nil {
		t.Fatalf("ImportCharts failed: %v", err)
	}
	got := charts["Sheet1"]
	if len(got) != 1 {
		t.Fatalf("Expected 1 chart, got %d", len(got))
	}
	c := got[0]
	if c.Type != models.ChartBar {
		t.Errorf("Expected bar chart, got %s", c.Type)
	}
	if c.Options.Title != "Sales" {
		t.Errorf("Expected title 'Sales', got %q", c.Options.Title)
	}
	expected := address.Range{StartRow: 0, StartCol: 0, EndRow: 3, EndCol: 1}
	if c.DataRange != expected {
		t.Errorf("Expected data range %+v, got %+v", expected, c.DataRange)
	}
	if c.Position.X != 4*models.DefaultColumnPixels || c.Position.Y != models.DefaultRowPixels {
		t.Errorf("Expected position at E2, got %+v", c.Position)
	}
	if c.Size.Width <= 0 || c.Size.Height <= 0 {
		t.Errorf("Expected a positive size, got %+v", c.Size)
	}
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		target   string
		baseDir  string
		expected string
	}{
		{"../drawings/drawing1.xml", "xl/worksheets", "xl/drawings/drawing1.xml"},
		{"chart1.xml", "xl/charts", "xl/charts/chart1.xml"},
		{"/xl/charts/chart2.xml", "xl/drawings", "xl/charts/chart2.xml"},
	}

	for _, tt := range tests {
		if got := resolveRelativePath(tt.target, tt.baseDir); got != tt.expected {
			t.Errorf("resolveRelativePath(%q, %q) = %q, expected %q", tt.target, tt.baseDir, got, tt.expected)
		}
	}
}

func TestRelsPath(t *testing.T) {
	if got := relsPath("xl/worksheets/sheet1.xml"); got != "xl/worksheets/_rels/sheet1.xml.rels" {
		t.Errorf("Expected worksheet rels path, got %q", got)
	}
	if got := relsPath("workbook.xml"); got != "_rels/workbook.xml.rels" {
		t.Errorf("Expected root rels path, got %q", got)
	}
}
