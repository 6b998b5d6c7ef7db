package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/meta"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// chartTypes maps OOXML plot elements to chart types. Plots without a
// counterpart (bubble, radar, surface, stock) are not imported.
var chartTypes = map[string]models.ChartType{
	"lineChart":     models.ChartLine,
	"line3DChart":   models.ChartLine,
	"barChart":      models.ChartBar,
	"bar3DChart":    models.ChartBar,
	"areaChart":     models.ChartArea,
	"area3DChart":   models.ChartArea,
	"pieChart":      models.ChartPie,
	"pie3DChart":    models.ChartPie,
	"doughnutChart": models.ChartPie,
	"ofPieChart":    models.ChartPie,
	"scatterChart":  models.ChartScatter,
}

var errNoPlot = errors.New("no supported plot")

// chartInfo holds chart placement read from a drawing part.
type chartInfo struct {
	chartPath string
	position  models.Position
	size      models.Size
}

// seriesRefs holds the cell references of one series.
type seriesRefs struct {
	name       string
	categories string
	values     string
}

// plotInfo is the content of one chart part.
type plotInfo struct {
	types     []models.ChartType
	title     string
	catAxis   bool
	catTitle  string
	valTitles []string
	legend    bool
	grid      bool
	series    []seriesRefs
}

// ImportCharts reads the native charts of every worksheet in an xlsx
// container, keyed by sheet name. Charts that cannot be expressed are
// skipped and logged.
func ImportCharts(data []byte, logger *logrus.Logger) (map[string][]models.Chart, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	logger = orDiscard(logger)

	result := make(map[string][]models.Chart)
	for sheetName, infos := range getSheetChartMap(r) {
		for _, ci := range infos {
			chart, err := parseChartFile(r, sheetName, ci)
			if err != nil {
				logger.WithFields(logrus.Fields{"sheet": sheetName, "part": ci.chartPath}).
					WithError(err).Warn("native chart not imported")
				continue
			}
			result[sheetName] = append(result[sheetName], chart)
		}
	}
	return result, nil
}

// getSheetChartMap returns the chart placements of each worksheet.
func getSheetChartMap(r *zip.Reader) map[string][]chartInfo {
	result := make(map[string][]chartInfo)

	workbookXML, err := readZipFile(r, "xl/workbook.xml")
	if err != nil || workbookXML == nil {
		return result
	}
	sheetsInfo := parseWorkbookSheets(workbookXML)
	if len(sheetsInfo) == 0 {
		return result
	}
	wbRelsXML, err := readZipFile(r, "xl/_rels/workbook.xml.rels")
	if err != nil || wbRelsXML == nil {
		return result
	}

	for sheetName, sheetPath := range parseWorkbookRels(wbRelsXML, sheetsInfo) {
		sheetRelsXML, err := readZipFile(r, relsPath(sheetPath))
		if err != nil || sheetRelsXML == nil {
			continue
		}
		drawingPath := findDrawingRelationship(sheetRelsXML)
		if drawingPath == "" {
			continue
		}
		if infos := getChartInfosFromDrawing(r, resolveRelativePath(drawingPath, "xl/worksheets")); len(infos) > 0 {
			result[sheetName] = infos
		}
	}
	return result
}

// getChartInfosFromDrawing lists the charts anchored in a drawing part.
func getChartInfosFromDrawing(r *zip.Reader, drawingPath string) []chartInfo {
	drawingXML, err := readZipFile(r, drawingPath)
	if err != nil || drawingXML == nil {
		return nil
	}
	anchors := parseDrawingForCharts(drawingXML)
	if len(anchors) == 0 {
		return nil
	}
	relsXML, err := readZipFile(r, relsPath(drawingPath))
	if err != nil || relsXML == nil {
		return nil
	}

	chartPaths := make(map[string]string)
	for _, rel := range parseRels(relsXML) {
		if strings.HasSuffix(strings.ToLower(rel.relType), "/chart") {
			chartPaths[rel.id] = rel.target
		}
	}

	var result []chartInfo
	for _, a := range anchors {
		if target, ok := chartPaths[a.rID]; ok {
			result = append(result, chartInfo{
				chartPath: resolveRelativePath(target, "xl/drawings"),
				position:  a.position,
				size:      a.size,
			})
		}
	}
	return result
}

// chartAnchor is a graphic frame holding a chart, with its placement.
type chartAnchor struct {
	rID      string
	position models.Position
	size     models.Size
}

// parseDrawingForCharts finds the anchored graphic frames that hold charts.
func parseDrawingForCharts(data []byte) []chartAnchor {
	var result []chartAnchor
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok {
			switch se.Name.Local {
			case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
				if a := parseAnchor(decoder); a.rID != "" {
					result = append(result, a)
				}
			}
		}
	}
	return result
}

// parseAnchor reads one anchor. The size comes from the frame transform,
// else the anchor extent, else the distance between the from and to markers.
func parseAnchor(decoder *xml.Decoder) chartAnchor {
	var a chartAnchor
	var from, to, pos *models.Position
	var ext, frame models.Size
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "from":
				p := parseMarker(decoder)
				from = &p
				depth--
			case "to":
				p := parseMarker(decoder)
				to = &p
				depth--
			case "pos":
				pos = &models.Position{X: EMUToPixels(attrInt(t, "x")), Y: EMUToPixels(attrInt(t, "y"))}
			case "ext":
				if depth == 2 {
					ext = models.Size{Width: EMUToPixels(attrInt(t, "cx")), Height: EMUToPixels(attrInt(t, "cy"))}
				}
			case "graphicFrame":
				a.rID, frame = parseGraphicFrameContent(decoder)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	switch {
	case from != nil:
		a.position = *from
	case pos != nil:
		a.position = *pos
	}
	switch {
	case frame.Width > 0 && frame.Height > 0:
		a.size = frame
	case ext.Width > 0 && ext.Height > 0:
		a.size = ext
	case from != nil && to != nil:
		a.size = models.Size{Width: to.X - from.X, Height: to.Y - from.Y}
	}
	return a
}

// parseMarker reads a from or to marker into pixels.
func parseMarker(decoder *xml.Decoder) models.Position {
	var col, colOff, row, rowOff int64
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			target := map[string]*int64{"col": &col, "colOff": &colOff, "row": &row, "rowOff": &rowOff}[t.Name.Local]
			if target != nil {
				if txt, err := readElementText(decoder); err == nil {
					*target, _ = strconv.ParseInt(strings.TrimSpace(txt), 10, 64)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return models.Position{X: columnMarkerPixels(col, colOff), Y: rowMarkerPixels(row, rowOff)}
}

// parseGraphicFrameContent returns the chart relationship id and the frame size.
func parseGraphicFrameContent(decoder *xml.Decoder) (string, models.Size) {
	var rID string
	var size models.Size
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "xfrm":
				size = parseXfrm(decoder)
				depth--
			case "chart":
				rID = attr(t, "id")
			}
		case xml.EndElement:
			depth--
		}
	}

	return rID, size
}

// parseXfrm reads the extent of a transform.
func parseXfrm(decoder *xml.Decoder) models.Size {
	var size models.Size
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "ext" {
				size = models.Size{Width: EMUToPixels(attrInt(t, "cx")), Height: EMUToPixels(attrInt(t, "cy"))}
			}
		case xml.EndElement:
			depth--
		}
	}

	return size
}

// parseChartFile reads a chart part into a chart owned by sheetName.
func parseChartFile(r *zip.Reader, sheetName string, ci chartInfo) (models.Chart, error) {
	chartXML, err := readZipFile(r, ci.chartPath)
	if err != nil {
		return models.Chart{}, err
	}
	if chartXML == nil {
		return models.Chart{}, fmt.Errorf("missing part %s", ci.chartPath)
	}
	return buildChart(sheetName, ci, parseChartXML(chartXML))
}

// parseChartXML parses chart XML content.
func parseChartXML(data []byte) plotInfo {
	var p plotInfo
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "chart" {
			parseChartElement(decoder, &p)
		}
	}
	return p
}

// parseChartElement parses the c:chart element.
func parseChartElement(decoder *xml.Decoder, p *plotInfo) {
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "title":
				p.title = parseChartTitle(decoder)
				depth--
			case "plotArea":
				parsePlotArea(decoder, p)
				depth--
			case "legend":
				p.legend = true
			}
		case xml.EndElement:
			depth--
		}
	}
}

// parseChartTitle joins the text runs of a title element.
func parseChartTitle(decoder *xml.Decoder) string {
	var title strings.Builder
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" {
				if txt, err := readElementText(decoder); err == nil {
					title.WriteString(txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return strings.TrimSpace(title.String())
}

// parsePlotArea collects the plots, their series and the axes.
func parsePlotArea(decoder *xml.Decoder, p *plotInfo) {
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			local := t.Name.Local
			if ct, ok := chartTypes[local]; ok {
				p.types = append(p.types, ct)
				p.series = append(p.series, parseChartSeries(decoder)...)
				depth--
				continue
			}
			switch {
			case strings.HasSuffix(local, "Chart"):
				_ = decoder.Skip()
				depth--
			case local == "catAx" || local == "dateAx":
				p.catAxis = true
				p.catTitle, _ = parseAxis(decoder)
				depth--
			case local == "valAx":
				title, grid := parseAxis(decoder)
				p.valTitles = append(p.valTitles, title)
				p.grid = p.grid || grid
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
}

// parseChartSeries parses series elements within a plot.
func parseChartSeries(decoder *xml.Decoder) []seriesRefs {
	var series []seriesRefs
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "ser" {
				series = append(series, parseSingleSeries(decoder))
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return series
}

// parseSingleSeries reads the name, category and value references of a series.
func parseSingleSeries(decoder *xml.Decoder) seriesRefs {
	var s seriesRefs
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "tx":
				s.name = parseSeriesRange(decoder)
				depth--
			case "cat", "xVal":
				s.categories = parseSeriesRange(decoder)
				depth--
			case "val", "yVal":
				s.values = parseSeriesRange(decoder)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return s
}

// parseSeriesRange returns the first formula reference in the element and
// consumes the rest of it, cached values included.
func parseSeriesRange(decoder *xml.Decoder) string {
	var ref string
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "f" {
				if txt, err := readElementText(decoder); err == nil && ref == "" {
					ref = strings.TrimSpace(txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return ref
}

// parseAxis returns the axis title and whether major grid lines are drawn.
func parseAxis(decoder *xml.Decoder) (title string, gridlines bool) {
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "title":
				title = parseChartTitle(decoder)
				depth--
			case "majorGridlines":
				gridlines = true
			}
		case xml.EndElement:
			depth--
		}
	}

	return
}

// buildChart turns the series references into a single data range. Series
// names sit in the header row; when the chart names no series cells the
// row above the values is taken as the header. Without category references
// the column left of the values holds the categories.
func buildChart(sheetName string, ci chartInfo, p plotInfo) (models.Chart, error) {
	if len(p.types) == 0 || len(p.series) == 0 {
		return models.Chart{}, errNoPlot
	}

	var box address.Range
	boxed := false
	include := func(ref string) (address.Range, error) {
		sheet, rng, ok := address.ParseQualifiedRange(ref)
		if !ok {
			return address.Range{}, fmt.Errorf("%w: series reference %q", models.ErrMalformedInput, ref)
		}
		if sheet != "" && sheet != sheetName {
			return address.Range{}, fmt.Errorf("series reference %q points at another sheet", ref)
		}
		if !boxed {
			box, boxed = rng, true
		} else {
			box = union(box, rng)
		}
		return rng, nil
	}

	catCol := -1
	named := false
	for _, s := range p.series {
		if s.values == "" {
			return models.Chart{}, errors.New("series without values")
		}
		if _, err := include(s.values); err != nil {
			return models.Chart{}, err
		}
		if s.name != "" {
			if _, err := include(s.name); err != nil {
				return models.Chart{}, err
			}
			named = true
		}
		if s.categories != "" {
			rng, err := include(s.categories)
			if err != nil {
				return models.Chart{}, err
			}
			if catCol < 0 {
				catCol = rng.StartCol
			}
		}
	}
	if !named && box.StartRow > 0 {
		box.StartRow--
	}
	if catCol < 0 {
		if box.StartCol > 0 {
			box.StartCol--
		}
		catCol = box.StartCol
	}

	chart := models.Chart{
		Type:      p.types[0],
		Position:  ci.position,
		Size:      ci.size,
		DataRange: box,
		Options: models.ChartOptions{
			Title:          p.title,
			CategoryColumn: catCol - box.StartCol,
			ShowLegend:     p.legend,
			ShowGrid:       p.grid,
		},
	}
	for _, ct := range p.types[1:] {
		if ct != chart.Type {
			chart.Type = models.ChartComposed
		}
	}
	if p.catAxis {
		chart.Options.XAxisLabel = p.catTitle
		if len(p.valTitles) > 0 {
			chart.Options.YAxisLabel = p.valTitles[0]
		}
	} else if len(p.valTitles) > 1 {
		chart.Options.XAxisLabel, chart.Options.YAxisLabel = p.valTitles[0], p.valTitles[1]
	}
	if chart.Size.Width <= 0 || chart.Size.Height <= 0 {
		chart.Size = models.Size{Width: meta.DefaultChartWidth, Height: meta.DefaultChartHeight}
	}
	return chart, chart.Validate()
}

func union(a, b address.Range) address.Range {
	return address.Range{
		StartRow: min(a.StartRow, b.StartRow),
		StartCol: min(a.StartCol, b.StartCol),
		EndRow:   max(a.EndRow, b.EndRow),
		EndCol:   max(a.EndCol, b.EndCol),
	}
}
