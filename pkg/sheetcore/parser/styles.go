package parser

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

// defaultFontSize is the container's default font size in points.
const defaultFontSize = 11

// builtinNumFmts holds the codes of the built-in number formats that map
// onto numeric patterns.
var builtinNumFmts = map[int]string{
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	14: "mm/dd/yyyy",
}

// borderStyles maps container border style ids to CSS border shorthands,
// without the color.
var borderStyles = map[int]string{
	1:  "1px solid",
	2:  "2px solid",
	3:  "1px dashed",
	4:  "1px dotted",
	5:  "3px solid",
	6:  "3px double",
	7:  "1px solid",
	8:  "2px dashed",
	9:  "1px dashed",
	10: "2px dashed",
	11: "1px dotted",
	12: "2px dotted",
	13: "2px dashed",
}

// cellStyle is the decoded form of one container style.
type cellStyle struct {
	format  models.Format
	style   models.Style
	numeric *models.NumericFormat
	date    models.DateFormat
	isDate  bool
}

// styleCache decodes each container style id once per sheet.
type styleCache struct {
	f      *excelize.File
	styles map[int]cellStyle
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, styles: make(map[int]cellStyle)}
}

func (c *styleCache) cell(sheet, cell string) cellStyle {
	id, err := c.f.GetCellStyle(sheet, cell)
	if err != nil || id == 0 {
		return cellStyle{}
	}
	if st, ok := c.styles[id]; ok {
		return st
	}
	var st cellStyle
	if s, err := c.f.GetStyle(id); err == nil && s != nil {
		st = convertStyle(s)
	}
	c.styles[id] = st
	return st
}

// convertStyle maps font, alignment, fill, border and number format
// settings onto format tags, style properties and type metadata.
func convertStyle(s *excelize.Style) cellStyle {
	var st cellStyle
	style := models.Style{}

	if font := s.Font; font != nil {
		if font.Bold {
			st.format = st.format.With(models.ClassBold)
		}
		if font.Italic {
			st.format = st.format.With(models.ClassItalic)
		}
		if font.Underline != "" && font.Underline != "none" {
			st.format = st.format.With(models.ClassUnderline)
		}
		if color, ok := hexColor(font.Color); ok {
			style[models.StyleColor] = color
		}
		if font.Size > 0 && font.Size != defaultFontSize {
			style[models.StyleFontSize] = formatPixels(font.Size / models.PointsPerPixel)
		}
	}

	if a := s.Alignment; a != nil {
		switch a.Horizontal {
		case "left":
			st.format = st.format.With(models.ClassAlignLeft)
		case "center", "centerContinuous":
			st.format = st.format.With(models.ClassAlignCenter)
		case "right":
			st.format = st.format.With(models.ClassAlignRight)
		}
	}

	if s.Fill.Type == "pattern" && s.Fill.Pattern == 1 && len(s.Fill.Color) > 0 {
		if color, ok := hexColor(s.Fill.Color[0]); ok {
			style[models.StyleBackground] = color
		}
	}

	edges := map[string]string{
		"top":    models.StyleBorderTop,
		"right":  models.StyleBorderRight,
		"bottom": models.StyleBorderBottom,
		"left":   models.StyleBorderLeft,
	}
	for _, b := range s.Border {
		prop, ok := edges[b.Type]
		if !ok || b.Style == 0 {
			continue
		}
		line, ok := borderStyles[b.Style]
		if !ok {
			line = borderStyles[1]
		}
		color, ok := hexColor(b.Color)
		if !ok {
			color = "#000000"
		}
		style[prop] = line + " " + color
	}
	if len(style) > 0 {
		st.style = style
	}

	code := numFmtCode(s)
	switch {
	case isDateFormat(s.NumFmt, s.CustomNumFmt):
		st.isDate = true
		st.date = models.DefaultDateFormat
		if df, ok := models.DateFormatFromPattern(code); ok {
			st.date = df
		}
	case code != "" && !strings.EqualFold(code, "General"):
		st.numeric = &models.NumericFormat{Pattern: numericPattern(code), Culture: models.DefaultCulture}
	}
	return st
}

func numFmtCode(s *excelize.Style) string {
	if s.CustomNumFmt != nil {
		return *s.CustomNumFmt
	}
	return builtinNumFmts[s.NumFmt]
}

// isDateFormat reports whether a number format renders dates: a built-in
// date id, or a custom code holding both a year and a day token.
func isDateFormat(id int, custom *string) bool {
	if custom == nil {
		return (id >= 14 && id <= 17) || id == 22 || (id >= 27 && id <= 36) || (id >= 50 && id <= 58)
	}
	code := strings.ToLower(stripLiterals(*custom))
	return strings.Contains(code, "y") && strings.Contains(code, "d")
}

// stripLiterals drops quoted text, escaped characters and bracketed
// sections such as colors and locales from a number format code.
func stripLiterals(code string) string {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\':
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// numericPattern maps a number format code onto a supported pattern,
// falling back to the default pattern.
func numericPattern(code string) string {
	clean := strings.NewReplacer(`"`, "", "\\", "").Replace(code)
	if i := strings.IndexByte(clean, ';'); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)
	if slices.Contains(models.NumericPatterns, clean) {
		return clean
	}
	return models.NumericPatterns[0]
}

// hexColor normalizes RGB and ARGB hex strings to "#RRGGBB".
func hexColor(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 8 {
		s = s[2:]
	}
	if len(s) != 6 {
		return "", false
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return "", false
	}
	return "#" + strings.ToUpper(s), true
}

func formatPixels(px float64) string {
	return strconv.FormatFloat(math.Round(px*100)/100, 'f', -1, 64) + "px"
}
