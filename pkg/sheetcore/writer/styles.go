package writer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

// styleCache registers each distinct style once per file.
type styleCache struct {
	f   *excelize.File
	ids map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[string]int)}
}

func (c *styleCache) id(st *excelize.Style) (int, error) {
	key, err := json.Marshal(st)
	if err != nil {
		return 0, err
	}
	if id, ok := c.ids[string(key)]; ok {
		return id, nil
	}
	id, err := c.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	c.ids[string(key)] = id
	return id, nil
}

var borderEdges = []struct {
	prop, edge string
}{
	{models.StyleBorderTop, "top"},
	{models.StyleBorderRight, "right"},
	{models.StyleBorderBottom, "bottom"},
	{models.StyleBorderLeft, "left"},
}

// nativeStyle translates cell metadata into a container style, or nil when
// the cell needs none. Style values that cannot be expressed are logged.
func nativeStyle(cm grid.CellMeta, v models.Value, log *logrus.Entry) *excelize.Style {
	st := &excelize.Style{}
	used := false
	format := models.Format{ClassName: cm.ClassName}

	font := &excelize.Font{
		Bold:   format.Has(models.ClassBold),
		Italic: format.Has(models.ClassItalic),
	}
	if format.Has(models.ClassUnderline) {
		font.Underline = "single"
	}
	if c, ok := cm.Styles[models.StyleColor]; ok {
		if hex, ok := cssHex(c); ok {
			font.Color = hex
		} else {
			log.WithField("color", c).Debug("font color not expressible")
		}
	}
	if fs, ok := cm.Styles[models.StyleFontSize]; ok {
		if px, ok := parsePixels(fs); ok && px > 0 {
			font.Size = px * models.PointsPerPixel
		}
	}
	if font.Bold || font.Italic || font.Underline != "" || font.Color != "" || font.Size > 0 {
		st.Font, used = font, true
	}

	if align := format.Alignment(); align != "" {
		st.Alignment, used = &excelize.Alignment{Horizontal: align}, true
	}

	if bg, ok := cm.Styles[models.StyleBackground]; ok {
		if hex, ok := cssHex(bg); ok {
			st.Fill, used = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}}, true
		}
	}

	for _, e := range borderEdges {
		if spec, ok := cm.Styles[e.prop]; ok {
			if b, ok := parseBorder(e.edge, spec); ok {
				st.Border, used = append(st.Border, b), true
			}
		}
	}

	var numFmt string
	switch {
	case cm.Type == models.TypeDate:
		numFmt = cm.DateFormat.Pattern()
	case v.Kind == models.KindDate:
		numFmt = models.DefaultDateFormat.Pattern()
	case cm.Type == models.TypeNumeric && cm.NumericFormat != nil:
		numFmt = cm.NumericFormat.Pattern
	}
	if numFmt != "" {
		st.CustomNumFmt, used = &numFmt, true
	}

	if !used {
		return nil
	}
	return st
}

// parseBorder reads a CSS border shorthand such as "1px solid #000000".
func parseBorder(edge, spec string) (excelize.Border, bool) {
	spec = strings.TrimSpace(spec)
	color := "000000"
	i := strings.Index(spec, "#")
	if i < 0 {
		i = strings.Index(spec, "rgb(")
	}
	if i >= 0 {
		if hex, ok := cssHex(spec[i:]); ok {
			color = hex
			spec = spec[:i]
		}
	}
	width, line := 1.0, "solid"
	for _, tok := range strings.Fields(spec) {
		if px, ok := parsePixels(tok); ok {
			width = px
			continue
		}
		line = tok
	}

	var style int
	switch line {
	case "none", "hidden":
		return excelize.Border{}, false
	case "dashed":
		style = 3
		if width >= 2 {
			style = 8
		}
	case "dotted":
		style = 4
	case "double":
		style = 6
	default:
		switch {
		case width >= 3:
			style = 5
		case width >= 2:
			style = 2
		default:
			style = 1
		}
	}
	return excelize.Border{Type: edge, Color: color, Style: style}, true
}

// cssHex converts "#RGB", "#RRGGBB" or "rgb(r, g, b)" to "RRGGBB".
func cssHex(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		h := s[1:]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		if len(h) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(h, 16, 32); err != nil {
			return "", false
		}
		return strings.ToUpper(h), true
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return "", false
		}
		var b strings.Builder
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return "", false
			}
			fmt.Fprintf(&b, "%02X", n)
		}
		return b.String(), true
	}
	return "", false
}

func parsePixels(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "px") {
		return 0, false
	}
	px, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	return px, err == nil
}
