package models

import (
	"fmt"
	"slices"
	"strings"
)

// CellType selects the input widget and value semantics of a cell.
type CellType string

const (
	// TypeText is free text (the default).
	TypeText CellType = "text"
	// TypeNumeric is a number rendered with a NumericFormat.
	TypeNumeric CellType = "numeric"
	// TypeDate is a date rendered with a DateFormat.
	TypeDate CellType = "date"
	// TypeCheckbox is a boolean toggle.
	TypeCheckbox CellType = "checkbox"
	// TypeDropdown is a choice from Source.
	TypeDropdown CellType = "dropdown"
)

// Valid reports whether t is a known cell type.
func (t CellType) Valid() bool {
	switch t {
	case TypeText, TypeNumeric, TypeDate, TypeCheckbox, TypeDropdown:
		return true
	}
	return false
}

// DateFormat is one of the enumerated date display formats.
type DateFormat string

const (
	DateMDY      DateFormat = "MM/DD/YYYY"
	DateDMY      DateFormat = "DD/MM/YYYY"
	DateISO      DateFormat = "YYYY-MM-DD"
	DateLong     DateFormat = "MMM D, YYYY"
	DateDayMonth DateFormat = "DD MMM YYYY"
)

// DefaultDateFormat is used when a date cell has no recognizable format.
const DefaultDateFormat = DateMDY

// DateFormats lists the supported date formats in display order.
var DateFormats = []DateFormat{DateMDY, DateDMY, DateISO, DateLong, DateDayMonth}

// Valid reports whether f is one of the enumerated formats.
func (f DateFormat) Valid() bool {
	return slices.Contains(DateFormats, f)
}

// containerPatterns maps each date format to its number-format code.
var containerPatterns = map[DateFormat]string{
	DateMDY:      "mm/dd/yyyy",
	DateDMY:      "dd/mm/yyyy",
	DateISO:      "yyyy-mm-dd",
	DateLong:     "mmm d, yyyy",
	DateDayMonth: "dd mmm yyyy",
}

// Pattern returns the container number-format code of f. Unknown formats
// use the default format's code.
func (f DateFormat) Pattern() string {
	if p, ok := containerPatterns[f]; ok {
		return p
	}
	return containerPatterns[DefaultDateFormat]
}

// DateFormatFromPattern maps a container number-format code back to a
// date format. Matching ignores case and escape characters.
func DateFormatFromPattern(code string) (DateFormat, bool) {
	code = strings.ToLower(strings.NewReplacer(`\`, "", `"`, "").Replace(code))
	for f, p := range containerPatterns {
		if p == code {
			return f, true
		}
	}
	return "", false
}

// NumericFormat is a number display pattern plus the culture it renders in.
type NumericFormat struct {
	Pattern string `json:"pattern"`
	Culture string `json:"culture,omitempty"`
}

// DefaultCulture is applied to numeric formats that do not name one.
const DefaultCulture = "en-US"

// NumericPatterns lists the supported numeric patterns. The first entry is the default.
var NumericPatterns = []string{"0.00", "0", "#,##0", "#,##0.00", "0%", "0.00%", "$#,##0.00", "0.00E+00"}

// TypeMeta is the per-cell type metadata driving input widgets.
// Source is present only for dropdowns and DateFormat only for dates;
// Normalize enforces both.
type TypeMeta struct {
	Type          CellType       `json:"type"`
	Source        []string       `json:"source,omitempty"`
	NumericFormat *NumericFormat `json:"numericFormat,omitempty"`
	DateFormat    DateFormat     `json:"dateFormat,omitempty"`
}

// Clone returns a copy of m sharing no memory with it.
func (m TypeMeta) Clone() TypeMeta {
	m.Source = slices.Clone(m.Source)
	if m.NumericFormat != nil {
		nf := *m.NumericFormat
		m.NumericFormat = &nf
	}
	return m
}

// Normalize enforces the type-family invariants on m:
// dropdown and checkbox cells carry no numeric or date format, Source exists
// only on dropdowns, and DateFormat only on dates.
func (m TypeMeta) Normalize() TypeMeta {
	if m.Type == "" {
		m.Type = TypeText
	}
	switch m.Type {
	case TypeDropdown:
		if m.Source == nil {
			m.Source = []string{}
		}
		m.NumericFormat = nil
		m.DateFormat = ""
	case TypeCheckbox:
		m.Source = nil
		m.NumericFormat = nil
		m.DateFormat = ""
	case TypeDate:
		m.Source = nil
		m.NumericFormat = nil
		if !m.DateFormat.Valid() {
			m.DateFormat = DefaultDateFormat
		}
	default:
		m.Source = nil
		m.DateFormat = ""
	}
	if m.NumericFormat != nil && m.NumericFormat.Culture == "" {
		nf := *m.NumericFormat
		nf.Culture = DefaultCulture
		m.NumericFormat = &nf
	}
	return m
}

// Validate rejects unknown cell types.
func (m TypeMeta) Validate() error {
	if m.Type != "" && !m.Type.Valid() {
		return fmt.Errorf("%w: unknown cell type %q", ErrMalformedInput, m.Type)
	}
	return nil
}

// Format tags used in Format.ClassName.
const (
	ClassBold        = "bold"
	ClassItalic      = "italic"
	ClassUnderline   = "underline"
	ClassAlignLeft   = "align-left"
	ClassAlignCenter = "align-center"
	ClassAlignRight  = "align-right"
)

// Format carries rendering tags as a space-joined class list.
type Format struct {
	ClassName string `json:"className,omitempty"`
}

// Classes returns the individual tags.
func (f Format) Classes() []string {
	return strings.Fields(f.ClassName)
}

// Has reports whether tag is set.
func (f Format) Has(tag string) bool {
	return slices.Contains(f.Classes(), tag)
}

// With returns f with tag added. Alignment tags replace each other.
func (f Format) With(tag string) Format {
	classes := f.Classes()
	if isAlignment(tag) {
		classes = slices.DeleteFunc(classes, isAlignment)
	}
	if !slices.Contains(classes, tag) {
		classes = append(classes, tag)
	}
	return Format{ClassName: strings.Join(classes, " ")}
}

// Without returns f with tag removed.
func (f Format) Without(tag string) Format {
	classes := slices.DeleteFunc(f.Classes(), func(c string) bool { return c == tag })
	return Format{ClassName: strings.Join(classes, " ")}
}

// Alignment returns "left", "center", "right" or "".
func (f Format) Alignment() string {
	for _, c := range f.Classes() {
		if isAlignment(c) {
			return strings.TrimPrefix(c, "align-")
		}
	}
	return ""
}

func isAlignment(tag string) bool {
	return strings.HasPrefix(tag, "align-")
}

// Style property names understood by the codec.
const (
	StyleColor        = "color"
	StyleBackground   = "backgroundColor"
	StyleFontSize     = "fontSize"
	StyleBorderTop    = "borderTop"
	StyleBorderRight  = "borderRight"
	StyleBorderBottom = "borderBottom"
	StyleBorderLeft   = "borderLeft"
)

// Style maps CSS-like property names to values.
type Style map[string]string

// Clone returns a copy of s.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns s with every key of o written over it.
func (s Style) Merge(o Style) Style {
	out := s.Clone()
	if out == nil {
		out = make(Style, len(o))
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Link is a cell hyperlink. Auto links come from the link scan and are
// replaced by it; user links are never touched by the scan.
type Link struct {
	URL  string `json:"url"`
	Auto bool   `json:"auto,omitempty"`
}
