// Package models defines the cell, metadata, and chart structures shared by
// the grid, the conditional-formatting engine, and the codec.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the kind of value held by a cell.
type Kind uint8

const (
	// KindEmpty is an empty cell.
	KindEmpty Kind = iota
	// KindText is a plain string.
	KindText
	// KindNumber is a float64.
	KindNumber
	// KindBool is a boolean (checkbox) value.
	KindBool
	// KindDate is a calendar date or timestamp.
	KindDate
	// KindFormula is a formula; its text always begins with "=".
	KindFormula
)

// DateLayout is the layout used when a date is rendered or parsed as text.
const DateLayout = "2006-01-02"

// Value is a single cell value.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Bool   bool
	Time   time.Time
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// Text returns a text value. Strings beginning with "=" become formulas.
func Text(s string) Value {
	if IsFormula(s) {
		return Value{Kind: KindFormula, Text: s}
	}
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindText, Text: s}
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Date returns a date value holding t's wall clock in UTC. Containers
// store dates without a zone.
func Date(t time.Time) Value {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return Value{Kind: KindDate, Time: time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.UTC)}
}

// Formula returns a formula value, adding the leading "=" when missing.
func Formula(body string) Value {
	if !strings.HasPrefix(body, "=") {
		body = "=" + body
	}
	return Value{Kind: KindFormula, Text: body}
}

// IsFormula reports whether s carries the formula sentinel.
func IsFormula(s string) bool {
	return len(s) > 1 && s[0] == '='
}

// ParseInput parses user or delimited-text input.
// Formulas keep their "=" prefix, integers and decimals become numbers,
// anything else stays text.
func ParseInput(s string) Value {
	if s == "" {
		return Value{}
	}
	if IsFormula(s) {
		return Formula(s)
	}
	// Try number
	if f, ok := parseNumber(s); ok && strings.TrimSpace(s) == s {
		return Number(f)
	}
	return Value{Kind: KindText, Text: s}
}

// IsEmpty reports whether v is empty.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// IsFormula reports whether v is a formula.
func (v Value) IsFormula() bool {
	return v.Kind == KindFormula
}

// FormulaBody returns the formula without its leading "=".
func (v Value) FormulaBody() string {
	return strings.TrimPrefix(v.Text, "=")
}

// Float returns the numeric interpretation of v.
// Numbers are returned as is and text is parsed; everything else is not numeric.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindText:
		return parseNumber(v.Text)
	}
	return 0, false
}

// parseNumber parses decimal text, rejecting the Inf/NaN spellings
// strconv otherwise accepts.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, !strings.ContainsAny(s, "nN")
}

// String returns the display text of v.
func (v Value) String() string {
	switch v.Kind {
	case KindText, KindFormula:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindDate:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format(DateLayout)
		}
		return v.Time.Format(time.RFC3339)
	}
	return ""
}

// Equal reports whether v and o hold the same value.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindText, KindFormula:
		return v.Text == o.Text
	case KindNumber:
		return v.Number == o.Number
	case KindBool:
		return v.Bool == o.Bool
	case KindDate:
		return v.Time.Equal(o.Time)
	}
	return true
}

// MarshalJSON encodes v as a native JSON value. Dates are wrapped as
// {"date": RFC3339} so they survive a JSON round trip.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText, KindFormula:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindDate:
		return json.Marshal(struct {
			Date string `json:"date"`
		}{v.Time.Format(time.RFC3339)})
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes the forms produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = Text(x)
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	case map[string]any:
		s, _ := x["date"].(string)
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date value %q: %w", s, err)
		}
		*v = Date(t)
	default:
		return fmt.Errorf("unsupported cell value %s", data)
	}
	return nil
}
