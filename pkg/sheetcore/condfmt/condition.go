// Package condfmt implements prioritized conditional formatting rules and
// their evaluation into per-cell class and style overlays.
package condfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// ConditionType tags a condition variant.
type ConditionType string

const (
	TypeNumeric    ConditionType = "numeric"
	TypeText       ConditionType = "text"
	TypeDate       ConditionType = "date"
	TypeColorScale ConditionType = "colorScale"
)

// Condition is one of NumericCondition, TextCondition, DateCondition or
// ColorScaleCondition.
type Condition interface {
	Type() ConditionType
	Validate() error
}

// Numeric operators.
const (
	OpGt      = "gt"
	OpGte     = "gte"
	OpLt      = "lt"
	OpLte     = "lte"
	OpEq      = "eq"
	OpNeq     = "neq"
	OpBetween = "between"
	OpTopN    = "topN"
	OpBottomN = "bottomN"
)

// Text operators. OpEq and OpNeq are shared with numeric conditions.
const (
	OpContains   = "contains"
	OpStartsWith = "startsWith"
	OpEndsWith   = "endsWith"
	OpIsEmpty    = "isEmpty"
	OpIsNotEmpty = "isNotEmpty"
	OpDuplicate  = "duplicate"
	OpUnique     = "unique"
)

// Date operators.
const (
	OpToday       = "today"
	OpYesterday   = "yesterday"
	OpTomorrow    = "tomorrow"
	OpInLastNDays = "inLastNDays"
	OpInNextNDays = "inNextNDays"
	OpThisWeek    = "thisWeek"
	OpLastWeek    = "lastWeek"
	OpNextWeek    = "nextWeek"
	OpThisMonth   = "thisMonth"
	OpLastMonth   = "lastMonth"
	OpNextMonth   = "nextMonth"
	OpBefore      = "before"
	OpAfter       = "after"
	OpOn          = "on"
	OpNotOn       = "notOn"
)

// NumericCondition compares numeric cell values against Value, or against
// the values of the rule's range for topN and bottomN.
type NumericCondition struct {
	Operator string
	Value    decimal.Decimal
	// Value2 is the upper bound for between.
	Value2 *decimal.Decimal
}

func (NumericCondition) Type() ConditionType { return TypeNumeric }

// Validate checks the operator and its operands.
func (c NumericCondition) Validate() error {
	switch c.Operator {
	case OpGt, OpGte, OpLt, OpLte, OpEq, OpNeq:
	case OpBetween:
		if c.Value2 == nil {
			return fmt.Errorf("%w: between needs value2", models.ErrMalformedInput)
		}
	case OpTopN, OpBottomN:
		if !c.Value.IsInteger() || !c.Value.IsPositive() {
			return fmt.Errorf("%w: %s needs a positive integer count, got %s", models.ErrMalformedInput, c.Operator, c.Value)
		}
	default:
		return fmt.Errorf("%w: unknown numeric operator %q", models.ErrMalformedInput, c.Operator)
	}
	return nil
}

// Count returns the topN or bottomN count, clamped to math.MaxInt.
func (c NumericCondition) Count() int {
	if c.Value.GreaterThan(decimal.NewFromInt(math.MaxInt)) {
		return math.MaxInt
	}
	return int(c.Value.IntPart())
}

// TextCondition matches the text form of cell values.
type TextCondition struct {
	Operator string
	Value    string
}

func (TextCondition) Type() ConditionType { return TypeText }

// Validate checks the operator.
func (c TextCondition) Validate() error {
	switch c.Operator {
	case OpContains, OpStartsWith, OpEndsWith, OpEq, OpNeq,
		OpIsEmpty, OpIsNotEmpty, OpDuplicate, OpUnique:
		return nil
	}
	return fmt.Errorf("%w: unknown text operator %q", models.ErrMalformedInput, c.Operator)
}

// DateCondition matches date cell values at calendar-day granularity.
// Value holds the day count for inLastNDays and inNextNDays and the
// reference date for before, after, on and notOn.
type DateCondition struct {
	Operator string
	Value    string
}

func (DateCondition) Type() ConditionType { return TypeDate }

// Validate checks the operator and its operand.
func (c DateCondition) Validate() error {
	switch c.Operator {
	case OpToday, OpYesterday, OpTomorrow, OpThisWeek, OpLastWeek, OpNextWeek,
		OpThisMonth, OpLastMonth, OpNextMonth:
		return nil
	case OpInLastNDays, OpInNextNDays:
		if _, ok := c.days(); !ok {
			return fmt.Errorf("%w: %s needs a positive day count, got %q", models.ErrMalformedInput, c.Operator, c.Value)
		}
		return nil
	case OpBefore, OpAfter, OpOn, OpNotOn:
		if _, ok := parseDate(c.Value); !ok {
			return fmt.Errorf("%w: %s needs a date, got %q", models.ErrMalformedInput, c.Operator, c.Value)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown date operator %q", models.ErrMalformedInput, c.Operator)
}

func (c DateCondition) days() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Value))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ColorScaleCondition interpolates the background color between MinColor
// and MaxColor over the numeric values of the rule's range.
type ColorScaleCondition struct {
	MinColor string
	MaxColor string
}

func (ColorScaleCondition) Type() ConditionType { return TypeColorScale }

// Validate checks that both colors parse.
func (c ColorScaleCondition) Validate() error {
	if _, ok := parseColor(c.MinColor); !ok {
		return fmt.Errorf("%w: invalid minColor %q", models.ErrMalformedInput, c.MinColor)
	}
	if _, ok := parseColor(c.MaxColor); !ok {
		return fmt.Errorf("%w: invalid maxColor %q", models.ErrMalformedInput, c.MaxColor)
	}
	return nil
}

// conditionJSON is the tagged wire form shared by all variants.
type conditionJSON struct {
	Type     ConditionType   `json:"type"`
	Operator string          `json:"operator,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Value2   json.RawMessage `json:"value2,omitempty"`
	MinColor string          `json:"minColor,omitempty"`
	MaxColor string          `json:"maxColor,omitempty"`
}

// MarshalCondition encodes c with its "type" tag.
func MarshalCondition(c Condition) ([]byte, error) {
	w := conditionJSON{Type: c.Type()}
	switch c := c.(type) {
	case NumericCondition:
		w.Operator = c.Operator
		w.Value = json.RawMessage(c.Value.String())
		if c.Value2 != nil {
			w.Value2 = json.RawMessage(c.Value2.String())
		}
	case TextCondition:
		w.Operator = c.Operator
		w.Value, _ = json.Marshal(c.Value)
	case DateCondition:
		w.Operator = c.Operator
		if c.Value != "" {
			w.Value, _ = json.Marshal(c.Value)
		}
	case ColorScaleCondition:
		w.MinColor = c.MinColor
		w.MaxColor = c.MaxColor
	default:
		return nil, fmt.Errorf("unsupported condition %T", c)
	}
	return json.Marshal(w)
}

// UnmarshalCondition decodes a tagged condition. Operand values may be
// JSON numbers or strings.
func UnmarshalCondition(data []byte) (Condition, error) {
	var w conditionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case TypeNumeric:
		c := NumericCondition{Operator: w.Operator}
		if len(w.Value) > 0 {
			v, err := rawDecimal(w.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: numeric value: %w", models.ErrMalformedInput, err)
			}
			c.Value = v
		}
		if len(w.Value2) > 0 && !isNull(w.Value2) {
			v, err := rawDecimal(w.Value2)
			if err != nil {
				return nil, fmt.Errorf("%w: numeric value2: %w", models.ErrMalformedInput, err)
			}
			c.Value2 = &v
		}
		return c, nil
	case TypeText:
		return TextCondition{Operator: w.Operator, Value: rawString(w.Value)}, nil
	case TypeDate:
		return DateCondition{Operator: w.Operator, Value: rawString(w.Value)}, nil
	case TypeColorScale:
		return ColorScaleCondition{MinColor: w.MinColor, MaxColor: w.MaxColor}, nil
	}
	return nil, fmt.Errorf("%w: unknown condition type %q", models.ErrMalformedInput, w.Type)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func rawDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(rawString(raw)))
}

// rawString returns a JSON string's contents, or the literal text of any
// other JSON value.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// parseDate accepts "2006-01-02" and RFC 3339 timestamps.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
