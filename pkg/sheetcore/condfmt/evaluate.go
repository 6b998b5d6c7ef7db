package condfmt

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// Overlay holds the presentation attributes produced by one evaluation
// pass. Cells without any matching rule are absent.
type Overlay struct {
	Classes map[address.Key]string       `json:"classes"`
	Styles  map[address.Key]models.Style `json:"styles"`
}

func newOverlay() Overlay {
	return Overlay{
		Classes: make(map[address.Key]string),
		Styles:  make(map[address.Key]models.Style),
	}
}

// Evaluate runs every rule against every cell of src's bounding box.
// now fixes "today" for date conditions.
func Evaluate(src models.CellSource, rules []Rule, now time.Time) Overlay {
	ov, _ := EvaluateContext(context.Background(), src, rules, now)
	return ov
}

// EvaluateContext is Evaluate with cancellation checked between rows.
func EvaluateContext(ctx context.Context, src models.CellSource, rules []Rule, now time.Time) (Overlay, error) {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b Rule) int { return a.Priority - b.Priority })

	p := &pass{src: src, today: civil(now, now.Location()), aggs: make(map[aggKey]*aggregate)}
	p.rows, p.cols = src.Bounds()
	ov := newOverlay()

	for row := 0; row < p.rows; row++ {
		if err := ctx.Err(); err != nil {
			return Overlay{}, err
		}
		for col := 0; col < p.cols; col++ {
			k := address.Key{Row: row, Col: col}
			var classes []string
			var style models.Style
			for _, rule := range ordered {
				if rule.Condition == nil || !rule.Range.Contains(k) {
					continue
				}
				extra, ok := p.match(rule, src.Value(k))
				if !ok {
					continue
				}
				if rule.Format.ClassName != "" {
					classes = append(classes, rule.Format.ClassName)
				}
				if len(rule.Format.Styles) > 0 || len(extra) > 0 {
					style = style.Merge(rule.Format.Styles).Merge(extra)
				}
				if rule.StopIfTrue {
					break
				}
			}
			if len(classes) > 0 {
				ov.Classes[k] = strings.Join(classes, " ")
			}
			if len(style) > 0 {
				ov.Styles[k] = style
			}
		}
	}
	return ov, nil
}

type aggKind int

const (
	aggNumbers aggKind = iota
	aggFrequency
)

type aggKey struct {
	rng  address.Range
	kind aggKind
}

// aggregate is computed once per rule range and kind for the whole pass.
type aggregate struct {
	numbers []float64 // ascending
	freq    map[string]int
}

type pass struct {
	src        models.CellSource
	rows, cols int
	today      time.Time
	aggs       map[aggKey]*aggregate
}

// within returns the part of r inside the bounding box.
func (p *pass) within(r address.Range) (address.Range, bool) {
	if p.rows == 0 || p.cols == 0 {
		return address.Range{}, false
	}
	return r.Intersect(address.Range{EndRow: p.rows - 1, EndCol: p.cols - 1})
}

func (p *pass) aggregate(r address.Range, kind aggKind) *aggregate {
	key := aggKey{rng: r, kind: kind}
	if a, ok := p.aggs[key]; ok {
		return a
	}
	a := &aggregate{}
	if kind == aggFrequency {
		a.freq = make(map[string]int)
	}
	if in, ok := p.within(r); ok {
		in.Each(func(k address.Key) {
			v := p.src.Value(k)
			switch kind {
			case aggNumbers:
				if f, ok := v.Float(); ok {
					a.numbers = append(a.numbers, f)
				}
			case aggFrequency:
				if s := v.String(); s != "" {
					a.freq[s]++
				}
			}
		})
	}
	slices.Sort(a.numbers)
	p.aggs[key] = a
	return a
}

// match reports whether rule matches v. Color scales also return the
// interpolated background.
func (p *pass) match(rule Rule, v models.Value) (models.Style, bool) {
	switch c := rule.Condition.(type) {
	case NumericCondition:
		return nil, p.matchNumeric(rule.Range, c, v)
	case TextCondition:
		return nil, p.matchText(rule.Range, c, v)
	case DateCondition:
		return nil, p.matchDate(c, v)
	case ColorScaleCondition:
		color, ok := p.colorScale(rule.Range, c, v)
		if !ok {
			return nil, false
		}
		return models.Style{models.StyleBackground: color}, true
	}
	return nil, false
}

func cellDecimal(v models.Value) (decimal.Decimal, bool) {
	f, ok := v.Float()
	if !ok {
		return decimal.Decimal{}, false
	}
	if v.Kind == models.KindText {
		if d, err := decimal.NewFromString(strings.TrimSpace(v.Text)); err == nil {
			return d, true
		}
	}
	return decimal.NewFromFloat(f), true
}

func (p *pass) matchNumeric(r address.Range, c NumericCondition, v models.Value) bool {
	d, ok := cellDecimal(v)
	if !ok {
		return false
	}
	switch c.Operator {
	case OpGt:
		return d.GreaterThan(c.Value)
	case OpGte:
		return d.GreaterThanOrEqual(c.Value)
	case OpLt:
		return d.LessThan(c.Value)
	case OpLte:
		return d.LessThanOrEqual(c.Value)
	case OpEq:
		return d.Equal(c.Value)
	case OpNeq:
		return !d.Equal(c.Value)
	case OpBetween:
		if c.Value2 == nil {
			return false
		}
		lo, hi := decimal.Min(c.Value, *c.Value2), decimal.Max(c.Value, *c.Value2)
		return d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi)
	case OpTopN, OpBottomN:
		nums := p.aggregate(r, aggNumbers).numbers
		n := c.Count()
		if len(nums) == 0 || n <= 0 {
			return false
		}
		n = min(n, len(nums))
		f, _ := v.Float()
		// Ties with the threshold value all match.
		if c.Operator == OpTopN {
			return f >= nums[len(nums)-n]
		}
		return f <= nums[n-1]
	}
	return false
}

func (p *pass) matchText(r address.Range, c TextCondition, v models.Value) bool {
	text := v.String()
	lower, want := strings.ToLower(text), strings.ToLower(c.Value)
	switch c.Operator {
	case OpContains:
		return strings.Contains(lower, want)
	case OpStartsWith:
		return strings.HasPrefix(lower, want)
	case OpEndsWith:
		return strings.HasSuffix(lower, want)
	case OpEq:
		return lower == want
	case OpNeq:
		return lower != want
	case OpIsEmpty:
		return strings.TrimSpace(text) == ""
	case OpIsNotEmpty:
		return strings.TrimSpace(text) != ""
	case OpDuplicate:
		return text != "" && p.aggregate(r, aggFrequency).freq[text] > 1
	case OpUnique:
		return text != "" && p.aggregate(r, aggFrequency).freq[text] == 1
	}
	return false
}

// civil returns t's calendar date as midnight UTC, read in loc.
func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// cellDay returns the calendar date a cell holds. Date values keep the
// date they were written with.
func cellDay(v models.Value) (time.Time, bool) {
	switch v.Kind {
	case models.KindDate:
		return civil(v.Time, v.Time.Location()), true
	case models.KindText:
		if t, ok := parseDate(v.Text); ok {
			return civil(t, t.Location()), true
		}
	}
	return time.Time{}, false
}

func (p *pass) matchDate(c DateCondition, v models.Value) bool {
	day, ok := cellDay(v)
	if !ok {
		return false
	}
	today := p.today
	between := func(from, to time.Time) bool {
		return !day.Before(from) && !day.After(to)
	}
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	sameMonth := func(first time.Time) bool {
		return day.Year() == first.Year() && day.Month() == first.Month()
	}

	switch c.Operator {
	case OpToday:
		return day.Equal(today)
	case OpYesterday:
		return day.Equal(today.AddDate(0, 0, -1))
	case OpTomorrow:
		return day.Equal(today.AddDate(0, 0, 1))
	case OpInLastNDays:
		n, ok := c.days()
		return ok && between(today.AddDate(0, 0, -n), today)
	case OpInNextNDays:
		n, ok := c.days()
		return ok && between(today, today.AddDate(0, 0, n))
	case OpThisWeek:
		return between(weekStart, weekStart.AddDate(0, 0, 6))
	case OpLastWeek:
		return between(weekStart.AddDate(0, 0, -7), weekStart.AddDate(0, 0, -1))
	case OpNextWeek:
		return between(weekStart.AddDate(0, 0, 7), weekStart.AddDate(0, 0, 13))
	case OpThisMonth:
		return sameMonth(monthStart)
	case OpLastMonth:
		return sameMonth(monthStart.AddDate(0, -1, 0))
	case OpNextMonth:
		return sameMonth(monthStart.AddDate(0, 1, 0))
	}

	ref, ok := parseDate(c.Value)
	if !ok {
		return false
	}
	ref = civil(ref, ref.Location())
	switch c.Operator {
	case OpBefore:
		return day.Before(ref)
	case OpAfter:
		return day.After(ref)
	case OpOn:
		return day.Equal(ref)
	case OpNotOn:
		return !day.Equal(ref)
	}
	return false
}

type rgb struct{ r, g, b float64 }

// parseColor accepts #RGB, #RRGGBB and rgb(r,g,b).
func parseColor(s string) (rgb, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return rgb{}, false
		}
		var ch [3]float64
		for i, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 || n > 255 {
				return rgb{}, false
			}
			ch[i] = float64(n)
		}
		return rgb{ch[0], ch[1], ch[2]}, true
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return rgb{}, false
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{float64(n >> 16 & 0xff), float64(n >> 8 & 0xff), float64(n & 0xff)}, true
}

func (p *pass) colorScale(r address.Range, c ColorScaleCondition, v models.Value) (string, bool) {
	f, ok := v.Float()
	if !ok {
		return "", false
	}
	lo, okLo := parseColor(c.MinColor)
	hi, okHi := parseColor(c.MaxColor)
	nums := p.aggregate(r, aggNumbers).numbers
	if !okLo || !okHi || len(nums) == 0 {
		return "", false
	}
	minV, maxV := nums[0], nums[len(nums)-1]
	t := 0.5
	if maxV != minV {
		t = (f - minV) / (maxV - minV)
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b float64) int {
		return int(math.Round(a + (b-a)*t))
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", lerp(lo.r, hi.r), lerp(lo.g, hi.g), lerp(lo.b, hi.b)), true
}
