package condfmt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

func textRule(label string) Rule {
	return Rule{
		Range:     address.Range{StartRow: 3, StartCol: 2, EndRow: 0, EndCol: 0},
		Condition: TextCondition{Operator: OpContains, Value: "x"},
		Label:     label,
	}
}

func labels(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Label
	}
	return out
}

func TestRuleSetAdd(t *testing.T) {
	s := NewRuleSet()
	changes := 0
	s.OnChange(func() { changes++ })

	a, err := s.Add(textRule("a"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	b, _ := s.Add(textRule("b"))

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids %q and %q are not unique", a.ID, b.ID)
	}
	if a.Priority != 0 || b.Priority != 1 {
		t.Errorf("priorities = %d, %d", a.Priority, b.Priority)
	}
	if a.Range != (address.Range{EndRow: 3, EndCol: 2}) {
		t.Errorf("range not normalized: %+v", a.Range)
	}
	if changes != 2 {
		t.Errorf("changes = %d", changes)
	}

	c, _ := s.AddAt(textRule("c"), -1)
	if got := labels(s.Rules()); got[0] != "c" || c.Priority != -1 {
		t.Errorf("explicit priority order = %v", got)
	}
}

func TestRuleSetRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
	}{
		{"nil", nil},
		{"between without value2", NumericCondition{Operator: OpBetween, Value: decimal.NewFromInt(1)}},
		{"topN zero", NumericCondition{Operator: OpTopN, Value: decimal.Zero}},
		{"topN fraction", NumericCondition{Operator: OpTopN, Value: decimal.RequireFromString("1.5")}},
		{"unknown text", TextCondition{Operator: "like"}},
		{"last days", DateCondition{Operator: OpInLastNDays, Value: "-2"}},
		{"before garbage", DateCondition{Operator: OpBefore, Value: "soon"}},
		{"bad color", ColorScaleCondition{MinColor: "#000", MaxColor: "white"}},
	}

	s := NewRuleSet()
	for _, tt := range tests {
		_, err := s.Add(Rule{Range: address.Range{}, Condition: tt.cond})
		if !errors.Is(err, models.ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", tt.name, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("invalid rules were stored")
	}
}

func TestRuleSetMove(t *testing.T) {
	s := NewRuleSet()
	a, _ := s.Add(textRule("a"))
	b, _ := s.Add(textRule("b"))
	c, _ := s.Add(textRule("c"))

	if err := s.Move(c.ID, Up); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if got := labels(s.Rules()); got[0] != "a" || got[1] != "c" || got[2] != "b" {
		t.Errorf("order after move up = %v", got)
	}
	moved, _ := s.Rule(c.ID)
	if moved.Priority != 1 {
		t.Errorf("moved priority = %d, expected 1", moved.Priority)
	}

	// Boundaries are no-ops
	_ = s.Move(a.ID, Up)
	_ = s.Move(b.ID, Down)
	if got := labels(s.Rules()); got[0] != "a" || got[2] != "b" {
		t.Errorf("order after boundary moves = %v", got)
	}

	if err := s.Move("missing", Up); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestRuleSetUpdateAndRemove(t *testing.T) {
	s := NewRuleSet()
	a, _ := s.Add(textRule("a"))

	a.Label = "renamed"
	a.Range = address.Range{StartRow: 5, EndRow: 1}
	if err := s.Update(a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := s.Rule(a.ID)
	if got.Label != "renamed" || got.Range.StartRow != 1 {
		t.Errorf("updated rule = %+v", got)
	}

	if err := s.Remove(a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove(a.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestRuleJSONRoundTrip(t *testing.T) {
	two := decimal.NewFromInt(20)
	rules := []Rule{
		{
			ID:         "r1",
			Range:      address.Range{EndRow: 9, EndCol: 1},
			Condition:  NumericCondition{Operator: OpBetween, Value: decimal.NewFromInt(10), Value2: &two},
			Format:     Format{ClassName: "bold", Styles: models.Style{models.StyleColor: "#FF0000"}},
			StopIfTrue: true,
			Priority:   0,
			Label:      "10 to 20",
		},
		{ID: "r2", Condition: TextCondition{Operator: OpDuplicate}, Priority: 1},
		{ID: "r3", Condition: DateCondition{Operator: OpInLastNDays, Value: "7"}, Priority: 2},
		{ID: "r4", Condition: ColorScaleCondition{MinColor: "#000000", MaxColor: "#FFFFFF"}, Priority: 3},
	}

	s := NewRuleSet()
	if err := s.Replace(rules); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := NewRuleSet()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	got := out.Rules()
	if len(got) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(got))
	}
	first := got[0]
	cond, ok := first.Condition.(NumericCondition)
	if !ok || cond.Operator != OpBetween || !cond.Value.Equal(decimal.NewFromInt(10)) || cond.Value2 == nil || !cond.Value2.Equal(two) {
		t.Errorf("numeric condition = %+v", first.Condition)
	}
	if first.ID != "r1" || !first.StopIfTrue || first.Label != "10 to 20" || first.Format.Styles[models.StyleColor] != "#FF0000" {
		t.Errorf("rule = %+v", first)
	}
	if d, ok := got[2].Condition.(DateCondition); !ok || d.Value != "7" {
		t.Errorf("date condition = %+v", got[2].Condition)
	}
	if c, ok := got[3].Condition.(ColorScaleCondition); !ok || c.MaxColor != "#FFFFFF" {
		t.Errorf("color scale = %+v", got[3].Condition)
	}
}

func TestUnmarshalConditionAcceptsStringNumbers(t *testing.T) {
	c, err := UnmarshalCondition([]byte(`{"type":"numeric","operator":"topN","value":"3"}`))
	if err != nil {
		t.Fatalf("UnmarshalCondition failed: %v", err)
	}
	if n := c.(NumericCondition).Count(); n != 3 {
		t.Errorf("count = %d", n)
	}

	c, err = UnmarshalCondition([]byte(`{"type":"date","operator":"inNextNDays","value":5}`))
	if err != nil || c.(DateCondition).Value != "5" {
		t.Errorf("date condition = %+v, %v", c, err)
	}

	if _, err := UnmarshalCondition([]byte(`{"type":"formula"}`)); !errors.Is(err, models.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestReplaceAssignsMissingIDs(t *testing.T) {
	s := NewRuleSet()
	rule := textRule("x")
	rule.ID = "dup"
	if err := s.Replace([]Rule{rule, rule, textRule("y")}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	seen := map[string]bool{}
	for _, r := range s.Rules() {
		if r.ID == "" || seen[r.ID] {
			t.Errorf("id %q missing or repeated", r.ID)
		}
		seen[r.ID] = true
	}
}
