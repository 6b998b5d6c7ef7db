package condfmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// ErrRuleNotFound is returned when no rule has the given id.
var ErrRuleNotFound = errors.New("rule not found")

// Format is what a matching rule contributes to a cell.
type Format struct {
	ClassName string       `json:"className,omitempty"`
	Styles    models.Style `json:"styles,omitempty"`
}

// Rule is a conditional formatting rule scoped to a range.
type Rule struct {
	ID         string
	Range      address.Range
	Condition  Condition
	Format     Format
	StopIfTrue bool
	// Priority orders evaluation; lower values are evaluated first.
	Priority int
	Label    string
}

// Validate checks the condition and the range.
func (r Rule) Validate() error {
	if r.Condition == nil {
		return fmt.Errorf("%w: rule has no condition", models.ErrMalformedInput)
	}
	if err := r.Condition.Validate(); err != nil {
		return err
	}
	if !r.Range.Normalize().Valid() {
		return fmt.Errorf("%w: rule range %v", models.ErrMalformedInput, r.Range)
	}
	return nil
}

// Clone returns a copy of r that shares no maps or pointers with it.
func (r Rule) Clone() Rule {
	r.Format.Styles = r.Format.Styles.Clone()
	if c, ok := r.Condition.(NumericCondition); ok && c.Value2 != nil {
		v2 := *c.Value2
		c.Value2 = &v2
		r.Condition = c
	}
	return r
}

type ruleJSON struct {
	ID         string          `json:"id"`
	Range      address.Range   `json:"range"`
	Condition  json.RawMessage `json:"condition"`
	Format     Format          `json:"format"`
	StopIfTrue bool            `json:"stopIfTrue"`
	Priority   int             `json:"priority"`
	Label      string          `json:"label,omitempty"`
}

// MarshalJSON encodes the rule with a tagged condition.
func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Condition == nil {
		return nil, fmt.Errorf("rule %s has no condition", r.ID)
	}
	cond, err := MarshalCondition(r.Condition)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleJSON{
		ID:         r.ID,
		Range:      r.Range,
		Condition:  cond,
		Format:     r.Format,
		StopIfTrue: r.StopIfTrue,
		Priority:   r.Priority,
		Label:      r.Label,
	})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var w ruleJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	cond, err := UnmarshalCondition(w.Condition)
	if err != nil {
		return fmt.Errorf("rule %s: %w", w.ID, err)
	}
	*r = Rule{
		ID:         w.ID,
		Range:      w.Range.Normalize(),
		Condition:  cond,
		Format:     w.Format,
		StopIfTrue: w.StopIfTrue,
		Priority:   w.Priority,
		Label:      w.Label,
	}
	return nil
}

// Direction is a MoveRule direction.
type Direction int

const (
	// Up moves a rule toward earlier evaluation.
	Up Direction = iota
	// Down moves a rule toward later evaluation.
	Down
)

// RuleSet holds the rules of one sheet, kept in evaluation order.
type RuleSet struct {
	rules     []Rule
	seq       int
	listeners []func()
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{}
}

// OnChange registers fn to be called after every mutation.
func (s *RuleSet) OnChange(fn func()) {
	s.listeners = append(s.listeners, fn)
}

func (s *RuleSet) changed() {
	slices.SortStableFunc(s.rules, func(a, b Rule) int { return a.Priority - b.Priority })
	for _, fn := range s.listeners {
		fn()
	}
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns copies of the rules sorted ascending by priority.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Clone()
	}
	return out
}

// Rule returns the rule with the given id.
func (s *RuleSet) Rule(id string) (Rule, bool) {
	if i := s.index(id); i >= 0 {
		return s.rules[i].Clone(), true
	}
	return Rule{}, false
}

func (s *RuleSet) index(id string) int {
	return slices.IndexFunc(s.rules, func(r Rule) bool { return r.ID == id })
}

func (s *RuleSet) freshID() string {
	for {
		s.seq++
		id := fmt.Sprintf("rule-%d", s.seq)
		if s.index(id) < 0 {
			return id
		}
	}
}

// Add appends r with a fresh id and a priority equal to the current rule
// count. The stored rule is returned.
func (s *RuleSet) Add(r Rule) (Rule, error) {
	return s.AddAt(r, len(s.rules))
}

// AddAt adds r with a fresh id and an explicit priority.
func (s *RuleSet) AddAt(r Rule, priority int) (Rule, error) {
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	r = r.Clone()
	r.ID = s.freshID()
	r.Range = r.Range.Normalize()
	r.Priority = priority
	s.rules = append(s.rules, r)
	s.changed()
	return r.Clone(), nil
}

// Update replaces the rule with r.ID.
func (s *RuleSet) Update(r Rule) error {
	i := s.index(r.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, r.ID)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r = r.Clone()
	r.Range = r.Range.Normalize()
	s.rules[i] = r
	s.changed()
	return nil
}

// Remove deletes the rule with the given id.
func (s *RuleSet) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	s.changed()
	return nil
}

// Move swaps the priority of the rule with its neighbor in evaluation
// order. Moving past either end is a no-op.
func (s *RuleSet) Move(id string, dir Direction) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(s.rules) {
		return nil
	}
	s.rules[i].Priority, s.rules[j].Priority = s.rules[j].Priority, s.rules[i].Priority
	s.rules[i], s.rules[j] = s.rules[j], s.rules[i]
	s.changed()
	return nil
}

// Replace discards every rule and loads rules as given. Rules without an
// id, or whose id is already taken, get a fresh one. Invalid rules reject
// the whole load.
func (s *RuleSet) Replace(rules []Rule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	s.rules = s.rules[:0]
	for _, r := range rules {
		r = r.Clone()
		r.Range = r.Range.Normalize()
		if r.ID == "" || s.index(r.ID) >= 0 {
			r.ID = s.freshID()
		}
		s.rules = append(s.rules, r)
	}
	s.changed()
	return nil
}

// Clone returns a copy of s without its listeners.
func (s *RuleSet) Clone() *RuleSet {
	return &RuleSet{rules: s.Rules(), seq: s.seq}
}

// MarshalJSON encodes the rules in evaluation order.
func (s *RuleSet) MarshalJSON() ([]byte, error) {
	if s.rules == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.rules)
}

// UnmarshalJSON loads rules through Replace.
func (s *RuleSet) UnmarshalJSON(data []byte) error {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return err
	}
	return s.Replace(rules)
}
