package address

import (
	"encoding/json"
	"testing"
)

func TestColumnToLetter(t *testing.T) {
	tests := []struct {
		index    int
		expected string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{16383, "XFD"},
	}

	for _, tt := range tests {
		result := ColumnToLetter(tt.index)
		if result != tt.expected {
			t.Errorf("ColumnToLetter(%d) = %q, expected %q", tt.index, result, tt.expected)
		}
	}
}

func TestColumnBijection(t *testing.T) {
	for col := 0; col < MaxColumns; col++ {
		got, err := LetterToColumn(ColumnToLetter(col))
		if err != nil {
			t.Fatalf("LetterToColumn(ColumnToLetter(%d)) failed: %v", col, err)
		}
		if got != col {
			t.Fatalf("LetterToColumn(ColumnToLetter(%d)) = %d", col, got)
		}
	}
}

func TestRangeA1RoundTrip(t *testing.T) {
	ranges := []Range{
		{0, 0, 0, 0},
		{0, 0, 9, 3},
		{4, 26, 100, 701},
		{16383, 16383, 16383, 16383},
	}

	for _, r := range ranges {
		text := RangeToA1(r)
		parsed, ok := ParseA1Range(text)
		if !ok {
			t.Errorf("ParseA1Range(%q) failed", text)
			continue
		}
		if parsed != r {
			t.Errorf("ParseA1Range(RangeToA1(%+v)) = %+v", r, parsed)
		}
	}
}

func TestParseA1Range(t *testing.T) {
	tests := []struct {
		input    string
		expected Range
		ok       bool
	}{
		{"A1:D10", Range{0, 0, 9, 3}, true},
		{"D10:A1", Range{0, 0, 9, 3}, true},
		{"$A$1:$D$10", Range{0, 0, 9, 3}, true},
		{"b2", Range{1, 1, 1, 1}, true},
		{"Sheet1!A1:B2", Range{0, 0, 1, 1}, true},
		{"'My Sheet'!$C$3:$A$1", Range{0, 0, 2, 2}, true},
		{"", Range{}, false},
		{"A1:B2:C3", Range{}, false},
		{"hello", Range{}, false},
		{"A0", Range{}, false},
	}

	for _, tt := range tests {
		result, ok := ParseA1Range(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseA1Range(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && result != tt.expected {
			t.Errorf("ParseA1Range(%q) = %+v, expected %+v", tt.input, result, tt.expected)
		}
	}
}

func TestParseQualifiedRange(t *testing.T) {
	sheet, rng, ok := ParseQualifiedRange("'Q1 Data'!A2:B3")
	if !ok || sheet != "Q1 Data" || rng != (Range{1, 0, 2, 1}) {
		t.Errorf("ParseQualifiedRange = %q %+v %v", sheet, rng, ok)
	}
}

func TestResolve(t *testing.T) {
	sel := Range{StartRow: 5, StartCol: 3, EndRow: 1, EndCol: 1}

	tests := []struct {
		name      string
		text      string
		selection *Range
		rows      int
		cols      int
		expected  Range
	}{
		{"parsed", "B2:C3", &sel, 10, 10, Range{1, 1, 2, 2}},
		{"selection", "not a range", &sel, 10, 10, Range{1, 1, 5, 3}},
		{"whole sheet", "", nil, 4, 3, Range{0, 0, 3, 2}},
		{"single cell", "", nil, 0, 0, Range{}},
	}

	for _, tt := range tests {
		result := Resolve(tt.text, tt.selection, tt.rows, tt.cols)
		if result != tt.expected {
			t.Errorf("%s: Resolve = %+v, expected %+v", tt.name, result, tt.expected)
		}
	}
}

func TestRangeIntersect(t *testing.T) {
	a := Range{0, 0, 4, 4}
	b := Range{3, 3, 8, 8}
	got, ok := a.Intersect(b)
	if !ok || got != (Range{3, 3, 4, 4}) {
		t.Errorf("Intersect = %+v %v", got, ok)
	}
	if _, ok := a.Intersect(Range{5, 5, 6, 6}); ok {
		t.Errorf("expected disjoint ranges")
	}
}

func TestKeyJSON(t *testing.T) {
	in := map[Key]string{{Row: 2, Col: 7}: "x"}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"2-7":"x"}` {
		t.Errorf("Marshal = %s", data)
	}

	var out map[Key]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out[Key{Row: 2, Col: 7}] != "x" {
		t.Errorf("Unmarshal = %v", out)
	}

	if _, err := ParseKey("2-x"); err == nil {
		t.Errorf("expected error for malformed key")
	}
}
