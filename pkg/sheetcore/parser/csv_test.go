package parser

import (
	"context"
	"testing"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected [][]models.Value
	}{
		{
			name:  "comma",
			input: []byte("name,qty\nbolt,12\n"),
			expected: [][]models.Value{
				{models.Text("name"), models.Text("qty")},
				{models.Text("bolt"), models.Number(12)},
			},
		},
		{
			name:  "semicolon with quoted comma",
			input: []byte("\"a,b\";c;d\n1;2;3\n"),
			expected: [][]models.Value{
				{models.Text("a,b"), models.Text("c"), models.Text("d")},
				{models.Number(1), models.Number(2), models.Number(3)},
			},
		},
		{
			name:  "tab",
			input: []byte("x\ty\n=A2+1\t2.5\n"),
			expected: [][]models.Value{
				{models.Text("x"), models.Text("y")},
				{models.Formula("=A2+1"), models.Number(2.5)},
			},
		},
		{
			name:     "byte order mark",
			input:    []byte("\xEF\xBB\xBFid\n"),
			expected: [][]models.Value{{models.Text("id")}},
		},
		{
			name:     "windows-1252",
			input:    []byte("caf\xE9\n"),
			expected: [][]models.Value{{models.Text("café")}},
		},
		{
			name:  "ragged rows",
			input: []byte("a,b,c\nd\n"),
			expected: [][]models.Value{
				{models.Text("a"), models.Text("b"), models.Text("c")},
				{models.Text("d"), models.Empty(), models.Empty()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ReadCSV(context.Background(), tt.input, Options{})
			if err != nil {
				t.Fatalf("ReadCSV failed: %v", err)
			}
			s := w.Active()
			if s.Name != "Sheet1" {
				t.Errorf("Expected sheet name 'Sheet1', got %q", s.Name)
			}
			for r, row := range tt.expected {
				for c, want := range row {
					if got := s.Grid.Value(key(r, c)); !got.Equal(want) {
						t.Errorf("Cell %s: expected %v, got %v", key(r, c).A1(), want, got)
					}
				}
			}
		})
	}
}

func TestReadCSVSheetName(t *testing.T) {
	w, err := ReadCSV(context.Background(), []byte("1\n"), Options{SheetName: "Import"})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if got := w.Active().Name; got != "Import" {
		t.Errorf("Expected 'Import', got %q", got)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line     string
		expected rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb", '\t'},
		{"\"x;y;z\",b", ','},
		{"a;b,c", ','},
		{"single", ','},
	}

	for _, tt := range tests {
		if got := sniffDelimiter([]byte(tt.line + "\nrest;rest;rest")); got != tt.expected {
			t.Errorf("sniffDelimiter(%q) = %q, expected %q", tt.line, got, tt.expected)
		}
	}
}
