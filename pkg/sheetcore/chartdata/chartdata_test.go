package chartdata

import (
	"errors"
	"testing"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

type table [][]models.Value

func (t table) Bounds() (int, int) {
	if len(t) == 0 {
		return 0, 0
	}
	return len(t), len(t[0])
}

func (t table) Value(k address.Key) models.Value {
	if k.Row < 0 || k.Row >= len(t) || k.Col < 0 || k.Col >= len(t[k.Row]) {
		return models.Value{}
	}
	return t[k.Row][k.Col]
}

func TestExtract(t *testing.T) {
	src := table{
		{models.Text("Month"), models.Text("Sales"), models.Empty()},
		{models.Text("Jan"), models.Number(10), models.Text("3.5")},
		{models.Empty(), models.Text("n/a"), models.Number(4)},
	}

	data, err := Extract(src, address.Range{EndRow: 2, EndCol: 2}, 0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	expectedCategories := []string{"Jan", "Row 2"}
	if len(data.Categories) != len(expectedCategories) {
		t.Fatalf("categories = %v", data.Categories)
	}
	for i, c := range expectedCategories {
		if data.Categories[i] != c {
			t.Errorf("category %d = %q, expected %q", i, data.Categories[i], c)
		}
	}

	if len(data.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(data.Series))
	}
	if data.Series[0].Name != "Sales" || data.Series[1].Name != "Series 2" {
		t.Errorf("series names = %q, %q", data.Series[0].Name, data.Series[1].Name)
	}
	if v := data.Series[0].Values; v[0] != 10 || v[1] != 0 {
		t.Errorf("Sales values = %v", v)
	}
	if v := data.Series[1].Values; v[0] != 3.5 || v[1] != 4 {
		t.Errorf("second series values = %v", v)
	}
}

func TestExtractCategoryColumnOffset(t *testing.T) {
	src := table{
		{models.Empty(), models.Text("A"), models.Text("Cat")},
		{models.Empty(), models.Number(1), models.Text("x")},
	}
	// Range starts at column 1, so offset 1 is sheet column 2
	data, err := Extract(src, address.Range{StartCol: 1, EndRow: 1, EndCol: 2}, 1)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(data.Series) != 1 || data.Series[0].Name != "A" || data.Categories[0] != "x" {
		t.Errorf("data = %+v", data)
	}
}

func TestExtractRejectsBadCategoryColumn(t *testing.T) {
	_, err := Extract(table{}, address.Range{EndRow: 1, EndCol: 1}, 2)
	if !errors.Is(err, models.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestExtractHeaderOnly(t *testing.T) {
	src := table{{models.Text("x"), models.Text("y")}}
	data, err := Extract(src, address.Range{EndCol: 1}, 0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(data.Categories) != 0 || len(data.Series) != 1 || len(data.Series[0].Values) != 0 {
		t.Errorf("data = %+v", data)
	}
}
