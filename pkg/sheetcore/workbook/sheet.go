package workbook

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/condfmt"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/grid"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// ErrChartNotFound is returned when no chart has the given id.
var ErrChartNotFound = errors.New("chart not found")

// Sheet is one named grid with its rules and charts.
type Sheet struct {
	// ID is stable for the sheet's lifetime. Names may repeat; ids do not.
	ID    string
	Name  string
	Grid  *grid.Grid
	Rules *condfmt.RuleSet

	charts   []models.Chart
	onCharts func()
}

// NewSheet returns an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{
		ID:    newID("sheet"),
		Name:  name,
		Grid:  grid.New(0, 0),
		Rules: condfmt.NewRuleSet(),
	}
}

var idSeq atomic.Uint64

// newID returns prefix followed by a random UUID. If the random source
// fails the UUID is derived from a process-wide sequence instead.
func newID(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, strconv.AppendUint(nil, idSeq.Add(1), 10))
	}
	return prefix + "-" + id.String()
}

// Charts returns copies of the sheet's charts.
func (s *Sheet) Charts() []models.Chart {
	return slices.Clone(s.charts)
}

// Chart returns the chart with the given id.
func (s *Sheet) Chart(id string) (models.Chart, bool) {
	if i := s.chartIndex(id); i >= 0 {
		return s.charts[i], true
	}
	return models.Chart{}, false
}

func (s *Sheet) chartIndex(id string) int {
	return slices.IndexFunc(s.charts, func(c models.Chart) bool { return c.ID == id })
}

func (s *Sheet) chartsChanged() {
	if s.onCharts != nil {
		s.onCharts()
	}
}

// AddChart validates c and appends it with a fresh id.
func (s *Sheet) AddChart(c models.Chart) (models.Chart, error) {
	c.ID = newID("chart")
	c.DataRange = c.DataRange.Normalize()
	if err := c.Validate(); err != nil {
		return models.Chart{}, err
	}
	s.charts = append(s.charts, c)
	s.chartsChanged()
	return c, nil
}

// UpdateChart replaces the chart with c.ID.
func (s *Sheet) UpdateChart(c models.Chart) error {
	i := s.chartIndex(c.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrChartNotFound, c.ID)
	}
	c.DataRange = c.DataRange.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}
	s.charts[i] = c
	s.chartsChanged()
	return nil
}

// RemoveChart deletes the chart with the given id.
func (s *Sheet) RemoveChart(id string) error {
	i := s.chartIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrChartNotFound, id)
	}
	s.charts = slices.Delete(s.charts, i, i+1)
	s.chartsChanged()
	return nil
}

// SetCharts replaces every chart. Charts keep their ids; missing or
// repeated ids are regenerated.
func (s *Sheet) SetCharts(charts []models.Chart) error {
	seen := make(map[string]bool, len(charts))
	out := make([]models.Chart, 0, len(charts))
	for _, c := range charts {
		if c.ID == "" || seen[c.ID] {
			c.ID = newID("chart")
		}
		seen[c.ID] = true
		c.DataRange = c.DataRange.Normalize()
		if err := c.Validate(); err != nil {
			return err
		}
		out = append(out, c)
	}
	s.charts = out
	s.chartsChanged()
	return nil
}

// clone deep-copies s under a new id and name. Chart ids are regenerated so
// they stay unique across the workbook.
func (s *Sheet) clone(name string) (*Sheet, error) {
	g, err := s.Grid.Clone()
	if err != nil {
		return nil, err
	}
	var charts []models.Chart
	if err := deepcopy.Copy(&charts, &s.charts); err != nil {
		return nil, fmt.Errorf("copy charts: %w", err)
	}
	for i := range charts {
		charts[i].ID = newID("chart")
	}
	return &Sheet{
		ID:     newID("sheet"),
		Name:   name,
		Grid:   g,
		Rules:  s.Rules.Clone(),
		charts: charts,
	}, nil
}
