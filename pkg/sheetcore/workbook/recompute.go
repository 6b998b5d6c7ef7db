package workbook

import (
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/condfmt"
)

// AutoRecompute requests an overlay recomputation of the active sheet now
// and after every data change, rule change or sheet switch that concerns
// it. The returned function stops listening.
func AutoRecompute(w *Workbook, rec *condfmt.Recomputer) (stop func(), err error) {
	request := func() error {
		s := w.Active()
		snap, err := s.Grid.Clone()
		if err != nil {
			return err
		}
		rec.Request(snap, s.Rules.Rules())
		return nil
	}
	if err := request(); err != nil {
		return nil, err
	}
	return w.Bus.Subscribe(func(e Event) {
		if e.Type == SheetSwitched || e.SheetID == w.Active().ID {
			// A clone only fails on a corrupt grid; the next event retries.
			_ = request()
		}
	}), nil
}
