package writer

import (
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/xuri/excelize/v2"
)

// writeDropdowns adds one list validation per distinct option list.
func (w *sheetWriter) writeDropdowns() error {
	groups := make(map[string][]address.Key)
	options := make(map[string][]string)
	for k, cm := range w.sheet.Grid.Meta() {
		if cm.Type != models.TypeDropdown || len(cm.Source) == 0 {
			continue
		}
		id := strings.Join(cm.Source, "\x00")
		groups[id] = append(groups[id], k)
		options[id] = cm.Source
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		dv := excelize.NewDataValidation(true)
		dv.Sqref = sqref(groups[id])
		if err := dv.SetDropList(options[id]); err != nil {
			w.log.WithFields(logrus.Fields{"sqref": dv.Sqref}).WithError(err).Warn("dropdown list not written natively")
			continue
		}
		if err := w.f.AddDataValidation(w.name, dv); err != nil {
			return err
		}
	}
	return nil
}

// sqref joins keys into a space-separated reference list, merging vertical
// runs of cells in the same column.
func sqref(keys []address.Key) string {
	slices.SortFunc(keys, func(a, b address.Key) int {
		if a.Col != b.Col {
			return a.Col - b.Col
		}
		return a.Row - b.Row
	})
	var refs []string
	for i := 0; i < len(keys); {
		j := i
		for j+1 < len(keys) && keys[j+1].Col == keys[i].Col && keys[j+1].Row == keys[j].Row+1 {
			j++
		}
		refs = append(refs, address.RangeToA1(address.Range{
			StartRow: keys[i].Row, StartCol: keys[i].Col,
			EndRow: keys[j].Row, EndCol: keys[j].Col,
		}))
		i = j + 1
	}
	return strings.Join(refs, " ")
}
