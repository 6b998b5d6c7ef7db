package writer

import (
	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/formula"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
)

// containerNames returns the container name of each sheet and logs every
// rewritten one. The metadata sheet name is reserved. The payload keeps
// the original names, so decoding restores them.
func containerNames(sheets []*workbook.Sheet, metaName string, log *logrus.Logger) []string {
	original := sheetNames(sheets)
	names := formula.ContainerNames(original, metaName)
	for i, name := range names {
		if name != original[i] {
			log.WithFields(logrus.Fields{"sheet": original[i], "container": name}).
				Warn("sheet name rewritten for the container")
		}
	}
	return names
}

func sheetNames(sheets []*workbook.Sheet) []string {
	out := make([]string, len(sheets))
	for i, s := range sheets {
		out[i] = s.Name
	}
	return out
}
