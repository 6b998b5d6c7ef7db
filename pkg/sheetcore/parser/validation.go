package parser

import (
	"html"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/xuri/excelize/v2"
)

// readDropdowns returns the option lists of list validations, per cell,
// clipped to bounds. Lists that refer to cells instead of holding quoted
// literals are logged and skipped.
func readDropdowns(f *excelize.File, sheet string, bounds address.Range, log *logrus.Entry) map[address.Key][]string {
	dvs, err := f.GetDataValidations(sheet)
	if err != nil {
		log.WithError(err).Warn("data validations not read")
		return nil
	}

	out := make(map[address.Key][]string)
	for _, dv := range dvs {
		if dv == nil || dv.Type != "list" {
			continue
		}
		options, ok := listLiteral(dv.Formula1)
		if !ok {
			log.WithFields(logrus.Fields{"sqref": dv.Sqref, "formula": dv.Formula1}).
				Warn("list validation is not a literal list, skipped")
			continue
		}
		for _, ref := range strings.Fields(dv.Sqref) {
			rng, ok := address.ParseA1Range(ref)
			if !ok {
				continue
			}
			if rng, ok = rng.Intersect(bounds); !ok {
				continue
			}
			rng.Each(func(k address.Key) {
				out[k] = options
			})
		}
	}
	return out
}

// listLiteral parses a quoted literal list such as "a,b,c". The formula
// may still carry its XML element wrapper.
func listLiteral(formula string) ([]string, bool) {
	s := strings.TrimSpace(formula)
	s = strings.TrimPrefix(s, "<formula1>")
	s = strings.TrimSuffix(s, "</formula1>")
	s = strings.TrimSpace(html.UnescapeString(s))
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return nil, false
	}
	s = strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	options := []string{}
	for _, opt := range strings.Split(s, ",") {
		if opt != "" {
			options = append(options, opt)
		}
	}
	return options, true
}
