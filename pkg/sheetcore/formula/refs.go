package formula

import (
	"slices"
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/xuri/efp"
)

// Reference is a cell or range operand of a formula.
type Reference struct {
	// Sheet is the unquoted sheet prefix, or "" for same-sheet references.
	Sheet string
	// Text is the operand as written.
	Text string
	// Range is the parsed rectangle. Whole-column and whole-row references
	// leave it unset.
	Range address.Range
	// Parsed reports whether Range is set.
	Parsed bool
}

// References tokenizes a formula, with or without its leading "=", and
// returns its range operands in order.
func References(formula string) []Reference {
	ps := efp.ExcelParser()
	tokens := ps.Parse(strings.TrimPrefix(formula, "="))

	var refs []Reference
	for _, token := range tokens {
		if token.TType != efp.TokenTypeOperand || token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		ref := Reference{Text: token.TValue}
		sheet, rng, ok := address.ParseQualifiedRange(token.TValue)
		if ok {
			ref.Sheet, ref.Range, ref.Parsed = sheet, rng, true
		} else if idx := strings.LastIndex(token.TValue, "!"); idx >= 0 {
			ref.Sheet = strings.Trim(token.TValue[:idx], "'")
		}
		refs = append(refs, ref)
	}
	return refs
}

// MissingSheets returns the sheet names referenced by formula that are not
// in known, in first-seen order.
func MissingSheets(formula string, known []string) []string {
	var missing []string
	for _, ref := range References(formula) {
		if ref.Sheet == "" || slices.Contains(known, ref.Sheet) || slices.Contains(missing, ref.Sheet) {
			continue
		}
		missing = append(missing, ref.Sheet)
	}
	return missing
}
