package grid

import (
	"strings"

	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"mvdan.cc/xurls/v2"
)

var (
	rxStrict  = xurls.Strict()
	rxRelaxed = xurls.Relaxed()
)

// linkSchemes are the schemes kept as written.
var linkSchemes = []string{"http://", "https://", "mailto:"}

// DetectLink returns the URL a cell's text points at. The whole trimmed
// text must be the link: explicit http(s):// and mailto: links are kept as
// written, www.-prefixed and bare-domain text gets an https:// scheme.
func DetectLink(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if rxStrict.FindString(text) == text {
		lower := strings.ToLower(text)
		for _, scheme := range linkSchemes {
			if strings.HasPrefix(lower, scheme) {
				return text, true
			}
		}
		return "", false
	}
	// Bare e-mail addresses need an explicit mailto:.
	if rxRelaxed.FindString(text) == text && !strings.Contains(text, "@") {
		return "https://" + text, true
	}
	return "", false
}

// ScanLinks refreshes auto-detected links for the text cells of r.
// User-set links are never replaced, and auto links whose text no longer
// matches are removed. It returns the number of links added, changed or removed.
func (g *Grid) ScanLinks(r address.Range) (int, error) {
	r, err := checkRange(r)
	if err != nil {
		return 0, err
	}
	bounds, ok := g.Range()
	if !ok {
		return 0, nil
	}
	r, ok = r.Intersect(bounds)
	if !ok {
		return 0, nil
	}

	changed := 0
	err = g.Batch(func(tx *Tx) error {
		r.Each(func(k address.Key) {
			existing, has := g.links[k]
			if has && !existing.Auto {
				return
			}
			v := g.values[k]
			url, found := "", false
			if v.Kind == models.KindText {
				url, found = DetectLink(v.Text)
			}
			switch {
			case found && (!has || existing.URL != url):
				tx.SetLink(k, models.Link{URL: url, Auto: true})
				changed++
			case !found && has:
				tx.RemoveLink(k)
				changed++
			}
		})
		return tx.Err()
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
