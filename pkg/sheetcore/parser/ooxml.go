package parser

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// readZipFile returns the content of name, or nil when the archive has no
// such entry.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

// readElementText collects the character data up to the end of the current element.
func readElementText(decoder *xml.Decoder) (string, error) {
	var text strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text.String(), err
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text.String(), nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func attrInt(se xml.StartElement, local string) int64 {
	v, err := strconv.ParseInt(attr(se, local), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// resolveRelativePath resolves a relationship target against the part
// directory it was declared in.
func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "../") {
		clean := target
		for strings.HasPrefix(clean, "../") {
			clean = strings.TrimPrefix(clean, "../")
		}
		return "xl/" + clean
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return baseDir + "/" + target
}

// relsPath returns the relationships part of a part path, for example
// xl/worksheets/sheet1.xml -> xl/worksheets/_rels/sheet1.xml.rels.
func relsPath(partPath string) string {
	dir, file := "", partPath
	if i := strings.LastIndex(partPath, "/"); i >= 0 {
		dir, file = partPath[:i+1], partPath[i+1:]
	}
	return dir + "_rels/" + file + ".rels"
}

// relationship is one Relationship entry of a .rels part.
type relationship struct {
	id, target, relType string
}

func parseRels(data []byte) []relationship {
	var result []relationship
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			result = append(result, relationship{
				id:      attr(se, "Id"),
				target:  attr(se, "Target"),
				relType: attr(se, "Type"),
			})
		}
	}
	return result
}

// parseWorkbookSheets maps relationship ids to sheet names.
func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			name, rID := attr(se, "name"), attr(se, "id")
			if name != "" && rID != "" {
				result[rID] = name
			}
		}
	}
	return result
}

// parseWorkbookRels maps sheet names to their worksheet part paths.
func parseWorkbookRels(data []byte, sheetsInfo map[string]string) map[string]string {
	result := make(map[string]string)
	for _, rel := range parseRels(data) {
		if sheetName, ok := sheetsInfo[rel.id]; ok && strings.Contains(strings.ToLower(rel.target), "worksheet") {
			result[sheetName] = resolveRelativePath(rel.target, "xl")
		}
	}
	return result
}

// findDrawingRelationship returns the drawing target of a worksheet, or "".
func findDrawingRelationship(data []byte) string {
	for _, rel := range parseRels(data) {
		if strings.HasSuffix(strings.ToLower(rel.relType), "/drawing") {
			return rel.target
		}
	}
	return ""
}
