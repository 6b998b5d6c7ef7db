package formula

import (
	"fmt"
	"strings"
)

// MaxSheetName is the container's sheet name length limit, in characters.
const MaxSheetName = 31

var invalidSheetChars = strings.NewReplacer(":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// ContainerNames returns a valid, case-insensitively unique container name
// for each of names, in order. reserved is never handed out.
func ContainerNames(names []string, reserved string) []string {
	used := make(map[string]bool)
	if reserved != "" {
		used[strings.ToLower(reserved)] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		base := strings.TrimSpace(strings.Trim(invalidSheetChars.Replace(n), "'"))
		if base == "" {
			base = fmt.Sprintf("Sheet%d", i+1)
		}
		base = truncate(base, MaxSheetName)
		name := base
		for c := 2; used[strings.ToLower(name)]; c++ {
			suffix := fmt.Sprintf(" (%d)", c)
			name = truncate(base, MaxSheetName-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

// Renames maps each name that ContainerNames changed to its container
// name. With repeated names the first occurrence wins.
func Renames(names, containers []string) map[string]string {
	rename := make(map[string]string)
	seen := make(map[string]bool)
	for i, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if n != containers[i] {
			rename[n] = containers[i]
		}
	}
	return rename
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// QuoteSheet returns name as a quoted sheet prefix, without the "!".
func QuoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// sheetPrefix returns name as written before "!", quoted when needed.
func sheetPrefix(name string) string {
	if name == "" || ('0' <= name[0] && name[0] <= '9') {
		return QuoteSheet(name)
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return QuoteSheet(name)
		}
	}
	return name
}

// RenameSheets rewrites the sheet prefixes of formula that appear in
// rename. Text inside string literals is left alone. Rewritten prefixes
// are quoted only when the new name needs it.
func RenameSheets(formula string, rename map[string]string) string {
	if len(rename) == 0 || !strings.Contains(formula, "!") {
		return formula
	}
	var b strings.Builder
	for i := 0; i < len(formula); {
		c := formula[i]
		switch {
		case c == '"':
			j := endOfString(formula, i)
			b.WriteString(formula[i:j])
			i = j
		case c == '\'':
			name, j := quotedName(formula, i)
			if to, ok := rename[name]; ok && j < len(formula) && formula[j] == '!' {
				b.WriteString(sheetPrefix(to))
			} else {
				b.WriteString(formula[i:j])
			}
			i = j
		case isNameByte(c):
			j := i
			for j < len(formula) && isNameByte(formula[j]) {
				j++
			}
			if to, ok := rename[formula[i:j]]; ok && j < len(formula) && formula[j] == '!' {
				b.WriteString(sheetPrefix(to))
			} else {
				b.WriteString(formula[i:j])
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// endOfString returns the index just past the string literal opening at i.
// A doubled quote is an escaped quote.
func endOfString(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != '"' {
			continue
		}
		if j+1 < len(s) && s[j+1] == '"' {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

// quotedName reads the quoted sheet name opening at i and returns it
// unescaped with the index just past the closing quote.
func quotedName(s string, i int) (string, int) {
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		if s[j] != '\'' {
			b.WriteByte(s[j])
			continue
		}
		if j+1 < len(s) && s[j+1] == '\'' {
			b.WriteByte('\'')
			j++
			continue
		}
		return b.String(), j + 1
	}
	return "", len(s)
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
