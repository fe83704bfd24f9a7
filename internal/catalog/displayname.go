package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveDisplayName builds a presentable name from an asset identifier when
// the catalog did not supply one. The prefix (usually the URN namespace) is
// stripped, separators collapse to spaces, and the remainder is title-cased.
func DeriveDisplayName(id, prefix string) string {
	base := strings.TrimPrefix(strings.TrimSpace(id), prefix)
	if base == "" {
		return "Unknown Asset"
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ':':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if name == "" {
		return "Unknown Asset"
	}
	return cases.Title(language.Und).String(name)
}
