package category

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize turns user-typed category names into the stored form: single-spaced and
// title-cased, so "ola  CABS" becomes "Ola Cabs".
func Normalize(name string) string {
	// a Caser is stateful, so each call gets its own
	return cases.Title(language.Und).String(strings.ToLower(strings.Join(strings.Fields(name), " ")))
}
