package wtwmi

import "strings"

// quoteWQL returns s as a quoted WQL string literal. WQL uses
// backslash as its escape character, so the backslashes in Windows
// paths must be doubled before they can appear in a WHERE clause.
func quoteWQL(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`)
	return "'" + r.Replace(s) + "'"
}
