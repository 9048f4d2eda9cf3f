package mailer

import (
	"regexp"
	"strings"
)

// Template variables substitutable in subjects and bodies. Anything outside
// this set renders empty, which keeps event-editable templates from reaching
// into arbitrary data.
var allowedVars = map[string]struct{}{
	"event_name":    {},
	"user_name":     {},
	"order_id":      {},
	"amount":        {},
	"deadline_date": {},
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes {{ name }} placeholders from vars. Unknown or
// disallowed names render as the empty string.
func Render(text string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(strings.Trim(match, "{}"))
		if _, ok := allowedVars[name]; !ok {
			return ""
		}
		return vars[name]
	})
}
