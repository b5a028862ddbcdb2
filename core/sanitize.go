package core

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeHTML keeps the safe subset of user-generated HTML.
func SanitizeHTML(s string) string {
	return CleanString(ugcPolicy.Sanitize(s))
}

// StripHTML removes every tag from s.
func StripHTML(s string) string {
	return CleanString(html.UnescapeString(strictPolicy.Sanitize(s)))
}
