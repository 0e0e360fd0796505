// Package htmlsanitize strips dangerous markup from user-authored rich text
// before it is stored. Notes and descriptions accept limited HTML; everything
// outside the allowlist is removed.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	return p
}

// Sanitize returns s with unsafe HTML removed. Safe formatting tags,
// links, and tables survive.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(s))
}

// Plain strips all markup, leaving text only. Used for fields that must
// never contain HTML, such as titles.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(s))
}
