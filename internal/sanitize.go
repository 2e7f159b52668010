package intake

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Sanitize strips anything that looks like an HTML tag and trims surrounding
// whitespace. This is a best-effort cleanup for email bodies, not a
// security-grade HTML sanitizer: entities are not decoded and unterminated
// tags survive. Treat the output as plain text only.
func Sanitize(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(tagPattern.ReplaceAllString(value, ""))
}
