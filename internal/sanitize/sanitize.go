// Package sanitize neutralizes untrusted free-text form input before it is
// validated, stored, or rendered into notification mail. It defeats naive tag
// and script injection; output encoding remains the renderer's job.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFieldLen caps every sanitized field value.
const MaxFieldLen = 1000

var (
	jsSchemeRe = regexp.MustCompile(`(?i)javascript:`)
	// Inline event handler attributes, e.g. onclick= / ONLOAD =.
	eventAttrRe = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// Clean trims, strips angle brackets, removes javascript: URIs and inline
// event-handler attributes, and truncates to MaxFieldLen. Total over all
// strings and idempotent: Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")

	// Removal can splice a new occurrence together ("javajavascript:script:"),
	// so repeat until the value stops changing.
	for {
		next := jsSchemeRe.ReplaceAllString(s, "")
		next = eventAttrRe.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}

	// Truncate on rune boundaries so multibyte input never yields invalid
	// UTF-8.
	if utf8.RuneCountInString(s) > MaxFieldLen {
		s = string([]rune(s)[:MaxFieldLen])
	}
	return strings.TrimSpace(s)
}

// CleanAll applies Clean to every value in fields, returning a new map.
func CleanAll(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = Clean(v)
	}
	return out
}
