// Package validate holds the format and length rules shared by the contact
// and recruiting intake flows. Validation runs on sanitized values; the
// sanitizer never lengthens a string, so the bounds here are authoritative.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxEmailLen = 254

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Local phone numbers: 2-3 digit area code, 3-4 digit exchange,
	// 4 digit subscriber number, hyphens optional.
	phoneRe = regexp.MustCompile(`^\d{2,3}-?\d{3,4}-?\d{4}$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Email reports whether s is a plausibly deliverable address. Both the
// shape check and the length cap must hold.
func Email(s string) bool {
	return len(s) <= maxEmailLen && emailRe.MatchString(s)
}

// Phone reports whether s looks like a local phone number. Internal
// whitespace is stripped before matching.
func Phone(s string) bool {
	return phoneRe.MatchString(spaceRe.ReplaceAllString(s, ""))
}

// Required returns the names in required whose value in fields is empty or
// absent, in the order given.
func Required(fields map[string]string, required []string) []string {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Bound is an inclusive length range for one field. Min 0 means no lower
// bound.
type Bound struct {
	Min, Max int
}

// Check returns a constraint-naming error when the value's length falls
// outside the bound, nil otherwise. Length is counted in runes, not bytes,
// so multibyte text is bounded the way users count it.
func (b Bound) Check(name, value string) error {
	n := utf8.RuneCountInString(value)
	if n < b.Min || n > b.Max {
		if b.Min > 0 {
			return fmt.Errorf("%s must be %d-%d characters", name, b.Min, b.Max)
		}
		return fmt.Errorf("%s must be at most %d characters", name, b.Max)
	}
	return nil
}

// Length bounds per flow, enforced post-sanitization.
var (
	NameBound     = Bound{Min: 2, Max: 50}
	SubjectBound  = Bound{Min: 5, Max: 100}
	MessageBound  = Bound{Min: 10, Max: 1000}
	IntroBound    = Bound{Max: 2000}
	PositionBound = Bound{Min: 2, Max: 100}
)
