package patients

import (
	"regexp"
	"strings"
)

// mobilePattern is the regional rule: exactly ten digits, leading digit 6-9.
var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// NormalizeMobile strips formatting and an optional country prefix, then
// validates the remaining ten digits. Accepted prefixes: "+91", "91" on a
// twelve-digit value, and a single leading "0".
func NormalizeMobile(value string) (string, error) {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			// formatting characters are ignored
		default:
			return "", ErrInvalidMobile
		}
	}

	s := digits.String()
	switch {
	case len(s) == 12 && strings.HasPrefix(s, "91"):
		s = s[2:]
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		s = s[1:]
	}

	if !mobilePattern.MatchString(s) {
		return "", ErrInvalidMobile
	}
	return s, nil
}
