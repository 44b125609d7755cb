package paystack

import (
	"regexp"
	"strings"
)

var (
	phoneLocalRe    = regexp.MustCompile(`^0[71]\d{8}$`)
	phoneShortRe    = regexp.MustCompile(`^7\d{8}$`)
	phoneIntlRe     = regexp.MustCompile(`^254\d{9}$`)
	phoneStripChars = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// NormalizeKenyanPhone converts user-entered Kenyan phone numbers to
// the international 2547XXXXXXXX form M-PESA charges require.
// Accepted inputs: 07XXXXXXXX, 7XXXXXXXX, +2547XXXXXXXX, 2547XXXXXXXX.
func NormalizeKenyanPhone(raw string) (string, bool) {
	s := phoneStripChars.Replace(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	s = strings.TrimPrefix(s, "+")

	switch {
	case phoneLocalRe.MatchString(s):
		return "254" + s[1:], true
	case phoneShortRe.MatchString(s):
		return "254" + s, true
	case phoneIntlRe.MatchString(s):
		return s, true
	default:
		return "", false
	}
}
