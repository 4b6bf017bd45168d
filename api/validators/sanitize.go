package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, folds runs of whitespace (including tabs and
// newlines pasted from spreadsheets) into a single space, drops control
// characters and truncates to maxLen runes when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	count := 0
	space := false
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if space && count > 0 {
			if maxLen > 0 && count >= maxLen {
				break
			}
			b.WriteRune(' ')
			count++
		}
		space = false
		if maxLen > 0 && count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}
