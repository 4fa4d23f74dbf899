package textutil

import (
	"strings"
	"unicode/utf8"
)

// PreviewLength is the number of runes of post content shown in log lines.
const PreviewLength = 30

// Preview returns the first limit runes of text on a single line. Runs of
// whitespace, including newlines, collapse to one space. "..." is appended
// when text was cut.
func Preview(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(flat) <= limit {
		return flat
	}
	runes := []rune(flat)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
