// FILE: pkg/rag/sanitize/sanitize.go
// PURPOSE: Strip prompt-injection patterns from retrieved evidence text

package sanitize

import (
	"regexp"
)

// FilteredMarker replaces matched injection content in the evidence text.
const FilteredMarker = "[필터링된 내용]"

// injectionPatterns cover instruction overrides, role reassignment, and fake
// system-turn markers, in English and Korean. Matching is case-insensitive.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(the\s+)?(previous|above|earlier)\s+\w+`),
	regexp.MustCompile(`(?i)forget\s+(everything|all)\s+(above|before)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+[^.\n]{1,60}`),
	regexp.MustCompile(`(?i)act\s+as\s+(a|an)\s+[^.\n]{1,60}`),
	regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
	regexp.MustCompile(`(?i)^\s*system\s*:`),
	regexp.MustCompile(`(?i)\[\s*system\s*\]`),
	regexp.MustCompile(`(?i)<\|?\s*(system|im_start)\s*\|?>`),
	regexp.MustCompile(`이전\s*지시(사항)?(를|을|은|는)?\s*무시`),
	regexp.MustCompile(`지금부터\s*너는`),
	regexp.MustCompile(`새로운\s*역할`),
}

// Sanitize replaces every injection-pattern match in the evidence text with
// the filtered-content marker. It never rejects: text with no matching
// pattern is returned unchanged.
func Sanitize(text string) string {
	for _, pattern := range injectionPatterns {
		text = pattern.ReplaceAllString(text, FilteredMarker)
	}
	return text
}
