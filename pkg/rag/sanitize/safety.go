// FILE: pkg/rag/sanitize/safety.go
// PURPOSE: Screen generated answers for sensitive-topic categories

package sanitize

import (
	"regexp"
)

// safetyCategories maps a category name to its detection patterns. The
// screen is advisory: it annotates the turn state and the debug trace but
// never blocks an answer.
var safetyCategories = map[string][]*regexp.Regexp{
	"self_harm": {
		regexp.MustCompile(`자살`),
		regexp.MustCompile(`자해`),
		regexp.MustCompile(`극단적\s*선택`),
		regexp.MustCompile(`(?i)suicide`),
		regexp.MustCompile(`(?i)self[-\s]?harm`),
	},
	"violence_abuse": {
		regexp.MustCompile(`폭행`),
		regexp.MustCompile(`학대`),
		regexp.MustCompile(`살인`),
		regexp.MustCompile(`(?i)\babuse\b`),
		regexp.MustCompile(`(?i)\bviolence\b`),
	},
}

// ScreenAnswer pattern-scans a draft answer. It returns a pass flag and the
// sorted-stable list of matched categories.
func ScreenAnswer(draft string) (bool, []string) {
	var matched []string
	// Fixed iteration order keeps the category list deterministic.
	for _, category := range []string{"self_harm", "violence_abuse"} {
		for _, pattern := range safetyCategories[category] {
			if pattern.MatchString(draft) {
				matched = append(matched, category)
				break
			}
		}
	}
	return len(matched) == 0, matched
}
