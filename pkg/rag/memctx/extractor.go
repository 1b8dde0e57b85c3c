// FILE: pkg/rag/memctx/extractor.go
// PURPOSE: Derive a lightweight cross-turn memory summary from recent history

package memctx

import (
	"regexp"
	"strings"

	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/state"
	"survey-chat-be/pkg/store"
)

// How many recent messages are scanned for memory signals.
const window = 8

var namePattern = regexp.MustCompile(`(?:내|제)\s*이름은\s*([가-힣A-Za-z]{1,12})`)

// nameSuffixes are copula/particle endings stripped from a captured name,
// longest first. Only whole suffixes are removed, so a name whose final
// syllable happens to be a particle character ("지은") is left intact.
var nameSuffixes = []string{"이에요", "입니다", "이라고", "예요", "이야", "라고", "야"}

// Extractor derives a MemorySnapshot from conversation history. It never
// calls a model; everything is pattern-based so it cannot fail a turn.
type Extractor struct {
	classifier *classify.Classifier
}

func NewExtractor(classifier *classify.Classifier) *Extractor {
	return &Extractor{classifier: classifier}
}

// Extract scans the most recent messages, newest last. Later mentions win:
// the snapshot reflects the latest topic, cohort, and years the user brought
// up, plus a user-declared name anywhere in the window.
func (e *Extractor) Extract(history []store.Message) state.MemorySnapshot {
	var snap state.MemorySnapshot

	start := 0
	if len(history) > window {
		start = len(history) - window
	}

	for _, msg := range history[start:] {
		if m := namePattern.FindStringSubmatch(msg.Content); m != nil {
			snap.UserName = trimNameSuffix(m[1])
		}

		if msg.Role != "user" {
			continue
		}

		if e.classifier.HasDomainKeyword(msg.Content) {
			snap.LastTopic = firstDomainKeyword(e.classifier, msg.Content)
		}
		if cohort := e.classifier.MatchCohort(msg.Content); cohort != "" {
			snap.LastCohort = cohort
		}
		if years := e.classifier.ExtractYears(msg.Content); len(years) > 0 {
			snap.LastYears = years
		}
	}

	return snap
}

func trimNameSuffix(name string) string {
	for _, suffix := range nameSuffixes {
		trimmed := strings.TrimSuffix(name, suffix)
		if trimmed != name && len([]rune(trimmed)) >= 2 {
			return trimmed
		}
	}
	return name
}

// firstDomainKeyword picks the topic keyword for the memory snapshot. Cohort
// terms are tracked separately as LastCohort and must not double as the
// topic, or follow-up resolution would glue the old cohort onto the new one.
func firstDomainKeyword(c *classify.Classifier, text string) string {
	cohorts := c.Table().Cohorts

	best := ""
	bestIdx := -1
	for _, kw := range c.Table().DomainKeywords {
		if _, isCohort := cohorts[kw]; isCohort {
			continue
		}
		idx := strings.Index(text, kw)
		if idx < 0 {
			continue
		}
		// Prefer the earliest mention; on ties, the longer keyword.
		if bestIdx == -1 || idx < bestIdx || (idx == bestIdx && len(kw) > len(best)) {
			best = kw
			bestIdx = idx
		}
	}
	return best
}
