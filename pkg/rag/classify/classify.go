// FILE: pkg/rag/classify/classify.go
// PURPOSE: Pure keyword/pattern classifiers for routing and follow-up detection

package classify

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"survey-chat-be/pkg/rag/state"
)

// Supported survey years. The corpus is fixed: one report per year.
const (
	MinYear = 2020
	MaxYear = 2024
)

var (
	yearPattern  = regexp.MustCompile(`(20\d{2})\s*년?`)
	rangePattern = regexp.MustCompile(`(20\d{2})\s*년?\s*(?:부터|에서|~|-|–)\s*(20\d{2})\s*년?\s*(?:까지)?`)
)

// Classifier applies the pattern table to raw input.
type Classifier struct {
	table *Table
}

func NewClassifier(table *Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table}
}

func (c *Classifier) Table() *Table {
	return c.table
}

// ExtractYears pulls every resolvable survey year out of free text.
// Explicit ranges ("2021년부터 2024년까지", "2021~2024") expand to each year
// in between. Results are filtered to the supported window, deduplicated,
// and sorted ascending.
func (c *Classifier) ExtractYears(input string) []int {
	seen := make(map[int]bool)

	for _, m := range rangePattern.FindAllStringSubmatch(input, -1) {
		from, err1 := strconv.Atoi(m[1])
		to, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || from > to {
			continue
		}
		for y := from; y <= to; y++ {
			if y >= MinYear && y <= MaxYear {
				seen[y] = true
			}
		}
	}

	for _, m := range yearPattern.FindAllStringSubmatch(input, -1) {
		y, err := strconv.Atoi(m[1])
		if err == nil && y >= MinYear && y <= MaxYear {
			seen[y] = true
		}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DefaultYears is the implicit window substituted when no year is resolvable:
// the two most recent supported years. Callers must disclose the substitution.
func DefaultYears() []int {
	return []int{MaxYear - 1, MaxYear}
}

// IsChatReference reports whether the input asks about the conversation
// itself ("what did I ask before?", "what is my name?"). Sentences that
// introduce a name are explicitly excluded: "내 이름은 지수야" declares,
// it does not ask.
func (c *Classifier) IsChatReference(input string) bool {
	matched := false
	for _, p := range c.table.ChatRef {
		if strings.Contains(input, p) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	// A name-introduction marker without a question mark means the user is
	// telling us something, not asking.
	if !strings.Contains(input, "?") && !strings.Contains(input, "뭐") {
		for _, p := range c.table.NameIntro {
			if strings.Contains(input, p) {
				return false
			}
		}
	}

	return true
}

// HasDomainKeyword reports whether the input contains any survey-domain term.
func (c *Classifier) HasDomainKeyword(input string) bool {
	for _, kw := range c.table.DomainKeywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}

// IsSmalltalk reports whether the input is a greeting or social phrase with
// no domain signal.
func (c *Classifier) IsSmalltalk(input string) bool {
	if c.HasDomainKeyword(input) {
		return false
	}
	lowered := strings.ToLower(input)
	for _, p := range c.table.Smalltalk {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// MatchCohort returns the canonical cohort term found in the input, or "".
func (c *Classifier) MatchCohort(input string) string {
	for canonical, synonyms := range c.table.Cohorts {
		if strings.Contains(input, canonical) {
			return canonical
		}
		for _, s := range synonyms {
			if strings.Contains(input, s) {
				return canonical
			}
		}
	}
	return ""
}

// ClassifyFollowup decides whether a short input continues the previous RAG
// turn, and how. It only fires when there is prior topical context to
// inherit; a fresh conversation always classifies as none.
func (c *Classifier) ClassifyFollowup(input string, mem state.MemorySnapshot) state.FollowupType {
	if mem.LastTopic == "" {
		return state.FollowupNone
	}

	trimmed := strings.TrimSpace(input)

	for _, p := range c.table.DetailRequest {
		if strings.Contains(trimmed, p) {
			return state.FollowupDetailRequest
		}
	}

	// Only terse inputs are treated as target/year switches; a full question
	// re-states its own context and plans from scratch.
	if len([]rune(trimmed)) > 20 {
		return state.FollowupNone
	}

	if cohort := c.MatchCohort(trimmed); cohort != "" && cohort != mem.LastCohort {
		return state.FollowupTargetChange
	}

	if years := c.ExtractYears(trimmed); len(years) > 0 {
		return state.FollowupYearChange
	}

	return state.FollowupNone
}

// SynonymQueries substitutes cohort and risk-tier synonyms into the resolved
// question to widen retrieval on a retry. The original question is always
// first; output is capped by the caller.
func (c *Classifier) SynonymQueries(resolvedQuestion string) []string {
	queries := []string{resolvedQuestion}

	// Canonical terms are walked in sorted order so the expansion (and what
	// survives the caller's cap) is the same on every run.
	expand := func(groups map[string][]string) {
		canonicals := make([]string, 0, len(groups))
		for canonical := range groups {
			canonicals = append(canonicals, canonical)
		}
		sort.Strings(canonicals)

		for _, canonical := range canonicals {
			if !strings.Contains(resolvedQuestion, canonical) {
				continue
			}
			for _, s := range groups[canonical] {
				queries = append(queries, strings.ReplaceAll(resolvedQuestion, canonical, s))
			}
		}
	}

	expand(c.table.Cohorts)
	expand(c.table.RiskTiers)

	return dedupe(queries)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
