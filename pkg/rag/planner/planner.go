// FILE: pkg/rag/planner/planner.go
// PURPOSE: Build the multi-year retrieval plan for a resolved question

package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"survey-chat-be/internal/constant"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/state"
)

const (
	// MinQueries pads the plan by repeating the resolved question.
	MinQueries = 3
	// MaxQueries bounds the planner output.
	MaxQueries = 8
	// RewriteCap bounds the query set after rewriting.
	RewriteCap = 6
	// RetryCap bounds the synonym-expanded set on a retrieval retry.
	RetryCap = 8
)

var yearToken = regexp.MustCompile(`20\d{2}\s*년?`)

// Planner turns a user question plus inherited context into a structured
// search plan: target years, per-year source filters, and a query set.
type Planner struct {
	provider   llm.LLMProvider
	classifier *classify.Classifier
	sources    map[int]string // year -> source document id, static config
	logger     *log.Logger
}

func New(provider llm.LLMProvider, classifier *classify.Classifier, sources map[int]string, logger *log.Logger) *Planner {
	return &Planner{
		provider:   provider,
		classifier: classifier,
		sources:    sources,
		logger:     logger,
	}
}

// plannerOutput is the JSON structure the planning role must return.
type plannerOutput struct {
	Years            []int    `json:"years"`
	ResolvedQuestion string   `json:"resolved_question"`
	Queries          []string `json:"queries"`
}

// BuildPlan fills st.Plan. Years are the union of what the planning step
// proposes and what pattern-matching extracts directly from the input,
// filtered to the supported window. When no year is resolvable the default
// window is substituted and flagged for disclosure. Any planning failure
// falls back to pattern-extracted years and single-query repetition.
func (p *Planner) BuildPlan(ctx context.Context, st *state.TurnState) {
	base := st.Input
	if st.PendingClarification != nil && st.PendingClarification.OriginalQuestion != "" {
		// Resuming a paused conversation: the new input answers our
		// clarifying question, so plan against both together.
		base = st.PendingClarification.OriginalQuestion + " " + st.Input
	}

	patternYears := p.classifier.ExtractYears(base)
	inherited := p.inheritedYears(st)

	out, err := p.callPlanner(ctx, base, st)
	if err != nil {
		p.logger.Printf("[PLANNER] planning failed, using pattern fallback: %v", err)
		st.NoteFallback(state.StagePlanSearch, err.Error())
		st.Plan = p.fallbackPlan(base, st, patternYears, inherited)
		return
	}

	resolved := strings.TrimSpace(out.ResolvedQuestion)
	if resolved == "" {
		resolved = p.resolveDeterministic(base, st)
	}

	years := unionYears(out.Years, patternYears, inherited)
	usedDefault := false
	if len(years) == 0 {
		years = classify.DefaultYears()
		usedDefault = true
	}

	queries := sanitizeQueries(out.Queries)
	if len(queries) == 0 {
		queries = []string{resolved}
	}
	queries = padQueries(queries, resolved)

	st.UsedDefaultYears = usedDefault
	st.Plan = state.Plan{
		Years:            years,
		FileFilters:      p.filtersFor(years),
		Queries:          queries,
		ResolvedQuestion: resolved,
	}
	st.NoteOk(state.StagePlanSearch)
}

// RewriteQueries expands the plan's query set. If the plan spans more than
// one year, one additional query per year is synthesized by substituting the
// year token into the resolved question. The rewriting role then cleans the
// set; a non-list or empty result keeps the originals. Output is
// order-preserving deduplicated and capped; the plan is updated in place so
// later retries share state.
func (p *Planner) RewriteQueries(ctx context.Context, st *state.TurnState) {
	queries := append([]string{}, st.Plan.Queries...)

	if len(st.Plan.Years) > 1 {
		for _, y := range st.Plan.Years {
			queries = append(queries, SubstituteYear(st.Plan.ResolvedQuestion, y))
		}
	}

	rewritten, err := p.callRewriter(ctx, st.Plan.ResolvedQuestion, queries)
	if err != nil || len(rewritten) == 0 {
		if err != nil {
			p.logger.Printf("[PLANNER] rewrite failed, keeping original queries: %v", err)
			st.NoteFallback(state.StageQueryRewrite, err.Error())
		} else {
			st.NoteFallback(state.StageQueryRewrite, "rewriter returned empty set")
		}
	} else {
		queries = append(queries, rewritten...)
		st.NoteOk(state.StageQueryRewrite)
	}

	queries = dedupeOrdered(queries)
	if len(queries) > RewriteCap {
		queries = queries[:RewriteCap]
	}
	st.Plan.Queries = queries
}

// ExpandForRetry swaps the query set for a synonym-widened one. Used by the
// retrieve_retry stage before looping back with widened parameters.
func (p *Planner) ExpandForRetry(st *state.TurnState) {
	queries := p.classifier.SynonymQueries(st.Plan.ResolvedQuestion)
	for _, q := range st.Plan.Queries {
		queries = append(queries, q)
	}
	queries = dedupeOrdered(queries)
	if len(queries) > RetryCap {
		queries = queries[:RetryCap]
	}
	st.Plan.Queries = queries
}

// SubstituteYear rewrites the question to target one specific year.
func SubstituteYear(question string, year int) string {
	token := fmt.Sprintf("%d년", year)
	if yearToken.MatchString(question) {
		substituted := yearToken.ReplaceAllString(question, token+" ")
		return strings.Join(strings.Fields(substituted), " ")
	}
	return token + " " + question
}

func (p *Planner) callPlanner(ctx context.Context, base string, st *state.TurnState) (*plannerOutput, error) {
	prompt := fmt.Sprintf(constant.PlannerPrompt, p.memoryBlock(st), base)

	response, err := p.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RolePlanner)...)
	if err != nil {
		return nil, fmt.Errorf("planner generation: %w", err)
	}

	var out plannerOutput
	if err := json.Unmarshal([]byte(extractJSON(response)), &out); err != nil {
		return nil, fmt.Errorf("planner output parse: %w", err)
	}
	return &out, nil
}

func (p *Planner) callRewriter(ctx context.Context, resolved string, queries []string) ([]string, error) {
	current, _ := json.Marshal(queries)
	prompt := fmt.Sprintf(constant.QueryRewritePrompt, resolved, string(current))

	response, err := p.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RoleRewriter)...)
	if err != nil {
		return nil, fmt.Errorf("rewriter generation: %w", err)
	}

	var out []string
	if err := json.Unmarshal([]byte(extractJSONArray(response)), &out); err != nil {
		return nil, fmt.Errorf("rewriter output parse: %w", err)
	}
	return sanitizeQueries(out), nil
}

// memoryBlock renders the inherited context for the planner prompt.
func (p *Planner) memoryBlock(st *state.TurnState) string {
	if st.Followup == state.FollowupNone && st.PendingClarification == nil {
		return "This is a standalone question with no inherited context."
	}

	var sb strings.Builder
	sb.WriteString("This is a follow-up. Inherited context:\n")
	if st.Memory.LastTopic != "" {
		sb.WriteString(fmt.Sprintf("- previous topic: %s\n", st.Memory.LastTopic))
	}
	if st.Memory.LastCohort != "" {
		sb.WriteString(fmt.Sprintf("- previous cohort: %s\n", st.Memory.LastCohort))
	}
	if len(st.Memory.LastYears) > 0 {
		sb.WriteString(fmt.Sprintf("- previous years: %v\n", st.Memory.LastYears))
	}
	sb.WriteString(fmt.Sprintf("- follow-up type: %s\n", st.Followup))
	return sb.String()
}

// inheritedYears carries the previous turn's years into follow-ups that do
// not restate them, and resumes a clarification's partial plan.
func (p *Planner) inheritedYears(st *state.TurnState) []int {
	var years []int
	if st.PendingClarification != nil {
		years = append(years, st.PendingClarification.Years...)
	}
	switch st.Followup {
	case state.FollowupTargetChange, state.FollowupDetailRequest:
		years = append(years, st.Memory.LastYears...)
	}
	return years
}

// fallbackPlan builds a deterministic plan when the planning step failed.
func (p *Planner) fallbackPlan(base string, st *state.TurnState, patternYears, inherited []int) state.Plan {
	years := unionYears(patternYears, inherited)
	if len(years) == 0 {
		years = classify.DefaultYears()
		st.UsedDefaultYears = true
	}

	resolved := p.resolveDeterministic(base, st)
	return state.Plan{
		Years:            years,
		FileFilters:      p.filtersFor(years),
		Queries:          padQueries([]string{resolved}, resolved),
		ResolvedQuestion: resolved,
	}
}

// resolveDeterministic rewrites a terse follow-up into a standalone question
// without a model: inherited topic and years are prefixed around the input.
func (p *Planner) resolveDeterministic(base string, st *state.TurnState) string {
	resolved := strings.TrimSpace(strings.TrimSuffix(base, "?"))
	if st.Followup == state.FollowupTargetChange && st.Memory.LastTopic != "" {
		resolved = resolved + " " + st.Memory.LastTopic
	}
	if st.Followup == state.FollowupTargetChange && len(st.Memory.LastYears) > 0 {
		resolved = fmt.Sprintf("%d년 %s", st.Memory.LastYears[len(st.Memory.LastYears)-1], resolved)
	}
	return resolved
}

func (p *Planner) filtersFor(years []int) []string {
	filters := make([]string, 0, len(years))
	for _, y := range years {
		if src, ok := p.sources[y]; ok {
			filters = append(filters, src)
		}
	}
	return filters
}

func unionYears(sets ...[]int) []int {
	seen := make(map[int]bool)
	for _, set := range sets {
		for _, y := range set {
			if y >= classify.MinYear && y <= classify.MaxYear {
				seen[y] = true
			}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func sanitizeQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}

func padQueries(queries []string, resolved string) []string {
	for len(queries) < MinQueries {
		queries = append(queries, resolved)
	}
	if len(queries) > MaxQueries {
		queries = queries[:MaxQueries]
	}
	return queries
}

func dedupeOrdered(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}

// extractJSON isolates the first brace-delimited span from a model response.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}

// extractJSONArray isolates the first bracket-delimited span.
func extractJSONArray(response string) string {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}
