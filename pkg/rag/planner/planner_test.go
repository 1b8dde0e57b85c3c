package planner

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/state"
	"survey-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func testSources() map[int]string {
	return map[int]string{
		2020: "report_2020",
		2021: "report_2021",
		2022: "report_2022",
		2023: "report_2023",
		2024: "report_2024",
	}
}

func newTestPlanner(provider llm.LLMProvider) *Planner {
	classifier := classify.NewClassifier(classify.DefaultTable())
	return New(provider, classifier, testSources(), log.New(io.Discard, "", 0))
}

func TestBuildPlan(t *testing.T) {
	t.Run("planner output drives the plan", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{
			response: `{"years": [2024], "resolved_question": "2024년 청소년 과의존률은?", "queries": ["청소년 과의존률", "청소년 위험군 비율", "2024 과의존 통계"]}`,
		})

		st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
		p.BuildPlan(context.Background(), st)

		assert.Equal(t, []int{2024}, st.Plan.Years)
		assert.Equal(t, []string{"report_2024"}, st.Plan.FileFilters)
		assert.Len(t, st.Plan.Queries, 3)
		assert.Equal(t, "2024년 청소년 과의존률은?", st.Plan.ResolvedQuestion)
		assert.False(t, st.UsedDefaultYears)
	})

	t.Run("pattern years union planner years", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{
			response: `{"years": [2024], "resolved_question": "비교", "queries": ["비교"]}`,
		})

		st := &state.TurnState{Input: "2022년이랑 비교해줘"}
		p.BuildPlan(context.Background(), st)

		assert.Equal(t, []int{2022, 2024}, st.Plan.Years)
		assert.Equal(t, []string{"report_2022", "report_2024"}, st.Plan.FileFilters)
	})

	t.Run("no resolvable year substitutes the default window", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{
			response: `{"years": [], "resolved_question": "청소년 과의존률은?", "queries": ["청소년 과의존률"]}`,
		})

		st := &state.TurnState{Input: "청소년 과의존률은?"}
		p.BuildPlan(context.Background(), st)

		assert.Equal(t, []int{2023, 2024}, st.Plan.Years)
		assert.True(t, st.UsedDefaultYears)
	})

	t.Run("planner failure falls back deterministically", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{err: errors.New("model unavailable")})

		st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
		p.BuildPlan(context.Background(), st)

		assert.Equal(t, []int{2024}, st.Plan.Years)
		assert.Len(t, st.Plan.Queries, MinQueries)
		assert.NotEmpty(t, st.Plan.ResolvedQuestion)

		lastNote := st.Notes[len(st.Notes)-1]
		assert.True(t, lastNote.Fallback)
	})

	t.Run("unparseable output falls back", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{response: "I cannot help with that"})

		st := &state.TurnState{Input: "2023년 성인 이용률"}
		p.BuildPlan(context.Background(), st)

		assert.Equal(t, []int{2023}, st.Plan.Years)
		assert.NotEmpty(t, st.Plan.Queries)
	})

	t.Run("pending clarification resumes original question", func(t *testing.T) {
		fake := &fakeProvider{err: errors.New("down")}
		p := newTestPlanner(fake)

		st := &state.TurnState{
			Input: "2022년이요",
			PendingClarification: &store.Clarification{
				OriginalQuestion: "과의존률 알려줘",
				Years:            []int{2021},
			},
		}
		p.BuildPlan(context.Background(), st)

		assert.Contains(t, st.Plan.ResolvedQuestion, "과의존률")
		assert.Contains(t, st.Plan.Years, 2021)
		assert.Contains(t, st.Plan.Years, 2022)
	})

	t.Run("out of window planner years are dropped", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{
			response: `{"years": [2018, 2024], "resolved_question": "추이", "queries": ["추이"]}`,
		})

		st := &state.TurnState{Input: "추이 알려줘"}
		p.BuildPlan(context.Background(), st)

		assert.Equal(t, []int{2024}, st.Plan.Years)
	})
}

func TestRewriteQueries(t *testing.T) {
	t.Run("multi year plans get per-year variants", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{response: `["청소년 위험군 비율"]`})

		st := &state.TurnState{
			Plan: state.Plan{
				Years:            []int{2023, 2024},
				Queries:          []string{"청소년 과의존률"},
				ResolvedQuestion: "청소년 과의존률은?",
			},
		}
		p.RewriteQueries(context.Background(), st)

		assert.Contains(t, st.Plan.Queries, "2023년 청소년 과의존률은?")
		assert.Contains(t, st.Plan.Queries, "2024년 청소년 과의존률은?")
		assert.LessOrEqual(t, len(st.Plan.Queries), RewriteCap)
	})

	t.Run("rewriter failure keeps originals", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{err: errors.New("down")})

		st := &state.TurnState{
			Plan: state.Plan{
				Years:            []int{2024},
				Queries:          []string{"청소년 과의존률", "위험군 비율"},
				ResolvedQuestion: "청소년 과의존률은?",
			},
		}
		p.RewriteQueries(context.Background(), st)

		assert.Equal(t, []string{"청소년 과의존률", "위험군 비율"}, st.Plan.Queries)
	})

	t.Run("duplicates removed order preserved", func(t *testing.T) {
		p := newTestPlanner(&fakeProvider{response: `["청소년 과의존률"]`})

		st := &state.TurnState{
			Plan: state.Plan{
				Years:            []int{2024},
				Queries:          []string{"청소년 과의존률"},
				ResolvedQuestion: "청소년 과의존률은?",
			},
		}
		p.RewriteQueries(context.Background(), st)

		assert.Equal(t, []string{"청소년 과의존률"}, st.Plan.Queries)
	})
}

func TestExpandForRetry(t *testing.T) {
	p := newTestPlanner(&fakeProvider{})

	st := &state.TurnState{
		Plan: state.Plan{
			Queries:          []string{"청소년 과의존률"},
			ResolvedQuestion: "청소년 과의존률",
		},
	}
	p.ExpandForRetry(st)

	assert.Equal(t, "청소년 과의존률", st.Plan.Queries[0])
	assert.Contains(t, st.Plan.Queries, "중학생 과의존률")
	assert.LessOrEqual(t, len(st.Plan.Queries), RetryCap)
}

func TestSubstituteYear(t *testing.T) {
	assert.Equal(t, "2022년 과의존률", SubstituteYear("과의존률", 2022))
	assert.Equal(t, "2022년 과의존률", SubstituteYear("2024년 과의존률", 2022))
}
