package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"survey-chat-be/internal/constant"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/memctx"
	"survey-chat-be/pkg/rag/planner"
	"survey-chat-be/pkg/rag/response"
	"survey-chat-be/pkg/rag/retrieval"
	"survey-chat-be/pkg/rag/state"
	"survey-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

// scriptedProvider answers by recognizing which role template the prompt
// came from. Planning and rewriting are scripted offline so plans are fully
// deterministic in these tests.
type scriptedProvider struct {
	routerLabel string
	answer      string
	verdicts    []string

	verdictIdx int
	prompts    []string
}

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (p *scriptedProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	p.prompts = append(p.prompts, prompt)
	switch {
	case strings.Contains(prompt, "intent router"):
		return p.routerLabel, nil
	case strings.Contains(prompt, "search planner"):
		return "", errors.New("planner offline")
	case strings.Contains(prompt, "refine search queries"):
		return "", errors.New("rewriter offline")
	case strings.Contains(prompt, "answer validator"):
		verdict := p.verdicts[p.verdictIdx]
		if p.verdictIdx < len(p.verdicts)-1 {
			p.verdictIdx++
		}
		return verdict, nil
	case strings.Contains(prompt, "grounded_reference_material"):
		return p.answer, nil
	default:
		return "안녕하세요! 실태조사에 대해 물어보세요.", nil
	}
}

func (p *scriptedProvider) answerCalls() []string {
	var calls []string
	for _, prompt := range p.prompts {
		if strings.Contains(prompt, "grounded_reference_material") {
			calls = append(calls, prompt)
		}
	}
	return calls
}

type recordingSearcher struct {
	hits []state.Evidence
	ks   []int
}

func (s *recordingSearcher) Search(_ context.Context, _ string, k int, _ []string) ([]state.Evidence, error) {
	s.ks = append(s.ks, k)
	return s.hits, nil
}

func (s *recordingSearcher) GetByParent(_ context.Context, _ string) ([]state.Evidence, error) {
	return nil, nil
}

func evidence() []state.Evidence {
	return []state.Evidence{{
		Text:           "청소년 스마트폰 과의존률은 40.1%로 조사되었다.",
		SourceID:       "report_2024",
		Year:           2024,
		Page:           12,
		ParentID:       "report_2024_p12",
		DocType:        "summary",
		RelevanceScore: 0.9,
	}}
}

func passVerdict() string {
	return `{"verdict": "PASS", "reason": "grounded"}`
}

func newTestExecutor(provider llm.LLMProvider, searcher retrieval.Searcher) *Executor {
	classifier := classify.NewClassifier(classify.DefaultTable())
	logger := log.New(io.Discard, "", 0)
	sources := map[int]string{}
	for y := classify.MinYear; y <= classify.MaxYear; y++ {
		sources[y] = fmt.Sprintf("report_%d", y)
	}

	return New(
		classifier,
		memctx.NewExtractor(classifier),
		planner.New(provider, classifier, sources, logger),
		retrieval.NewAdapter(searcher, logger),
		response.NewGenerator(provider, logger),
		response.NewValidator(provider, logger),
		provider,
		logger,
	)
}

func TestRunRAGTurn(t *testing.T) {
	provider := &scriptedProvider{
		answer:   "2024년 청소년 과의존률은 40.1%입니다 [2024 p.12].",
		verdicts: []string{passVerdict()},
	}
	searcher := &recordingSearcher{hits: evidence()}
	e := newTestExecutor(provider, searcher)

	st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
	e.Run(context.Background(), st)

	assert.Equal(t, state.IntentRAG, st.Intent)
	assert.Equal(t, []int{2024}, st.Plan.Years)
	assert.Equal(t, state.VerdictPass, st.Verdict)
	assert.Equal(t, provider.answer, st.FinalAnswer)
	assert.Equal(t, 0, st.RetryCount)
	assert.False(t, st.UsedDefaultYears)
}

func TestRunYearRange(t *testing.T) {
	provider := &scriptedProvider{
		answer:   "연도별 추이는 다음과 같습니다 [2021 p.3].",
		verdicts: []string{passVerdict()},
	}
	e := newTestExecutor(provider, &recordingSearcher{hits: evidence()})

	st := &state.TurnState{Input: "2021년부터 2024년까지 과의존률 추이를 알려줘"}
	e.Run(context.Background(), st)

	assert.Equal(t, []int{2021, 2022, 2023, 2024}, st.Plan.Years)
}

func TestRunSmalltalk(t *testing.T) {
	provider := &scriptedProvider{}
	searcher := &recordingSearcher{hits: evidence()}
	e := newTestExecutor(provider, searcher)

	st := &state.TurnState{Input: "안녕하세요"}
	e.Run(context.Background(), st)

	assert.Equal(t, state.IntentSmalltalk, st.Intent)
	assert.NotEmpty(t, st.FinalAnswer)
	assert.Empty(t, searcher.ks, "smalltalk must not hit retrieval")
}

func TestRunOfftopicViaModelRoute(t *testing.T) {
	provider := &scriptedProvider{routerLabel: "OFFTOPIC"}
	searcher := &recordingSearcher{}
	e := newTestExecutor(provider, searcher)

	st := &state.TurnState{Input: "오늘 점심 뭐 먹을까"}
	e.Run(context.Background(), st)

	assert.Equal(t, state.IntentOfftopic, st.Intent)
	assert.Equal(t, constant.OfftopicReply, st.FinalAnswer)
	assert.Empty(t, searcher.ks)
}

func TestRunChatReference(t *testing.T) {
	provider := &scriptedProvider{}
	searcher := &recordingSearcher{}
	e := newTestExecutor(provider, searcher)

	st := &state.TurnState{
		Input: "아까 내가 뭐라고 물어봤지?",
		History: []store.Message{
			{Role: "user", Content: "2024년 청소년 과의존률은?"},
			{Role: "assistant", Content: "40.1%입니다."},
		},
	}
	e.Run(context.Background(), st)

	assert.Equal(t, state.IntentChatRef, st.Intent)
	assert.NotEmpty(t, st.FinalAnswer)
	assert.Empty(t, searcher.ks)
}

func TestRunFollowupTargetChange(t *testing.T) {
	provider := &scriptedProvider{
		answer:   "유아동 과의존률은 25.0%입니다 [2024 p.8].",
		verdicts: []string{passVerdict()},
	}
	e := newTestExecutor(provider, &recordingSearcher{hits: evidence()})

	st := &state.TurnState{
		Input: "유아동은요?",
		History: []store.Message{
			{Role: "user", Content: "2024년 청소년 과의존률은?"},
			{Role: "assistant", Content: "40.1%입니다."},
		},
	}
	e.Run(context.Background(), st)

	assert.Equal(t, state.IntentRAG, st.Intent)
	assert.Equal(t, state.FollowupTargetChange, st.Followup)
	// Inherited year from the previous turn, not the default window.
	assert.Equal(t, []int{2024}, st.Plan.Years)
	assert.False(t, st.UsedDefaultYears)
}

func TestRunFormatFailureRetriesGeneration(t *testing.T) {
	provider := &scriptedProvider{
		answer: "출처 태그를 보완한 답변 [2024 p.12].",
		verdicts: []string{
			`{"verdict": "FAIL_FORMAT", "reason": "출처 태그 누락"}`,
			passVerdict(),
		},
	}
	e := newTestExecutor(provider, &recordingSearcher{hits: evidence()})

	st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
	e.Run(context.Background(), st)

	assert.Equal(t, 1, st.RetryCount)
	assert.Equal(t, state.RetryGenerate, st.RetryType)
	assert.Equal(t, state.VerdictPass, st.Verdict)

	answerCalls := provider.answerCalls()
	assert.Len(t, answerCalls, 2)
	assert.Contains(t, answerCalls[1], "출처 태그 누락")
}

func TestRunNoEvidenceFailureWidensRetrieval(t *testing.T) {
	provider := &scriptedProvider{
		answer: "재검색 후 답변 [2024 p.12].",
		verdicts: []string{
			`{"verdict": "FAIL_NO_EVIDENCE", "reason": "근거 부족"}`,
			passVerdict(),
		},
	}
	searcher := &recordingSearcher{hits: evidence()}
	e := newTestExecutor(provider, searcher)

	st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
	e.Run(context.Background(), st)

	assert.Equal(t, 1, st.RetryCount)
	assert.True(t, st.Widened)
	assert.Equal(t, state.VerdictPass, st.Verdict)

	defaultK := retrieval.DefaultTier().K
	widenedK := retrieval.WidenedTier().K
	assert.Contains(t, searcher.ks, defaultK)
	assert.Contains(t, searcher.ks, widenedK)
}

func TestRunUnclearIssuesClarification(t *testing.T) {
	provider := &scriptedProvider{
		answer: "모호한 답변",
		verdicts: []string{
			`{"verdict": "FAIL_UNCLEAR", "reason": "ambiguous", "clarifying_question": "어느 연도 말씀이신가요?"}`,
		},
	}
	e := newTestExecutor(provider, &recordingSearcher{hits: evidence()})

	st := &state.TurnState{Input: "과의존률이 궁금해 2024년"}
	e.Run(context.Background(), st)

	assert.Equal(t, "어느 연도 말씀이신가요?", st.FinalAnswer)
	assert.NotNil(t, st.IssuedClarification)
	assert.Equal(t, "과의존률이 궁금해 2024년", st.IssuedClarification.OriginalQuestion)
}

func TestRunPendingClarificationForcesRAG(t *testing.T) {
	provider := &scriptedProvider{
		answer:   "2022년 기준으로 답변드립니다 [2022 p.5].",
		verdicts: []string{passVerdict()},
	}
	searcher := &recordingSearcher{hits: evidence()}
	e := newTestExecutor(provider, searcher)

	st := &state.TurnState{
		Input: "2022년이요",
		PendingClarification: &store.Clarification{
			OriginalQuestion: "과의존률 알려줘",
		},
	}
	e.Run(context.Background(), st)

	assert.Equal(t, state.IntentRAG, st.Intent)
	assert.NotEmpty(t, searcher.ks)
	assert.Contains(t, st.Plan.Years, 2022)
}

func TestRunDefaultYearsAreDisclosed(t *testing.T) {
	provider := &scriptedProvider{
		answer:   "최근 수치는 40.1%입니다 [2024 p.12].",
		verdicts: []string{passVerdict()},
	}
	e := newTestExecutor(provider, &recordingSearcher{hits: evidence()})

	st := &state.TurnState{Input: "과의존률 알려줘"}
	e.Run(context.Background(), st)

	assert.True(t, st.UsedDefaultYears)
	assert.Equal(t, []int{2023, 2024}, st.Plan.Years)
	assert.Contains(t, st.FinalAnswer, constant.DefaultYearsNotice)
}

func TestRunExhaustedBudgetForcesPass(t *testing.T) {
	provider := &scriptedProvider{
		answer: "여전히 태그 없는 답변",
		verdicts: []string{
			`{"verdict": "FAIL_FORMAT", "reason": "태그 누락"}`,
		},
	}
	e := newTestExecutor(provider, &recordingSearcher{hits: evidence()})

	st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
	e.Run(context.Background(), st)

	assert.Equal(t, state.MaxRetries, st.RetryCount)
	assert.Equal(t, state.VerdictPass, st.Verdict)
	assert.Equal(t, "여전히 태그 없는 답변", st.FinalAnswer)
}

func TestRunNoHitsReturnsNoResults(t *testing.T) {
	provider := &scriptedProvider{
		verdicts: []string{passVerdict()},
	}
	e := newTestExecutor(provider, &recordingSearcher{})

	st := &state.TurnState{Input: "2024년 청소년 과의존률은?"}
	e.Run(context.Background(), st)

	assert.Equal(t, constant.NoResultsReply, st.FinalAnswer)
}
