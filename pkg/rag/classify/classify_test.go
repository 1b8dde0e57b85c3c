package classify

import (
	"testing"

	"survey-chat-be/pkg/rag/state"

	"github.com/stretchr/testify/assert"
)

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultTable())
}

func TestExtractYears(t *testing.T) {
	c := newTestClassifier()

	t.Run("single year", func(t *testing.T) {
		assert.Equal(t, []int{2024}, c.ExtractYears("2024년 청소년 과의존률은?"))
	})

	t.Run("year without suffix", func(t *testing.T) {
		assert.Equal(t, []int{2023}, c.ExtractYears("2023 조사 결과"))
	})

	t.Run("range expands to every year", func(t *testing.T) {
		assert.Equal(t, []int{2021, 2022, 2023, 2024}, c.ExtractYears("2021년부터 2024년까지 추이"))
	})

	t.Run("tilde range", func(t *testing.T) {
		assert.Equal(t, []int{2021, 2022, 2023}, c.ExtractYears("2021~2023 비교"))
	})

	t.Run("out of window years dropped", func(t *testing.T) {
		assert.Empty(t, c.ExtractYears("2019년 결과 알려줘"))
	})

	t.Run("duplicates collapse sorted", func(t *testing.T) {
		assert.Equal(t, []int{2022, 2024}, c.ExtractYears("2024년과 2022년, 그리고 2024년"))
	})

	t.Run("no year", func(t *testing.T) {
		assert.Empty(t, c.ExtractYears("청소년 과의존률은?"))
	})
}

func TestDefaultYears(t *testing.T) {
	assert.Equal(t, []int{2023, 2024}, DefaultYears())
}

func TestIsChatReference(t *testing.T) {
	c := newTestClassifier()

	t.Run("asking own name", func(t *testing.T) {
		assert.True(t, c.IsChatReference("내 이름이 뭐야?"))
	})

	t.Run("asking previous question", func(t *testing.T) {
		assert.True(t, c.IsChatReference("아까 내가 뭐라고 물어봤지?"))
	})

	t.Run("name introduction is not a reference", func(t *testing.T) {
		assert.False(t, c.IsChatReference("내 이름은 지수야"))
	})

	t.Run("plain question", func(t *testing.T) {
		assert.False(t, c.IsChatReference("청소년 과의존률은?"))
	})
}

func TestIsSmalltalk(t *testing.T) {
	c := newTestClassifier()

	assert.True(t, c.IsSmalltalk("안녕하세요"))
	assert.True(t, c.IsSmalltalk("감사합니다!"))

	// Domain signal overrides the greeting.
	assert.False(t, c.IsSmalltalk("안녕하세요, 2024년 과의존 조사 알려주세요"))
	assert.False(t, c.IsSmalltalk("내일 날씨 어때?"))
}

func TestMatchCohort(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, "청소년", c.MatchCohort("청소년 수치 알려줘"))
	assert.Equal(t, "청소년", c.MatchCohort("중학생은 어때?"))
	assert.Equal(t, "유아동", c.MatchCohort("어린이는요?"))
	assert.Equal(t, "60대", c.MatchCohort("노인 비율"))
	assert.Equal(t, "", c.MatchCohort("전체 평균"))
}

func TestClassifyFollowup(t *testing.T) {
	c := newTestClassifier()
	mem := state.MemorySnapshot{
		LastTopic:  "과의존",
		LastCohort: "청소년",
		LastYears:  []int{2024},
	}

	t.Run("no prior topic means no followup", func(t *testing.T) {
		got := c.ClassifyFollowup("유아동은요?", state.MemorySnapshot{})
		assert.Equal(t, state.FollowupNone, got)
	})

	t.Run("terse cohort switch", func(t *testing.T) {
		got := c.ClassifyFollowup("유아동은요?", mem)
		assert.Equal(t, state.FollowupTargetChange, got)
	})

	t.Run("same cohort is not a switch", func(t *testing.T) {
		got := c.ClassifyFollowup("청소년은?", mem)
		assert.Equal(t, state.FollowupNone, got)
	})

	t.Run("terse year switch", func(t *testing.T) {
		got := c.ClassifyFollowup("2022년은?", mem)
		assert.Equal(t, state.FollowupYearChange, got)
	})

	t.Run("detail request", func(t *testing.T) {
		got := c.ClassifyFollowup("좀 더 자세히 알려줘", mem)
		assert.Equal(t, state.FollowupDetailRequest, got)
	})

	t.Run("long input plans from scratch", func(t *testing.T) {
		got := c.ClassifyFollowup("유아동 스마트폰 과의존 위험군 비율이 어떻게 변했는지 알려주세요", mem)
		assert.Equal(t, state.FollowupNone, got)
	})
}

func TestSynonymQueries(t *testing.T) {
	c := newTestClassifier()

	t.Run("cohort synonyms substituted", func(t *testing.T) {
		queries := c.SynonymQueries("2024년 청소년 과의존률")
		assert.Equal(t, "2024년 청소년 과의존률", queries[0])
		assert.Contains(t, queries, "2024년 중학생 과의존률")
		assert.Contains(t, queries, "2024년 10대 과의존률")
	})

	t.Run("risk tier synonyms substituted", func(t *testing.T) {
		queries := c.SynonymQueries("고위험군 비율")
		assert.Contains(t, queries, "고위험 사용자군 비율")
	})

	t.Run("no match keeps original only", func(t *testing.T) {
		queries := c.SynonymQueries("전체 평균 이용시간")
		assert.Equal(t, []string{"전체 평균 이용시간"}, queries)
	})

	t.Run("expansion order is stable across runs", func(t *testing.T) {
		question := "2024년 청소년 고위험군 과의존률"
		first := c.SynonymQueries(question)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, c.SynonymQueries(question))
		}
	})
}

func TestLoadTable(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		table, err := LoadTable("")
		assert.NoError(t, err)
		assert.Equal(t, DefaultTable().Version, table.Version)
	})

	t.Run("missing file falls back with error", func(t *testing.T) {
		table, err := LoadTable("does/not/exist.json")
		assert.Error(t, err)
		assert.NotNil(t, table)
		assert.NotEmpty(t, table.DomainKeywords)
	})
}
