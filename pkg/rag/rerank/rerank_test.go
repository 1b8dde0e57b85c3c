package rerank

import (
	"fmt"
	"strings"
	"testing"

	"survey-chat-be/pkg/rag/state"

	"github.com/stretchr/testify/assert"
)

func doc(text string, score float64) state.Evidence {
	return state.Evidence{Text: text, RelevanceScore: score}
}

func TestRerank(t *testing.T) {
	t.Run("overlap bonus reorders near ties", func(t *testing.T) {
		docs := []state.Evidence{
			doc("성인 이용 시간 통계", 0.82),
			doc("청소년 과의존률 40.1%", 0.80),
		}

		out := Rerank(docs, "청소년 과의존률은?")

		assert.Equal(t, "청소년 과의존률 40.1%", out[0].Text)
	})

	t.Run("idempotent", func(t *testing.T) {
		docs := []state.Evidence{
			doc("청소년 과의존률", 0.80),
			doc("성인 이용 시간", 0.82),
			doc("유아동 위험군", 0.75),
		}

		once := Rerank(docs, "청소년 과의존률")
		twice := Rerank(once, "청소년 과의존률")

		assert.Equal(t, once, twice)
	})

	t.Run("near duplicate content collapses", func(t *testing.T) {
		same := strings.Repeat("동일한 내용 ", 20)
		docs := []state.Evidence{
			doc(same+"꼬리 하나", 0.9),
			doc(same+"꼬리 둘", 0.8),
			doc("다른 내용", 0.7),
		}

		out := Rerank(docs, "질문")

		assert.Len(t, out, 2)
	})

	t.Run("caps at max docs", func(t *testing.T) {
		var docs []state.Evidence
		for i := 0; i < MaxDocs+10; i++ {
			docs = append(docs, doc(fmt.Sprintf("내용 %d번", i), float64(i)/100))
		}

		out := Rerank(docs, "질문")

		assert.Len(t, out, MaxDocs)
	})

	t.Run("empty input passes through", func(t *testing.T) {
		assert.Empty(t, Rerank(nil, "질문"))
	})

	t.Run("input slice not mutated", func(t *testing.T) {
		docs := []state.Evidence{
			doc("청소년 과의존률", 0.80),
			doc("성인 이용 시간", 0.82),
		}

		Rerank(docs, "청소년 과의존률")

		assert.Equal(t, "청소년 과의존률", docs[0].Text)
		assert.Equal(t, 0.0, docs[0].FinalScore)
	})
}
