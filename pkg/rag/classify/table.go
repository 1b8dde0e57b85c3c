// FILE: pkg/rag/classify/table.go
// PURPOSE: Versioned keyword/pattern tables driving rule-based classification

package classify

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table maps classification categories to pattern sets. The domain vocabulary
// lives here as data so it can evolve without touching control flow.
type Table struct {
	Version string `json:"version"`

	// DomainKeywords force intent RAG when present in the input.
	DomainKeywords []string `json:"domain_keywords"`

	// Cohorts maps a canonical cohort term to its synonyms. Used both for
	// follow-up detection and for query expansion on retrieval retries.
	Cohorts map[string][]string `json:"cohorts"`

	// RiskTiers maps a canonical risk-tier term to its synonyms.
	RiskTiers map[string][]string `json:"risk_tiers"`

	// ChatRef marks questions about the conversation itself.
	ChatRef []string `json:"chat_ref"`

	// NameIntro marks sentences that INTRODUCE a name. These look like
	// chat-reference questions but must not be routed as one.
	NameIntro []string `json:"name_intro"`

	// Smalltalk marks greetings and social phrases.
	Smalltalk []string `json:"smalltalk"`

	// DetailRequest marks follow-ups asking to go deeper on the same topic.
	DetailRequest []string `json:"detail_request"`
}

// DefaultTable returns the compiled-in pattern table for the overdependence
// survey domain.
func DefaultTable() *Table {
	return &Table{
		Version: "2024.1",
		DomainKeywords: []string{
			"과의존", "과의존률", "과의존율", "스마트폰", "인터넷",
			"위험군", "고위험", "잠재적위험", "일반군",
			"실태조사", "조사결과", "이용률", "이용시간", "의존도",
			"청소년", "유아동", "성인", "60대", "학령",
		},
		Cohorts: map[string][]string{
			"유아동": {"유아", "아동", "어린이", "만3-9세"},
			"청소년": {"중학생", "고등학생", "10대", "학령기", "만10-19세"},
			"성인":  {"20대", "30대", "40대", "50대", "어른"},
			"60대": {"노년", "고령", "노인", "시니어"},
		},
		RiskTiers: map[string][]string{
			"고위험군":   {"고위험 사용자군", "고위험"},
			"잠재적위험군": {"잠재위험군", "잠재적 위험", "잠재군"},
			"일반군":    {"일반 사용자군", "비위험군"},
		},
		ChatRef: []string{
			"내 이름", "제 이름", "뭐라고 했", "뭐라고 물", "아까",
			"방금 전", "이전에 물어", "이전 질문", "우리가 무슨", "지금까지 무슨",
		},
		NameIntro: []string{
			"이름은", "이라고 해", "라고 해", "라고 불러", "입니다",
		},
		Smalltalk: []string{
			"안녕", "하이", "반가워", "반갑습니다", "고마워", "감사합니다",
			"잘 지내", "좋은 아침", "hello", "hi ", "thanks",
		},
		DetailRequest: []string{
			"자세히", "더 알려", "구체적으로", "추가로", "상세히", "더 설명",
		},
	}
}

// LoadTable reads a pattern table from a JSON file, falling back to the
// compiled defaults when the path is empty or unreadable.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultTable(), fmt.Errorf("read pattern table: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return DefaultTable(), fmt.Errorf("parse pattern table: %w", err)
	}

	if table.Version == "" || len(table.DomainKeywords) == 0 {
		return DefaultTable(), fmt.Errorf("pattern table missing version or domain keywords")
	}

	return &table, nil
}
