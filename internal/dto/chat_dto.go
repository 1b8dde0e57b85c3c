package dto

import (
	"encoding/json"
	"time"
)

type SendChatRequest struct {
	SessionId string `json:"session_id" validate:"omitempty,max=64"`
	Message   string `json:"message" validate:"required,max=2000"`
	Debug     bool   `json:"debug,omitempty"`
}

// SourceRefDTO is one cited evidence location in the final answer.
type SourceRefDTO struct {
	SourceId string `json:"source_id"`
	Year     int    `json:"year"`
	Page     int    `json:"page"`
}

// StageNoteDTO mirrors one pipeline stage outcome for the debug trace.
type StageNoteDTO struct {
	Stage    string `json:"stage"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// DebugTraceDTO exposes the pipeline internals of one turn. Only populated
// when the request asked for it.
type DebugTraceDTO struct {
	Intent           string         `json:"intent"`
	Followup         string         `json:"followup,omitempty"`
	Years            []int          `json:"years,omitempty"`
	Queries          []string       `json:"queries,omitempty"`
	ResolvedQuestion string         `json:"resolved_question,omitempty"`
	FilesSearched    []string       `json:"files_searched,omitempty"`
	DocCount         int            `json:"doc_count"`
	Verdict          string         `json:"verdict,omitempty"`
	RetryCount       int            `json:"retry_count"`
	UsedDefaultYears bool           `json:"used_default_years"`
	SafetyCategories []string       `json:"safety_categories,omitempty"`
	Notes            []StageNoteDTO `json:"notes,omitempty"`
}

type SendChatResponse struct {
	SessionId  string         `json:"session_id"`
	Answer     string         `json:"answer"`
	Intent     string         `json:"intent"`
	Sources    []SourceRefDTO `json:"sources,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	DebugTrace *DebugTraceDTO `json:"debug_trace,omitempty"`
}

type GetChatHistoryResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// GetSessionTraceResponse is one persisted turn with its recorded pipeline
// trace, for post-hoc inspection of a session.
type GetSessionTraceResponse struct {
	Id         string          `json:"id"`
	UserInput  string          `json:"user_input"`
	Answer     string          `json:"answer"`
	Intent     string          `json:"intent"`
	Verdict    string          `json:"verdict,omitempty"`
	RetryCount int             `json:"retry_count"`
	DebugTrace json.RawMessage `json:"debug_trace,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
