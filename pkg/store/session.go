package store

// Message is a single prior turn in a chat session.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Clarification marks a paused conversation. When the pipeline cannot answer
// without more information it stores the original question plus the partial
// plan, and the next user turn resumes with intent forced to RAG.
type Clarification struct {
	OriginalQuestion string `json:"original_question"`
	Years            []int  `json:"years"`
	Topic            string `json:"topic"`
}

// MaxHistory caps the number of messages kept per session.
const MaxHistory = 20

// Session is the cross-turn mutable state of one conversation, keyed by a
// stable session id. History and the pending clarification marker are the
// ONLY state that survives between turns.
type Session struct {
	ID                   string         `json:"id"`
	History              []Message      `json:"history"`
	PendingClarification *Clarification `json:"pending_clarification,omitempty"`
}

// AppendTurn records both sides of a completed turn and trims history in one
// step, so a crashed turn can never leave the history half-updated.
func (s *Session) AppendTurn(userInput, assistantReply string) {
	s.History = append(s.History,
		Message{Role: "user", Content: userInput},
		Message{Role: "assistant", Content: assistantReply},
	)
	if len(s.History) > MaxHistory {
		s.History = s.History[len(s.History)-MaxHistory:]
	}
}
