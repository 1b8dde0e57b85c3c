package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one completed question/answer exchange, persisted for audit and
// debugging. The live conversation state lives in the session store, not here.
type ChatTurn struct {
	Id         uuid.UUID
	SessionId  string
	UserInput  string
	Answer     string
	Intent     string
	Verdict    string
	RetryCount int
	DebugTrace []byte // JSON: stage notes, plan, provenance
	CreatedAt  time.Time
}
