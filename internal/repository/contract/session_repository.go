package contract

import (
	"survey-chat-be/pkg/store"
)

// SessionRepository is the session store contract. The in-memory
// implementation backs single-instance deployments; the redis one is for
// anything load-balanced.
type SessionRepository interface {
	Save(session *store.Session)
	Get(sessionId string) (*store.Session, bool)
	Delete(sessionId string)
}
