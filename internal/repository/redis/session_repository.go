package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"survey-chat-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat_session:"

// SessionRepository persists sessions in redis so multiple instances can
// share them. Store errors are logged and swallowed: losing a session
// degrades to a fresh conversation, it never fails a turn.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	payload, err := json.Marshal(session)
	if err != nil {
		log.Printf("[SESSION] failed to marshal session %s: %v", session.ID, err)
		return
	}

	if err := r.client.Set(context.Background(), keyPrefix+session.ID, payload, r.ttl).Err(); err != nil {
		log.Printf("[SESSION] failed to save session %s: %v", session.ID, err)
	}
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	payload, err := r.client.Get(context.Background(), keyPrefix+sessionID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[SESSION] failed to load session %s: %v", sessionID, err)
		}
		return nil, false
	}

	var session store.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		log.Printf("[SESSION] corrupt session %s, dropping: %v", sessionID, err)
		r.Delete(sessionID)
		return nil, false
	}
	return &session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	if err := r.client.Del(context.Background(), keyPrefix+sessionID).Err(); err != nil {
		log.Printf("[SESSION] failed to delete session %s: %v", sessionID, err)
	}
}
