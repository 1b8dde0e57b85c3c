package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"survey-chat-be/internal/constant"
	"survey-chat-be/internal/dto"
	"survey-chat-be/internal/entity"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/state"
	"survey-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

type logEntry struct {
	Level   string
	Module  string
	Message string
}

// spyLogger records every structured log call for assertions.
type spyLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (s *spyLogger) record(level, module, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, logEntry{Level: level, Module: module, Message: message})
}

func (s *spyLogger) Debug(module, message string, _ map[string]interface{}) {
	s.record("DEBUG", module, message)
}

func (s *spyLogger) Info(module, message string, _ map[string]interface{}) {
	s.record("INFO", module, message)
}

func (s *spyLogger) Warn(module, message string, _ map[string]interface{}) {
	s.record("WARN", module, message)
}

func (s *spyLogger) Error(module, message string, _ map[string]interface{}) {
	s.record("ERROR", module, message)
}

func (s *spyLogger) Sync() error { return nil }

func (s *spyLogger) has(level, module, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Level == level && e.Module == module && e.Message == message {
			return true
		}
	}
	return false
}

type fakeSessionRepo struct {
	sessions map[string]*store.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*store.Session{}}
}

func (r *fakeSessionRepo) Save(session *store.Session) {
	r.sessions[session.ID] = session
}

func (r *fakeSessionRepo) Get(sessionId string) (*store.Session, bool) {
	s, found := r.sessions[sessionId]
	return s, found
}

func (r *fakeSessionRepo) Delete(sessionId string) {
	delete(r.sessions, sessionId)
}

type failingTurnRepo struct{}

func (failingTurnRepo) Create(_ context.Context, _ *entity.ChatTurn) error {
	return errors.New("db down")
}

func (failingTurnRepo) FindBySessionId(_ context.Context, _ string, _ int) ([]*entity.ChatTurn, error) {
	return nil, nil
}

type greetingProvider struct{}

func (greetingProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (greetingProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return "안녕하세요! 실태조사에 대해 물어보세요.", nil
}

type panicProvider struct{}

func (panicProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (panicProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	panic("model backend exploded")
}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, _ string, _ int, _ []string) ([]state.Evidence, error) {
	return nil, nil
}

func (stubSearcher) GetByParent(_ context.Context, _ string) ([]state.Evidence, error) {
	return nil, nil
}

func testSources() map[int]string {
	sources := make(map[int]string)
	for y := classify.MinYear; y <= classify.MaxYear; y++ {
		sources[y] = fmt.Sprintf("report_%d", y)
	}
	return sources
}

func TestSendChat(t *testing.T) {
	classifier := classify.NewClassifier(classify.DefaultTable())

	t.Run("turn persistence failure is logged, not surfaced", func(t *testing.T) {
		spy := &spyLogger{}
		sessions := newFakeSessionRepo()
		svc := NewChatService(greetingProvider{}, stubSearcher{}, classifier, testSources(), sessions, failingTurnRepo{}, spy)

		resp, err := svc.SendChat(context.Background(), &dto.SendChatRequest{Message: "안녕하세요"})

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.Answer)
		assert.NotEmpty(t, resp.SessionId)
		assert.True(t, spy.has("ERROR", "ChatService", "Failed to persist turn"))

		session, found := sessions.Get(resp.SessionId)
		assert.True(t, found)
		assert.Len(t, session.History, 2)
	})

	t.Run("pipeline panic degrades to the generic reply", func(t *testing.T) {
		spy := &spyLogger{}
		svc := NewChatService(panicProvider{}, stubSearcher{}, classifier, testSources(), newFakeSessionRepo(), failingTurnRepo{}, spy)

		resp, err := svc.SendChat(context.Background(), &dto.SendChatRequest{Message: "안녕하세요"})

		assert.NoError(t, err)
		assert.Equal(t, constant.GenericFailureReply, resp.Answer)
		assert.True(t, spy.has("ERROR", "ChatService", "Pipeline panic recovered"))
	})
}
