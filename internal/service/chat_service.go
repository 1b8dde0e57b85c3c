package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"survey-chat-be/internal/constant"
	"survey-chat-be/internal/dto"
	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/pkg/logger"
	"survey-chat-be/internal/repository/contract"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/executor"
	"survey-chat-be/pkg/rag/memctx"
	"survey-chat-be/pkg/rag/planner"
	"survey-chat-be/pkg/rag/response"
	"survey-chat-be/pkg/rag/retrieval"
	"survey-chat-be/pkg/rag/state"
	"survey-chat-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService defines the chat service interface
type IChatService interface {
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetChatHistory(ctx context.Context, sessionId string) ([]*dto.GetChatHistoryResponse, error)
	GetSessionTrace(ctx context.Context, sessionId string) ([]*dto.GetSessionTraceResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

// chatService owns one pipeline executor and the session/turn stores around it.
type chatService struct {
	sessionRepo contract.SessionRepository
	turnRepo    contract.ChatTurnRepository
	exec        *executor.Executor
	logger      logger.ILogger
}

func NewChatService(
	llmProvider llm.LLMProvider,
	searcher retrieval.Searcher,
	classifier *classify.Classifier,
	sources map[int]string,
	sessionRepo contract.SessionRepository,
	turnRepo contract.ChatTurnRepository,
	log logger.ILogger,
) IChatService {
	llmLogger := initLLMLogger()

	exec := executor.New(
		classifier,
		memctx.NewExtractor(classifier),
		planner.New(llmProvider, classifier, sources, llmLogger),
		retrieval.NewAdapter(searcher, llmLogger),
		response.NewGenerator(llmProvider, llmLogger),
		response.NewValidator(llmProvider, llmLogger),
		llmProvider,
		llmLogger,
	)

	return &chatService{
		sessionRepo: sessionRepo,
		turnRepo:    turnRepo,
		exec:        exec,
		logger:      log,
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// SendChat runs one full turn: load session, execute the pipeline, commit the
// session update atomically, persist the turn record.
func (cs *chatService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	sessionId := strings.TrimSpace(request.SessionId)
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		session = &store.Session{ID: sessionId}
	}

	st := &state.TurnState{
		Input:                strings.TrimSpace(request.Message),
		History:              session.History,
		PendingClarification: session.PendingClarification,
	}

	cs.runPipeline(ctx, st)

	// A consumed clarification is cleared; a newly issued one replaces it.
	session.PendingClarification = st.IssuedClarification
	session.AppendTurn(st.Input, st.FinalAnswer)
	cs.sessionRepo.Save(session)

	trace := buildTrace(st)
	cs.persistTurn(ctx, sessionId, st, trace)

	resp := &dto.SendChatResponse{
		SessionId: sessionId,
		Answer:    st.FinalAnswer,
		Intent:    string(st.Intent),
		Sources:   sourceRefs(st),
		CreatedAt: time.Now(),
	}
	if request.Debug {
		resp.DebugTrace = trace
	}
	return resp, nil
}

// runPipeline isolates the executor behind a recover so a panic anywhere in
// the pipeline degrades to the generic failure reply instead of a 500.
func (cs *chatService) runPipeline(ctx context.Context, st *state.TurnState) {
	defer func() {
		if r := recover(); r != nil {
			cs.logger.Error("ChatService", "Pipeline panic recovered", map[string]interface{}{"panic": fmt.Sprintf("%v", r)})
			st.FinalAnswer = constant.GenericFailureReply
			st.NoteFallback(state.StageEnd, "pipeline panic")
		}
	}()
	cs.exec.Run(ctx, st)
}

func (cs *chatService) persistTurn(ctx context.Context, sessionId string, st *state.TurnState, trace *dto.DebugTraceDTO) {
	payload, err := json.Marshal(trace)
	if err != nil {
		cs.logger.Warn("ChatService", "Failed to marshal debug trace", map[string]interface{}{"error": err.Error()})
		payload = nil
	}

	turn := &entity.ChatTurn{
		Id:         uuid.New(),
		SessionId:  sessionId,
		UserInput:  st.Input,
		Answer:     st.FinalAnswer,
		Intent:     string(st.Intent),
		Verdict:    string(st.Verdict),
		RetryCount: st.RetryCount,
		DebugTrace: payload,
		CreatedAt:  time.Now(),
	}

	// Turn persistence is audit-only; its failure must not fail the reply.
	if err := cs.turnRepo.Create(ctx, turn); err != nil {
		cs.logger.Error("ChatService", "Failed to persist turn", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

func (cs *chatService) GetChatHistory(_ context.Context, sessionId string) ([]*dto.GetChatHistoryResponse, error) {
	session, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return []*dto.GetChatHistoryResponse{}, nil
	}

	history := make([]*dto.GetChatHistoryResponse, len(session.History))
	for i, msg := range session.History {
		history[i] = &dto.GetChatHistoryResponse{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return history, nil
}

// GetSessionTrace returns the persisted turns of a session with their
// recorded pipeline traces. Reads the audit table, not the live session.
func (cs *chatService) GetSessionTrace(ctx context.Context, sessionId string) ([]*dto.GetSessionTraceResponse, error) {
	turns, err := cs.turnRepo.FindBySessionId(ctx, sessionId, 0)
	if err != nil {
		return nil, fmt.Errorf("load session trace: %w", err)
	}

	traces := make([]*dto.GetSessionTraceResponse, len(turns))
	for i, turn := range turns {
		traces[i] = &dto.GetSessionTraceResponse{
			Id:         turn.Id.String(),
			UserInput:  turn.UserInput,
			Answer:     turn.Answer,
			Intent:     turn.Intent,
			Verdict:    turn.Verdict,
			RetryCount: turn.RetryCount,
			DebugTrace: turn.DebugTrace,
			CreatedAt:  turn.CreatedAt,
		}
	}
	return traces, nil
}

func (cs *chatService) DeleteSession(_ context.Context, sessionId string) error {
	cs.sessionRepo.Delete(sessionId)
	return nil
}

func buildTrace(st *state.TurnState) *dto.DebugTraceDTO {
	notes := make([]dto.StageNoteDTO, len(st.Notes))
	for i, n := range st.Notes {
		notes[i] = dto.StageNoteDTO{
			Stage:    string(n.Stage),
			Fallback: n.Fallback,
			Reason:   n.Reason,
		}
	}

	return &dto.DebugTraceDTO{
		Intent:           string(st.Intent),
		Followup:         string(st.Followup),
		Years:            st.Plan.Years,
		Queries:          st.Plan.Queries,
		ResolvedQuestion: st.Plan.ResolvedQuestion,
		FilesSearched:    st.Retrieval.FilesSearched,
		DocCount:         st.Retrieval.DocCount,
		Verdict:          string(st.Verdict),
		RetryCount:       st.RetryCount,
		UsedDefaultYears: st.UsedDefaultYears,
		SafetyCategories: st.SafetyCategories,
		Notes:            notes,
	}
}

// sourceRefs lists the distinct evidence locations behind a RAG answer.
func sourceRefs(st *state.TurnState) []dto.SourceRefDTO {
	if st.Intent != state.IntentRAG || len(st.Retrieval.Docs) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	refs := make([]dto.SourceRefDTO, 0, len(st.Retrieval.Docs))
	for _, doc := range st.Retrieval.Docs {
		key := fmt.Sprintf("%s|%d", doc.SourceID, doc.Page)
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, dto.SourceRefDTO{
			SourceId: doc.SourceID,
			Year:     doc.Year,
			Page:     doc.Page,
		})
	}
	return refs
}
