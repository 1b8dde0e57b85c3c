// FILE: pkg/rag/executor/nodes.go
// PURPOSE: Per-stage handlers for the pipeline state machine

package executor

import (
	"context"
	"fmt"
	"strings"

	"survey-chat-be/internal/constant"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/rerank"
	"survey-chat-be/pkg/rag/retrieval"
	"survey-chat-be/pkg/rag/sanitize"
	"survey-chat-be/pkg/rag/state"
	"survey-chat-be/pkg/store"
)

// How many recent messages the router and chat-reference prompts see.
const historyWindow = 6

// routeIntent decides the turn's path. Deterministic signals are checked in
// precedence order before any model call; the model router is a last resort
// and its failure defaults to RAG, never to a dead end.
func (e *Executor) routeIntent(ctx context.Context, st *state.TurnState) {
	input := st.Input

	// A pending clarification means the previous turn paused mid-plan. The
	// new input is the user's answer, so the turn is RAG by definition.
	if st.PendingClarification != nil {
		st.Intent = state.IntentRAG
		st.NoteOk(state.StageRouteIntent)
		return
	}

	if e.classifier.IsChatReference(input) {
		st.Intent = state.IntentChatRef
		st.NoteOk(state.StageRouteIntent)
		return
	}

	st.Followup = e.classifier.ClassifyFollowup(input, st.Memory)

	if e.classifier.HasDomainKeyword(input) ||
		len(e.classifier.ExtractYears(input)) > 0 ||
		st.Followup != state.FollowupNone {
		st.Intent = state.IntentRAG
		st.NoteOk(state.StageRouteIntent)
		return
	}

	if e.classifier.IsSmalltalk(input) {
		st.Intent = state.IntentSmalltalk
		st.NoteOk(state.StageRouteIntent)
		return
	}

	st.Intent = e.modelRoute(ctx, st)
}

// modelRoute is the 4-way model classification used only when every
// deterministic signal stayed silent.
func (e *Executor) modelRoute(ctx context.Context, st *state.TurnState) state.Intent {
	prompt := fmt.Sprintf(constant.IntentRoutingPrompt, historyBlock(st.History), st.Input)

	response, err := e.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RoleRouter)...)
	if err != nil {
		e.logger.Printf("[ROUTER] model routing failed, defaulting to RAG: %v", err)
		st.NoteFallback(state.StageRouteIntent, err.Error())
		return state.IntentRAG
	}

	label := strings.ToUpper(strings.TrimSpace(response))
	switch {
	case strings.Contains(label, string(state.IntentSmalltalk)):
		st.NoteOk(state.StageRouteIntent)
		return state.IntentSmalltalk
	case strings.Contains(label, string(state.IntentOfftopic)):
		st.NoteOk(state.StageRouteIntent)
		return state.IntentOfftopic
	case strings.Contains(label, string(state.IntentChatRef)):
		st.NoteOk(state.StageRouteIntent)
		return state.IntentChatRef
	case strings.Contains(label, string(state.IntentRAG)):
		st.NoteOk(state.StageRouteIntent)
		return state.IntentRAG
	default:
		// Unrecognized label: prefer attempting retrieval over refusing.
		e.logger.Printf("[ROUTER] unrecognized label %q, defaulting to RAG", label)
		st.NoteFallback(state.StageRouteIntent, "unrecognized router label")
		return state.IntentRAG
	}
}

func (e *Executor) smalltalk(ctx context.Context, st *state.TurnState) {
	prompt := fmt.Sprintf(constant.SmalltalkPrompt, st.Input)

	reply, err := e.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RoleCasual)...)
	if err != nil || strings.TrimSpace(reply) == "" {
		st.FinalAnswer = constant.FallbackGreeting
		st.NoteFallback(state.StageSmalltalk, "casual generation failed")
		return
	}
	st.FinalAnswer = reply
	st.NoteOk(state.StageSmalltalk)
}

// offtopic is a fixed redirect, no model call. The reply must never vary.
func (e *Executor) offtopic(_ context.Context, st *state.TurnState) {
	st.FinalAnswer = constant.OfftopicReply
	st.NoteOk(state.StageOfftopic)
}

func (e *Executor) chatRef(ctx context.Context, st *state.TurnState) {
	prompt := fmt.Sprintf(constant.ChatRefPrompt, historyBlock(st.History), st.Input)

	reply, err := e.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RoleCasual)...)
	if err != nil || strings.TrimSpace(reply) == "" {
		st.FinalAnswer = constant.GenericFailureReply
		st.NoteFallback(state.StageChatRef, "chat reference generation failed")
		return
	}
	st.FinalAnswer = reply
	st.NoteOk(state.StageChatRef)
}

func (e *Executor) planSearch(ctx context.Context, st *state.TurnState) {
	e.planner.BuildPlan(ctx, st)
}

func (e *Executor) queryRewrite(ctx context.Context, st *state.TurnState) {
	e.planner.RewriteQueries(ctx, st)
}

func (e *Executor) retrieve(ctx context.Context, st *state.TurnState) {
	result := e.retriever.Retrieve(ctx, st.Plan.Queries, st.Plan.FileFilters, e.tier(st))

	st.Retrieval = state.Retrieval{
		Docs:          result.Docs,
		ParentIDs:     result.ParentIDs,
		FilesSearched: result.FilesSearched,
		DocCount:      result.DocCount,
	}
	st.Context = result.Context

	if result.DocCount == 0 {
		st.NoteFallback(state.StageRetrieve, "no documents retrieved")
		return
	}
	st.NoteOk(state.StageRetrieve)
}

func (e *Executor) rerankCompress(_ context.Context, st *state.TurnState) {
	if len(st.Retrieval.Docs) == 0 {
		st.NoteFallback(state.StageRerankCompress, "nothing to rerank")
		return
	}

	st.Retrieval.Docs = rerank.Rerank(st.Retrieval.Docs, st.Plan.ResolvedQuestion)
	st.Retrieval.DocCount = len(st.Retrieval.Docs)
	st.CompressedContext = retrieval.RenderContext(st.Retrieval.Docs, e.tier(st).MaxBlockChars)
	st.NoteOk(state.StageRerankCompress)
}

func (e *Executor) contextSanitize(_ context.Context, st *state.TurnState) {
	st.SanitizedContext = sanitize.Sanitize(st.EvidenceText())
	st.NoteOk(state.StageContextSanitize)
}

func (e *Executor) generate(ctx context.Context, st *state.TurnState) {
	e.generator.Generate(ctx, st)
}

// safetyCheck annotates only. A flagged category reaches the debug trace and
// the logs, never the routing decision.
func (e *Executor) safetyCheck(_ context.Context, st *state.TurnState) {
	passed, categories := sanitize.ScreenAnswer(st.DraftAnswer)
	st.SafetyPassed = passed
	st.SafetyCategories = categories

	if !passed {
		e.logger.Printf("[SAFETY] draft flagged: %v", categories)
		st.NoteFallback(state.StageSafetyCheck, strings.Join(categories, ","))
		return
	}
	st.NoteOk(state.StageSafetyCheck)
}

func (e *Executor) validate(ctx context.Context, st *state.TurnState) {
	e.validator.Validate(ctx, st)
}

// retrieveRetry widens the next retrieval pass: synonym-expanded queries plus
// the larger parameter tier. Stale context is dropped so the retry cannot
// accidentally answer from the evidence that just failed validation.
func (e *Executor) retrieveRetry(_ context.Context, st *state.TurnState) {
	st.RetryCount++
	st.RetryType = state.RetryRetrieve
	st.Widened = true

	e.planner.ExpandForRetry(st)

	st.Context = ""
	st.CompressedContext = ""
	st.SanitizedContext = ""
	st.DraftAnswer = ""

	st.NoteOk(state.StageRetrieveRetry)
}

func (e *Executor) generateRetry(_ context.Context, st *state.TurnState) {
	st.RetryCount++
	st.RetryType = state.RetryGenerate
	st.NoteOk(state.StageGenerateRetry)
}

// clarify pauses the conversation: the clarifying question becomes the reply
// and the partial plan is packaged for the next turn to resume from.
func (e *Executor) clarify(_ context.Context, st *state.TurnState) {
	question := strings.TrimSpace(st.ClarifyingQuestion)
	if question == "" {
		question = constant.FallbackClarification
		st.NoteFallback(state.StageClarify, "validator supplied no clarifying question")
	} else {
		st.NoteOk(state.StageClarify)
	}

	original := st.Input
	if st.PendingClarification != nil && st.PendingClarification.OriginalQuestion != "" {
		original = st.PendingClarification.OriginalQuestion
	}

	topic := st.Memory.LastTopic
	if topic == "" {
		topic = st.Memory.LastCohort
	}

	st.IssuedClarification = &store.Clarification{
		OriginalQuestion: original,
		Years:            st.Plan.Years,
		Topic:            topic,
	}
	st.FinalAnswer = question
}

func (e *Executor) tier(st *state.TurnState) retrieval.Tier {
	if st.Widened {
		return retrieval.WidenedTier()
	}
	return retrieval.DefaultTier()
}

// historyBlock renders the recent conversation for router and chat-reference
// prompts.
func historyBlock(history []store.Message) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}

	var sb strings.Builder
	for i, msg := range history[start:] {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return sb.String()
}
