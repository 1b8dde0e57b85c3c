// FILE: pkg/rag/executor/machine.go
// PURPOSE: Table-driven pipeline state machine and its driver loop

package executor

import (
	"context"
	"log"

	"survey-chat-be/internal/constant"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/classify"
	"survey-chat-be/pkg/rag/memctx"
	"survey-chat-be/pkg/rag/planner"
	"survey-chat-be/pkg/rag/response"
	"survey-chat-be/pkg/rag/retrieval"
	"survey-chat-be/pkg/rag/state"
)

// maxSteps bounds the driver loop. The longest legal path (two full recovery
// loops) is well under this; hitting the cap means a routing-table bug.
const maxSteps = 32

// handler mutates the turn state for one stage.
type handler func(ctx context.Context, st *state.TurnState)

// router picks the next stage from the turn state after its handler ran.
type router func(st *state.TurnState) state.Stage

// Executor walks the pipeline as data: a handler table and a routing table
// keyed by stage. Adding a stage is two table entries, not new control flow.
type Executor struct {
	classifier *classify.Classifier
	extractor  *memctx.Extractor
	planner    *planner.Planner
	retriever  *retrieval.Adapter
	generator  *response.Generator
	validator  *response.Validator
	provider   llm.LLMProvider
	logger     *log.Logger

	handlers map[state.Stage]handler
	routers  map[state.Stage]router
}

func New(
	classifier *classify.Classifier,
	extractor *memctx.Extractor,
	pl *planner.Planner,
	retriever *retrieval.Adapter,
	generator *response.Generator,
	validator *response.Validator,
	provider llm.LLMProvider,
	logger *log.Logger,
) *Executor {
	e := &Executor{
		classifier: classifier,
		extractor:  extractor,
		planner:    pl,
		retriever:  retriever,
		generator:  generator,
		validator:  validator,
		provider:   provider,
		logger:     logger,
	}

	e.handlers = map[state.Stage]handler{
		state.StageRouteIntent:     e.routeIntent,
		state.StageSmalltalk:       e.smalltalk,
		state.StageOfftopic:        e.offtopic,
		state.StageChatRef:         e.chatRef,
		state.StagePlanSearch:      e.planSearch,
		state.StageQueryRewrite:    e.queryRewrite,
		state.StageRetrieve:        e.retrieve,
		state.StageRerankCompress:  e.rerankCompress,
		state.StageContextSanitize: e.contextSanitize,
		state.StageGenerate:        e.generate,
		state.StageSafetyCheck:     e.safetyCheck,
		state.StageValidate:        e.validate,
		state.StageRetrieveRetry:   e.retrieveRetry,
		state.StageGenerateRetry:   e.generateRetry,
		state.StageClarify:         e.clarify,
	}

	e.routers = map[state.Stage]router{
		state.StageRouteIntent:     routeByIntent,
		state.StageSmalltalk:       toEnd,
		state.StageOfftopic:        toEnd,
		state.StageChatRef:         toEnd,
		state.StagePlanSearch:      to(state.StageQueryRewrite),
		state.StageQueryRewrite:    to(state.StageRetrieve),
		state.StageRetrieve:        to(state.StageRerankCompress),
		state.StageRerankCompress:  to(state.StageContextSanitize),
		state.StageContextSanitize: to(state.StageGenerate),
		state.StageGenerate:        to(state.StageSafetyCheck),
		state.StageSafetyCheck:     to(state.StageValidate),
		state.StageValidate:        routeByVerdict,
		state.StageRetrieveRetry:   to(state.StageRetrieve),
		state.StageGenerateRetry:   to(state.StageGenerate),
		state.StageClarify:         toEnd,
	}

	return e
}

// Run drives one turn from intent routing to the end state. On exit the turn
// state always carries a non-empty FinalAnswer.
func (e *Executor) Run(ctx context.Context, st *state.TurnState) {
	st.Memory = e.extractor.Extract(st.History)

	stage := state.StageRouteIntent
	for step := 0; stage != state.StageEnd; step++ {
		if step >= maxSteps {
			e.logger.Printf("[EXECUTOR] step cap hit at stage %s, aborting turn", stage)
			st.FinalAnswer = constant.GenericFailureReply
			st.NoteFallback(stage, "step cap exceeded")
			return
		}

		h, ok := e.handlers[stage]
		if !ok {
			e.logger.Printf("[EXECUTOR] no handler for stage %s, aborting turn", stage)
			st.FinalAnswer = constant.GenericFailureReply
			st.NoteFallback(stage, "unknown stage")
			return
		}

		h(ctx, st)
		stage = e.routers[stage](st)
	}

	if st.FinalAnswer == "" {
		st.FinalAnswer = constant.GenericFailureReply
		st.NoteFallback(state.StageEnd, "pipeline ended without an answer")
	}
}

func to(next state.Stage) router {
	return func(*state.TurnState) state.Stage { return next }
}

func toEnd(*state.TurnState) state.Stage {
	return state.StageEnd
}

func routeByIntent(st *state.TurnState) state.Stage {
	switch st.Intent {
	case state.IntentSmalltalk:
		return state.StageSmalltalk
	case state.IntentOfftopic:
		return state.StageOfftopic
	case state.IntentChatRef:
		return state.StageChatRef
	default:
		return state.StagePlanSearch
	}
}

// routeByVerdict drives the bounded recovery loop. Failures only route to a
// retry stage while budget remains; the validator itself forces PASS once the
// budget is spent, so the default arm here is unreachable in practice.
func routeByVerdict(st *state.TurnState) state.Stage {
	if st.Verdict == state.VerdictPass {
		return state.StageEnd
	}
	if st.RetryCount >= state.MaxRetries {
		return state.StageEnd
	}
	switch st.Verdict {
	case state.VerdictNoEvidence:
		return state.StageRetrieveRetry
	case state.VerdictFormat:
		return state.StageGenerateRetry
	case state.VerdictUnclear:
		return state.StageClarify
	default:
		return state.StageEnd
	}
}
