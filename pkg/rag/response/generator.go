// FILE: pkg/rag/response/generator.go
// PURPOSE: Draft the answer from sanitized evidence, with a correction-hint retry path

package response

import (
	"context"
	"fmt"
	"log"

	"survey-chat-be/internal/constant"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/state"
)

// Generator wraps the main-answer role of the text-generation service.
type Generator struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewGenerator(provider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{provider: provider, logger: logger}
}

// Generate fills st.DraftAnswer. With no evidence text left it
// short-circuits to the fixed no-results message. On a generate retry the
// correction-hint template carries the prior validation's stated defect.
func (g *Generator) Generate(ctx context.Context, st *state.TurnState) {
	evidence := st.EvidenceText()
	if evidence == "" {
		g.logger.Printf("[GENERATION] no evidence context, returning no-results message")
		st.DraftAnswer = constant.NoResultsReply
		st.NoteFallback(state.StageGenerate, "empty evidence context")
		return
	}

	var prompt string
	if st.RetryType == state.RetryGenerate && st.ValidationNote != "" {
		prompt = fmt.Sprintf(constant.AnswerRetryPrompt, evidence, st.ValidationNote, st.Plan.ResolvedQuestion)
		g.logger.Printf("[GENERATION] retry with correction hint: %s", st.ValidationNote)
	} else {
		prompt = fmt.Sprintf(constant.AnswerPrompt, evidence, st.Plan.ResolvedQuestion)
	}

	answer, err := g.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RoleAnswer)...)
	if err != nil {
		g.logger.Printf("[GENERATION] llm call failed: %v", err)
		st.DraftAnswer = constant.NoResultsReply
		st.NoteFallback(state.StageGenerate, err.Error())
		return
	}

	st.DraftAnswer = answer
	st.NoteOk(state.StageGenerate)
}
