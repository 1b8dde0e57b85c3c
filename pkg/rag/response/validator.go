// FILE: pkg/rag/response/validator.go
// PURPOSE: Model-based answer validation driving the recovery loop

package response

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"survey-chat-be/internal/constant"
	"survey-chat-be/pkg/llm"
	"survey-chat-be/pkg/rag/state"
)

const (
	// evidenceExcerptChars bounds how much evidence the validator sees.
	evidenceExcerptChars = 2000
	// minCorrectionLen: a supplied correction replaces the draft only when
	// it is substantial, not a one-line verdict echo.
	minCorrectionLen = 80
)

// Validator judges the draft against the evidence. Every failure of the
// validator itself resolves to PASS: a broken judge never blocks an answer
// from reaching the user.
type Validator struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewValidator(provider llm.LLMProvider, logger *log.Logger) *Validator {
	return &Validator{provider: provider, logger: logger}
}

type validatorOutput struct {
	Verdict            string `json:"verdict"`
	Reason             string `json:"reason"`
	CorrectedAnswer    string `json:"corrected_answer"`
	ClarifyingQuestion string `json:"clarifying_question"`
}

// Validate sets st.Verdict and, on terminal PASS, st.FinalAnswer. When the
// retry budget is exhausted the verdict is forced to PASS and the current
// draft accepted best-effort.
func (v *Validator) Validate(ctx context.Context, st *state.TurnState) {
	if st.RetryCount >= state.MaxRetries {
		v.logger.Printf("[VALIDATE] retry budget exhausted (%d), forcing PASS", st.RetryCount)
		st.Verdict = state.VerdictPass
		st.FinalAnswer = v.withDisclosure(st, st.DraftAnswer)
		st.NoteFallback(state.StageValidate, "retry budget exhausted")
		return
	}

	out, err := v.callValidator(ctx, st)
	if err != nil {
		v.logger.Printf("[VALIDATE] validator failed, defaulting to PASS: %v", err)
		st.Verdict = state.VerdictPass
		st.FinalAnswer = v.withDisclosure(st, st.DraftAnswer)
		st.NoteFallback(state.StageValidate, err.Error())
		return
	}

	verdict := parseVerdict(out.Verdict)
	st.Verdict = verdict
	st.ValidationNote = strings.TrimSpace(out.Reason)

	switch verdict {
	case state.VerdictPass:
		answer := st.DraftAnswer
		if corrected := strings.TrimSpace(out.CorrectedAnswer); len([]rune(corrected)) > minCorrectionLen {
			v.logger.Printf("[VALIDATE] adopting validator correction (%d chars)", len(corrected))
			answer = corrected
		}
		st.FinalAnswer = v.withDisclosure(st, answer)
	case state.VerdictUnclear:
		st.ClarifyingQuestion = strings.TrimSpace(out.ClarifyingQuestion)
	}

	st.NoteOk(state.StageValidate)
	v.logger.Printf("[VALIDATE] verdict=%s reason=%s", verdict, truncate(st.ValidationNote, 80))
}

func (v *Validator) callValidator(ctx context.Context, st *state.TurnState) (*validatorOutput, error) {
	excerpt := truncate(st.EvidenceText(), evidenceExcerptChars)
	prompt := fmt.Sprintf(constant.ValidationPrompt, st.Plan.ResolvedQuestion, excerpt, st.DraftAnswer)

	response, err := v.provider.Generate(ctx, prompt, llm.RoleOptions(llm.RoleAnswer)...)
	if err != nil {
		return nil, fmt.Errorf("validator generation: %w", err)
	}

	var out validatorOutput
	if err := json.Unmarshal([]byte(extractJSON(response)), &out); err != nil {
		return nil, fmt.Errorf("validator output parse: %w", err)
	}
	return &out, nil
}

// parseVerdict maps the validator's text to a verdict. Unrecognized output
// defaults to PASS (fail open).
func parseVerdict(raw string) state.Verdict {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(state.VerdictNoEvidence):
		return state.VerdictNoEvidence
	case string(state.VerdictUnclear):
		return state.VerdictUnclear
	case string(state.VerdictFormat):
		return state.VerdictFormat
	default:
		return state.VerdictPass
	}
}

// withDisclosure appends the default-year notice when the implicit year
// window was substituted. The substitution must always be surfaced.
func (v *Validator) withDisclosure(st *state.TurnState, answer string) string {
	if st.UsedDefaultYears && !strings.Contains(answer, constant.DefaultYearsNotice) {
		return answer + constant.DefaultYearsNotice
	}
	return answer
}

func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
