package state

import (
	"survey-chat-be/pkg/store"
)

// Intent classifies what kind of turn the user started.
type Intent string

const (
	IntentSmalltalk Intent = "SMALLTALK"
	IntentRAG       Intent = "RAG"
	IntentOfftopic  Intent = "OFFTOPIC"
	IntentChatRef   Intent = "CHAT_REF"
)

// FollowupType classifies how a turn continues the previous one.
type FollowupType string

const (
	FollowupNone          FollowupType = "none"
	FollowupTargetChange  FollowupType = "target_change"
	FollowupYearChange    FollowupType = "year_change"
	FollowupDetailRequest FollowupType = "detail_request"
)

// Verdict is the validation outcome driving the recovery loop.
type Verdict string

const (
	VerdictPass       Verdict = "PASS"
	VerdictNoEvidence Verdict = "FAIL_NO_EVIDENCE"
	VerdictUnclear    Verdict = "FAIL_UNCLEAR"
	VerdictFormat     Verdict = "FAIL_FORMAT"
)

// RetryType identifies which upstream stage is being redone.
type RetryType string

const (
	RetryNone     RetryType = "none"
	RetryRetrieve RetryType = "retrieve"
	RetryGenerate RetryType = "generate"
)

// MaxRetries bounds the recovery loop. Once reached, validation is forced to
// PASS and the current draft is accepted as-is.
const MaxRetries = 2

// Stage names the pipeline states. The executor walks a table keyed by these.
type Stage string

const (
	StageRouteIntent     Stage = "route_intent"
	StageSmalltalk       Stage = "smalltalk"
	StageOfftopic        Stage = "offtopic"
	StageChatRef         Stage = "chat_ref"
	StagePlanSearch      Stage = "plan_search"
	StageQueryRewrite    Stage = "query_rewrite"
	StageRetrieve        Stage = "retrieve"
	StageRerankCompress  Stage = "rerank_compress"
	StageContextSanitize Stage = "context_sanitize"
	StageGenerate        Stage = "generate"
	StageSafetyCheck     Stage = "safety_check"
	StageValidate        Stage = "validate"
	StageRetrieveRetry   Stage = "retrieve_retry"
	StageGenerateRetry   Stage = "generate_retry"
	StageClarify         Stage = "clarify"
	StageEnd             Stage = "end"
)

// Evidence is a single retrieved unit. Owned by the retrieval adapter,
// read-only downstream.
type Evidence struct {
	Text           string
	SourceID       string
	Year           int
	Page           int
	ParentID       string
	DocType        string // "summary" | "fragment"
	FragmentIndex  int
	RelevanceScore float64
	FinalScore     float64
}

// Plan is the resolved search strategy for one turn.
// Invariant: FileFilters maps 1:1 to Years; Queries is never empty.
type Plan struct {
	Years            []int
	FileFilters      []string
	Queries          []string
	ResolvedQuestion string
}

// Retrieval holds the evidence set plus provenance metadata.
type Retrieval struct {
	Docs          []Evidence
	ParentIDs     []string
	FilesSearched []string
	DocCount      int
}

// MemorySnapshot is the lightweight cross-turn memory derived from recent
// history: what was discussed, about whom, for which years.
type MemorySnapshot struct {
	LastTopic  string
	LastCohort string
	LastYears  []int
	UserName   string
}

// StageNote records whether a stage produced its primary value or fell back.
// Fallback paths are first-class state, not incidental to error handling.
type StageNote struct {
	Stage    Stage  `json:"stage"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// TurnState is the single mutable record threaded through the pipeline for
// one user turn. Created fresh per turn; only the clarification marker
// survives across turns (via the session).
type TurnState struct {
	Input   string
	History []store.Message
	Memory  MemorySnapshot

	Intent   Intent
	Followup FollowupType

	Plan      Plan
	Retrieval Retrieval

	// Three successive transformations of the same evidence text. Each stage
	// consumes the most recent non-empty one.
	Context           string
	CompressedContext string
	SanitizedContext  string

	DraftAnswer string
	FinalAnswer string

	Verdict            Verdict
	ValidationNote     string // stated defect, fed to the correction-hint template
	ClarifyingQuestion string

	RetryCount int
	RetryType  RetryType
	Widened    bool // retrieval runs on the widened tier after a retrieve retry

	PendingClarification *store.Clarification // incoming, from the session
	IssuedClarification  *store.Clarification // outgoing, set by the clarify stage

	UsedDefaultYears bool

	SafetyPassed     bool
	SafetyCategories []string

	Notes []StageNote
}

// NoteOk records a stage that produced its primary value.
func (t *TurnState) NoteOk(stage Stage) {
	t.Notes = append(t.Notes, StageNote{Stage: stage})
}

// NoteFallback records a stage that fell back, and why.
func (t *TurnState) NoteFallback(stage Stage, reason string) {
	t.Notes = append(t.Notes, StageNote{Stage: stage, Fallback: true, Reason: reason})
}

// EvidenceText returns the most recent non-empty context transformation.
func (t *TurnState) EvidenceText() string {
	if t.SanitizedContext != "" {
		return t.SanitizedContext
	}
	if t.CompressedContext != "" {
		return t.CompressedContext
	}
	return t.Context
}
