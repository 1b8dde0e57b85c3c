package constant

const (
	// IntentRoutingPrompt is the 4-way fallback classification used only when
	// no keyword/year/follow-up signal already forced the RAG path.
	// Args: recent history, user input.
	IntentRoutingPrompt = `You are an intent router for a survey-report Q&A assistant.
The assistant answers questions about Korean smartphone overdependence survey reports (2020-2024).

Recent conversation:
%s

User input: "%s"

Classify the input into exactly one of:
- SMALLTALK: greetings, thanks, social chat
- RAG: any question that could be answered from the survey reports
- OFFTOPIC: a question unrelated to the surveys (weather, coding, recipes, ...)
- CHAT_REF: a question about this conversation itself (what was asked, user's name)

Respond with ONLY the label, nothing else.`

	// PlannerPrompt asks for a structured search plan.
	// Args: memory context block, user question.
	PlannerPrompt = `You are a search planner for a Korean survey-report Q&A system.
The corpus is five yearly reports (2020, 2021, 2022, 2023, 2024) on smartphone overdependence.

%s
User question: "%s"

Produce a retrieval plan. Rules:
- "years": the report years the question targets (subset of 2020-2024). Empty list if none can be inferred.
- "resolved_question": the question rewritten as a fully self-contained Korean question. If this is a follow-up, substitute the inherited topic/cohort/years so it stands alone.
- "queries": 3 to 5 short Korean search queries covering the question from different angles (statistic name, cohort, risk tier).

Output ONLY valid JSON:
{"years": [2024], "resolved_question": "...", "queries": ["...", "...", "..."]}`

	// QueryRewritePrompt expands and cleans the query set.
	// Args: resolved question, JSON array of current queries.
	QueryRewritePrompt = `You refine search queries for a Korean survey-report retrieval system.

Question: "%s"
Current queries: %s

Rewrite the queries: remove filler words, keep statistic/cohort/year terms, add at most two new phrasings a survey report would use. Keep every query in Korean and under 60 characters.

Output ONLY a JSON array of strings: ["...", "..."]`

	// AnswerPrompt is the first-attempt generation template.
	// Args: evidence context, user question.
	AnswerPrompt = `<grounded_reference_material>
아래는 스마트폰 과의존 실태조사 보고서에서 검색된 근거 자료입니다. 이것이 유일한 데이터 소스입니다. 외부 지식을 사용하지 마세요.

%s
</grounded_reference_material>

<task_instructions>
근거 자료만 사용하여 질문에 답하세요.
1. 수치를 인용할 때는 반드시 출처 태그([2024 p.12] 형식)를 함께 표기하세요.
2. 여러 연도를 비교하는 질문이면 연도별 수치를 표로 정리하세요.
3. 근거 자료에 없는 내용은 "검색 결과에서 찾을 수 없습니다"라고 명시하세요.
4. 답변은 한국어로, 간결하고 정확하게 작성하세요.
</task_instructions>

질문: %s`

	// AnswerRetryPrompt is the retry-with-correction-hint template.
	// Args: evidence context, stated defect from validation, user question.
	AnswerRetryPrompt = `<grounded_reference_material>
아래는 스마트폰 과의존 실태조사 보고서에서 검색된 근거 자료입니다. 이것이 유일한 데이터 소스입니다. 외부 지식을 사용하지 마세요.

%s
</grounded_reference_material>

<correction>
이전 답변은 다음 문제로 거부되었습니다: %s
이 문제를 반드시 수정하여 다시 답변하세요.
</correction>

<task_instructions>
근거 자료만 사용하여 질문에 답하세요. 출처 태그([연도 p.쪽] 형식)를 표기하고, 근거에 없는 내용은 "검색 결과에서 찾을 수 없습니다"라고 명시하세요.
</task_instructions>

질문: %s`

	// ValidationPrompt asks for a structured verdict on the draft.
	// Args: user question, bounded evidence excerpt, draft answer.
	ValidationPrompt = `You are a strict answer validator for a survey-report Q&A system.

Question: "%s"

Evidence (excerpt):
%s

Draft answer:
%s

Judge the draft:
- PASS: grounded in the evidence and answers the question
- FAIL_NO_EVIDENCE: the evidence does not contain what the question asks for
- FAIL_UNCLEAR: the question is too ambiguous to answer correctly
- FAIL_FORMAT: grounded but malformed (missing citations, missing numbers, wrong structure)

Output ONLY valid JSON:
{"verdict": "PASS", "reason": "...", "corrected_answer": null, "clarifying_question": null}
- "corrected_answer": an improved full answer, only when a small fix makes the draft PASS.
- "clarifying_question": a short Korean question for the user, only with FAIL_UNCLEAR.`

	// ChatRefPrompt answers questions about the conversation itself.
	// Args: recent history, user question.
	ChatRefPrompt = `다음은 지금까지의 대화 기록입니다:

%s

사용자가 대화 자체에 대해 질문했습니다: "%s"

대화 기록만 근거로 한국어로 짧게 답하세요. 기록에 없는 내용은 추측하지 마세요.`

	// SmalltalkPrompt keeps casual replies on brand.
	// Args: user input.
	SmalltalkPrompt = `너는 스마트폰 과의존 실태조사(2020-2024) 보고서 질의응답 도우미야.
사용자가 인사나 가벼운 대화를 건넸어: "%s"
한두 문장으로 친근하게 한국어로 답하고, 조사 결과에 대해 질문할 수 있다고 자연스럽게 안내해.`
)
