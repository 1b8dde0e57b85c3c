package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Watermill topic for corpus ingestion events.
	EmbedReportChunkTopic = "EMBED_REPORT_CHUNK"

	// Fixed replies for terminal fallbacks. The pipeline never surfaces a
	// raw error to the user.
	GenericFailureReply = "죄송합니다. 답변을 준비하는 중 문제가 발생했어요. 잠시 후 다시 시도해 주세요."
	NoResultsReply      = "검색 결과에서 질문에 해당하는 내용을 찾지 못했습니다. 연도나 대상(유아동/청소년/성인/60대)을 바꾸어 다시 질문해 주세요."
	OfftopicReply       = "저는 2020년부터 2024년까지의 스마트폰 과의존 실태조사 보고서에 대해서만 답변할 수 있어요. 조사 결과에 대해 질문해 주세요."
	FallbackGreeting    = "안녕하세요! 스마트폰 과의존 실태조사(2020~2024)에 대해 무엇이든 물어보세요."

	// Appended to the final answer whenever the implicit default-year window
	// was substituted. The substitution must always be disclosed.
	DefaultYearsNotice = "\n\n※ 질문에 연도가 없어 최근 2개년(2023년, 2024년) 보고서를 기준으로 답변했어요."

	// Generic clarification when the validator did not suggest one.
	FallbackClarification = "질문을 조금 더 구체적으로 해주시겠어요? 어느 연도(2020~2024)와 어느 대상(유아동/청소년/성인/60대)에 대한 내용인지 알려주시면 정확히 찾아드릴게요."
)
