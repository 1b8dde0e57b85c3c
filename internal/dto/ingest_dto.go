package dto

// EmbedReportChunkMessage is the watermill payload for one chunk awaiting
// embedding. The consumer generates the vector and persists the chunk.
type EmbedReportChunkMessage struct {
	SourceId      string `json:"source_id"`
	Year          int    `json:"year"`
	Page          int    `json:"page"`
	ParentId      string `json:"parent_id"`
	DocType       string `json:"doc_type"` // "summary" | "fragment"
	FragmentIndex int    `json:"fragment_index"`
	Content       string `json:"content"`
}
