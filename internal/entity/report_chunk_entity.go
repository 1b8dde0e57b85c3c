package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReportChunk is one retrievable unit of a survey report: either a page-level
// summary (the vector-searched unit) or a detail fragment under a parent
// summary.
type ReportChunk struct {
	Id             uuid.UUID
	SourceId       string // e.g. "report_2024"
	Year           int
	Page           int
	ParentId       string // groups a summary with its fragments
	DocType        string // "summary" | "fragment"
	FragmentIndex  int
	Content        string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
