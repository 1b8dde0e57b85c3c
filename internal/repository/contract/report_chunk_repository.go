package contract

import (
	"context"

	"survey-chat-be/internal/entity"
)

// ScoredReportChunk wraps ReportChunk with its cosine similarity score.
type ScoredReportChunk struct {
	Chunk      *entity.ReportChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type ReportChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.ReportChunk) error
	DeleteBySourceId(ctx context.Context, sourceId string) error
	CountBySourceId(ctx context.Context, sourceId string) (int64, error)

	// SearchSimilarWithScore runs cosine similarity over summary-type chunks,
	// optionally restricted to the given source ids, filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, sourceIds []string, threshold float64) ([]*ScoredReportChunk, error)

	// FindByParentId returns the fragment chunks under a parent, ordered by
	// fragment index.
	FindByParentId(ctx context.Context, parentId string) ([]*entity.ReportChunk, error)
}
