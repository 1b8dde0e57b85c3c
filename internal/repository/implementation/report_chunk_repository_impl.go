package implementation

import (
	"context"

	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/mapper"
	"survey-chat-be/internal/model"
	"survey-chat-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ReportChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportChunkMapper
}

func NewReportChunkRepository(db *gorm.DB) contract.ReportChunkRepository {
	return &ReportChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportChunkMapper(),
	}
}

func (r *ReportChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.ReportChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ReportChunkRepositoryImpl) DeleteBySourceId(ctx context.Context, sourceId string) error {
	return r.db.WithContext(ctx).Where("source_id = ?", sourceId).Delete(&model.ReportChunk{}).Error
}

func (r *ReportChunkRepositoryImpl) CountBySourceId(ctx context.Context, sourceId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ReportChunk{}).
		Where("source_id = ?", sourceId).
		Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns summary chunks with similarity scores.
// Cosine distance in pgvector is 1 - cosine_similarity, so similarity is
// computed as 1 - (embedding_value <=> query_vector).
func (r *ReportChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, sourceIds []string, threshold float64) ([]*contract.ScoredReportChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ReportChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("report_chunks").
		Select("report_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("doc_type = ?", "summary").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold)

	if len(sourceIds) > 0 {
		query = query.Where("source_id IN ?", sourceIds)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredReportChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredReportChunk{
			Chunk:      r.mapper.ToEntity(&res.ReportChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *ReportChunkRepositoryImpl) FindByParentId(ctx context.Context, parentId string) ([]*entity.ReportChunk, error) {
	var models []*model.ReportChunk
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentId).
		Where("doc_type = ?", "fragment").
		Order("fragment_index ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
