package mapper

import (
	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ReportChunkMapper struct{}

func NewReportChunkMapper() *ReportChunkMapper {
	return &ReportChunkMapper{}
}

func (m *ReportChunkMapper) ToEntity(e *model.ReportChunk) *entity.ReportChunk {
	if e == nil {
		return nil
	}

	return &entity.ReportChunk{
		Id:             e.Id,
		SourceId:       e.SourceId,
		Year:           e.Year,
		Page:           e.Page,
		ParentId:       e.ParentId,
		DocType:        e.DocType,
		FragmentIndex:  e.FragmentIndex,
		Content:        e.Content,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ReportChunkMapper) ToModel(e *entity.ReportChunk) *model.ReportChunk {
	if e == nil {
		return nil
	}

	return &model.ReportChunk{
		Id:             e.Id,
		SourceId:       e.SourceId,
		Year:           e.Year,
		Page:           e.Page,
		ParentId:       e.ParentId,
		DocType:        e.DocType,
		FragmentIndex:  e.FragmentIndex,
		Content:        e.Content,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ReportChunkMapper) ToEntities(chunks []*model.ReportChunk) []*entity.ReportChunk {
	entities := make([]*entity.ReportChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ReportChunkMapper) ToModels(chunks []*entity.ReportChunk) []*model.ReportChunk {
	models := make([]*model.ReportChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
