package service

import (
	"context"
	"fmt"

	"survey-chat-be/internal/repository/contract"
	"survey-chat-be/pkg/embedding"
	"survey-chat-be/pkg/rag/state"
)

// similarityThreshold drops hits with near-zero cosine similarity; they are
// noise that would only consume evidence slots.
const similarityThreshold = 0.25

// VectorSearcher bridges the retrieval adapter to the embedding provider and
// the pgvector-backed chunk repository.
type VectorSearcher struct {
	embeddingProvider embedding.EmbeddingProvider
	chunkRepo         contract.ReportChunkRepository
}

func NewVectorSearcher(embeddingProvider embedding.EmbeddingProvider, chunkRepo contract.ReportChunkRepository) *VectorSearcher {
	return &VectorSearcher{
		embeddingProvider: embeddingProvider,
		chunkRepo:         chunkRepo,
	}
}

func (s *VectorSearcher) Search(ctx context.Context, query string, k int, sourceIDs []string) ([]state.Evidence, error) {
	res, err := s.embeddingProvider.Generate(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	scored, err := s.chunkRepo.SearchSimilarWithScore(ctx, res.Embedding.Values, k, sourceIDs, similarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	docs := make([]state.Evidence, 0, len(scored))
	for _, sc := range scored {
		docs = append(docs, state.Evidence{
			Text:           sc.Chunk.Content,
			SourceID:       sc.Chunk.SourceId,
			Year:           sc.Chunk.Year,
			Page:           sc.Chunk.Page,
			ParentID:       sc.Chunk.ParentId,
			DocType:        sc.Chunk.DocType,
			FragmentIndex:  sc.Chunk.FragmentIndex,
			RelevanceScore: sc.Similarity,
		})
	}
	return docs, nil
}

func (s *VectorSearcher) GetByParent(ctx context.Context, parentID string) ([]state.Evidence, error) {
	chunks, err := s.chunkRepo.FindByParentId(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("fragment fetch: %w", err)
	}

	docs := make([]state.Evidence, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, state.Evidence{
			Text:          c.Content,
			SourceID:      c.SourceId,
			Year:          c.Year,
			Page:          c.Page,
			ParentID:      c.ParentId,
			DocType:       c.DocType,
			FragmentIndex: c.FragmentIndex,
		})
	}
	return docs, nil
}
