package embedding

import "context"

// TaskType hints the embedding model at the retrieval role of the text.
const (
	TaskQuery    = "RETRIEVAL_QUERY"
	TaskDocument = "RETRIEVAL_DOCUMENT"
)

type ResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type Response struct {
	Embedding ResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*Response, error)
}
