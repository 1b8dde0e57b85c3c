package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"survey-chat-be/pkg/embedding"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	Task  string   `json:"task,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		// v3 handles Korean text; v2-base-en does not.
		model:  "jina-embeddings-v3",
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.Response, error) {
	task := "retrieval.passage"
	if taskType == embedding.TaskQuery {
		task = "retrieval.query"
	}

	// Jina docs recommend array of inputs. We wrap single text.
	reqBody := embeddingRequest{
		Model: p.model,
		Input: []string{text},
		Task:  task,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}

	if len(jinaResp.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings from jina api")
	}

	return &embedding.Response{
		Embedding: embedding.ResponseEmbedding{
			Values: jinaResp.Data[0].Embedding,
		},
	}, nil
}
