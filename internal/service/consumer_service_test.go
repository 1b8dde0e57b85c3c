package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"survey-chat-be/internal/dto"
	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/repository/contract"
	"survey-chat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
)

type fakeEmbeddingProvider struct {
	err error
}

func (p fakeEmbeddingProvider) Generate(_ context.Context, _ string, _ string) (*embedding.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &embedding.Response{Embedding: embedding.ResponseEmbedding{Values: []float32{0.1, 0.2}}}, nil
}

type fakeChunkRepo struct {
	created []*entity.ReportChunk
}

func (r *fakeChunkRepo) CreateBulk(_ context.Context, chunks []*entity.ReportChunk) error {
	r.created = append(r.created, chunks...)
	return nil
}

func (r *fakeChunkRepo) DeleteBySourceId(_ context.Context, _ string) error { return nil }

func (r *fakeChunkRepo) CountBySourceId(_ context.Context, _ string) (int64, error) { return 0, nil }

func (r *fakeChunkRepo) SearchSimilarWithScore(_ context.Context, _ []float32, _ int, _ []string, _ float64) ([]*contract.ScoredReportChunk, error) {
	return nil, nil
}

func (r *fakeChunkRepo) FindByParentId(_ context.Context, _ string) ([]*entity.ReportChunk, error) {
	return nil, nil
}

func newTestConsumer(provider embedding.EmbeddingProvider, repo contract.ReportChunkRepository, log *spyLogger) *consumerService {
	return NewConsumerService(nil, "embed.report.chunk", repo, provider, log).(*consumerService)
}

func assertAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Fatal("message was not acked")
	}
}

func assertNacked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Nacked():
	case <-time.After(time.Second):
		t.Fatal("message was not nacked")
	}
}

func TestProcessMessage(t *testing.T) {
	payload := dto.EmbedReportChunkMessage{
		SourceId: "report_2024",
		Year:     2024,
		Page:     12,
		DocType:  "summary",
		Content:  "청소년 과의존 위험군 비율",
	}
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)

	t.Run("valid message is embedded and persisted", func(t *testing.T) {
		spy := &spyLogger{}
		repo := &fakeChunkRepo{}
		cs := newTestConsumer(fakeEmbeddingProvider{}, repo, spy)

		msg := message.NewMessage(watermill.NewUUID(), raw)
		cs.processMessage(context.Background(), msg)

		assertAcked(t, msg)
		assert.Len(t, repo.created, 1)
		assert.Equal(t, "report_2024", repo.created[0].SourceId)
		assert.Equal(t, []float32{0.1, 0.2}, repo.created[0].EmbeddingValue)
	})

	t.Run("malformed payload is logged and acked", func(t *testing.T) {
		spy := &spyLogger{}
		repo := &fakeChunkRepo{}
		cs := newTestConsumer(fakeEmbeddingProvider{}, repo, spy)

		msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
		cs.processMessage(context.Background(), msg)

		assertAcked(t, msg)
		assert.Empty(t, repo.created)
		assert.True(t, spy.has("ERROR", "ConsumerService", "Failed to unmarshal chunk message"))
	})

	t.Run("embedding failure is logged and nacked", func(t *testing.T) {
		spy := &spyLogger{}
		repo := &fakeChunkRepo{}
		cs := newTestConsumer(fakeEmbeddingProvider{err: errors.New("provider down")}, repo, spy)

		msg := message.NewMessage(watermill.NewUUID(), raw)
		cs.processMessage(context.Background(), msg)

		assertNacked(t, msg)
		assert.Empty(t, repo.created)
		assert.True(t, spy.has("ERROR", "ConsumerService", "Failed to embed chunk"))
	})
}
