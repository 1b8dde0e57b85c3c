// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"survey-chat-be/internal/dto"
	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/pkg/logger"
	"survey-chat-be/internal/repository/contract"
	"survey-chat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService embeds and persists report chunks published by the seeder.
// Keeping embedding off the publish path means seeding large reports never
// blocks on the embedding provider.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunkRepo         contract.ReportChunkRepository
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.ReportChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedReportChunkMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal chunk message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	res, err := cs.embeddingProvider.Generate(ctx, payload.Content, embedding.TaskDocument)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to embed chunk", map[string]interface{}{
			"source_id": payload.SourceId,
			"page":      payload.Page,
			"error":     err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	chunk := &entity.ReportChunk{
		Id:             uuid.New(),
		SourceId:       payload.SourceId,
		Year:           payload.Year,
		Page:           payload.Page,
		ParentId:       payload.ParentId,
		DocType:        payload.DocType,
		FragmentIndex:  payload.FragmentIndex,
		Content:        payload.Content,
		EmbeddingValue: res.Embedding.Values,
		CreatedAt:      time.Now(),
	}

	if err := cs.chunkRepo.CreateBulk(ctx, []*entity.ReportChunk{chunk}); err != nil {
		cs.logger.Error("ConsumerService", "Failed to persist chunk", map[string]interface{}{
			"source_id": payload.SourceId,
			"page":      payload.Page,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
