package service

import (
	"encoding/json"
	"fmt"

	"survey-chat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	PublishChunk(payload *dto.EmbedReportChunkMessage) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishChunk(payload *dto.EmbedReportChunkMessage) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal chunk payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	return ps.pubSub.Publish(ps.topicName, msg)
}
