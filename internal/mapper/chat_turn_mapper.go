package mapper

import (
	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatTurnMapper struct{}

func NewChatTurnMapper() *ChatTurnMapper {
	return &ChatTurnMapper{}
}

func (m *ChatTurnMapper) ToEntity(e *model.ChatTurn) *entity.ChatTurn {
	if e == nil {
		return nil
	}

	return &entity.ChatTurn{
		Id:         e.Id,
		SessionId:  e.SessionId,
		UserInput:  e.UserInput,
		Answer:     e.Answer,
		Intent:     e.Intent,
		Verdict:    e.Verdict,
		RetryCount: e.RetryCount,
		DebugTrace: []byte(e.DebugTrace),
		CreatedAt:  e.CreatedAt,
	}
}

func (m *ChatTurnMapper) ToModel(e *entity.ChatTurn) *model.ChatTurn {
	if e == nil {
		return nil
	}

	return &model.ChatTurn{
		Id:         e.Id,
		SessionId:  e.SessionId,
		UserInput:  e.UserInput,
		Answer:     e.Answer,
		Intent:     e.Intent,
		Verdict:    e.Verdict,
		RetryCount: e.RetryCount,
		DebugTrace: datatypes.JSON(e.DebugTrace),
		CreatedAt:  e.CreatedAt,
	}
}

func (m *ChatTurnMapper) ToEntities(turns []*model.ChatTurn) []*entity.ChatTurn {
	entities := make([]*entity.ChatTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
