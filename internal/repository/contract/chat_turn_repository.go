package contract

import (
	"context"

	"survey-chat-be/internal/entity"
)

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	FindBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatTurn, error)
}
