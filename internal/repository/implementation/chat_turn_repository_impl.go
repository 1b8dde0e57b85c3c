package implementation

import (
	"context"

	"survey-chat-be/internal/entity"
	"survey-chat-be/internal/mapper"
	"survey-chat-be/internal/model"
	"survey-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ChatTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatTurnMapper
}

func NewChatTurnRepository(db *gorm.DB) contract.ChatTurnRepository {
	return &ChatTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatTurnMapper(),
	}
}

func (r *ChatTurnRepositoryImpl) Create(ctx context.Context, turn *entity.ChatTurn) error {
	m := r.mapper.ToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatTurnRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	var models []*model.ChatTurn
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
