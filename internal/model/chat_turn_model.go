package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatTurn struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId  string         `gorm:"type:varchar(64);not null;index"`
	UserInput  string         `gorm:"type:text;not null"`
	Answer     string         `gorm:"type:text"`
	Intent     string         `gorm:"type:varchar(16)"`
	Verdict    string         `gorm:"type:varchar(32)"`
	RetryCount int            `gorm:"default:0"`
	DebugTrace datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
