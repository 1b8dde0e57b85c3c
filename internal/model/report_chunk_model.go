package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type ReportChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceId       string          `gorm:"type:varchar(64);not null;index"`
	Year           int             `gorm:"not null;index"`
	Page           int             `gorm:"not null"`
	ParentId       string          `gorm:"type:varchar(128);not null;index"`
	DocType        string          `gorm:"type:varchar(16);not null;index"`
	FragmentIndex  int             `gorm:"default:0"`
	Content        string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1024)"` // jina-embeddings-v3 uses 1024 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (ReportChunk) TableName() string {
	return "report_chunks"
}
