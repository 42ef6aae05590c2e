package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TranscriptEmbedding struct {
	Id                uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content           string            `gorm:"type:text;not null"`
	EmbeddingValue    pgvector.Vector   `gorm:"type:vector(768)"`
	SessionID         string            `gorm:"type:varchar(100);index:idx_session_turn"`
	TurnIndex         int               `gorm:"default:0;index:idx_session_turn"`
	HasTurn           bool              `gorm:"default:false"`
	Category          string            `gorm:"type:varchar(100);index"`
	Speaker           string            `gorm:"type:varchar(50)"`
	CounselorResponse string            `gorm:"type:text"`
	Severity          int               `gorm:"default:0"`
	Extra             datatypes.JSONMap `gorm:"type:jsonb"` // metadata keys the core never reads
	CreatedAt         time.Time         `gorm:"autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime"`
}

func (TranscriptEmbedding) TableName() string {
	return "transcript_embeddings"
}
