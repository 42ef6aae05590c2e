package model

import (
	"time"

	"github.com/google/uuid"
)

type ExpertReferral struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Query         string    `gorm:"type:text"`
	Reason        string    `gorm:"type:varchar(100);not null"`
	Severity      int       `gorm:"default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (ExpertReferral) TableName() string {
	return "expert_referrals"
}
