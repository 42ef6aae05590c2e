package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExpertReferral records one escalation decision, either from the crisis
// fast path or from a referral tag emitted by the answer model.
type ExpertReferral struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;index"`
	Query         string
	Reason        string
	Severity      int
	CreatedAt     time.Time
}
