package entity

import (
	"time"

	"github.com/google/uuid"
)

// Transcript is one counseling turn from the ingested corpus together with
// its retrieval metadata and embedding distance bookkeeping.
type Transcript struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content           string
	Embedding         []float32
	SessionID         string
	TurnIndex         int
	HasTurn           bool
	Category          string
	Speaker           string
	CounselorResponse string
	Severity          int
	Extra             map[string]any
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
