package specification

import "gorm.io/gorm"

// ByCategory filters transcripts by counseling category.
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// BySpeaker filters transcripts by speaker role (내담자/상담사).
type BySpeaker struct {
	Speaker string
}

func (s BySpeaker) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("speaker = ?", s.Speaker)
}

// MinSeverity keeps transcripts at or above a severity level.
type MinSeverity struct {
	Severity int
}

func (s MinSeverity) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("severity >= ?", s.Severity)
}

// BySessionTurn matches the (session_id, turn_index) join key.
type BySessionTurn struct {
	SessionID string
	TurnIndex int
}

func (s BySessionTurn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ? AND turn_index = ? AND has_turn = true", s.SessionID, s.TurnIndex)
}
