package mapper

import (
	"time"

	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/model"
	"counseling-rag-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TranscriptMapper struct{}

func NewTranscriptMapper() *TranscriptMapper {
	return &TranscriptMapper{}
}

func (m *TranscriptMapper) ToEntity(t *model.TranscriptEmbedding) *entity.Transcript {
	if t == nil {
		return nil
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Transcript{
		Id:                t.Id,
		Content:           t.Content,
		Embedding:         t.EmbeddingValue.Slice(),
		SessionID:         t.SessionID,
		TurnIndex:         t.TurnIndex,
		HasTurn:           t.HasTurn,
		Category:          t.Category,
		Speaker:           t.Speaker,
		CounselorResponse: t.CounselorResponse,
		Severity:          t.Severity,
		Extra:             map[string]any(t.Extra),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *TranscriptMapper) ToModel(t *entity.Transcript) *model.TranscriptEmbedding {
	if t == nil {
		return nil
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.TranscriptEmbedding{
		Id:                t.Id,
		Content:           t.Content,
		EmbeddingValue:    pgvector.NewVector(t.Embedding),
		SessionID:         t.SessionID,
		TurnIndex:         t.TurnIndex,
		HasTurn:           t.HasTurn,
		Category:          t.Category,
		Speaker:           t.Speaker,
		CounselorResponse: t.CounselorResponse,
		Severity:          t.Severity,
		Extra:             datatypes.JSONMap(t.Extra),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *TranscriptMapper) ToEntities(rows []*model.TranscriptEmbedding) []*entity.Transcript {
	entities := make([]*entity.Transcript, len(rows))
	for i, t := range rows {
		entities[i] = m.ToEntity(t)
	}
	return entities
}

// ToMetadata projects the model row onto the retrieval-layer metadata view.
func (m *TranscriptMapper) ToMetadata(t *model.TranscriptEmbedding) store.Metadata {
	return store.Metadata{
		SessionID:         t.SessionID,
		TurnIndex:         t.TurnIndex,
		HasTurn:           t.HasTurn,
		Category:          t.Category,
		Speaker:           t.Speaker,
		CounselorResponse: t.CounselorResponse,
		Severity:          t.Severity,
		Extra:             map[string]any(t.Extra),
	}
}

// ToDocument converts a stored row into the read-only form the indexers consume.
func (m *TranscriptMapper) ToDocument(t *model.TranscriptEmbedding) store.Document {
	return store.Document{
		ID:      t.Id.String(),
		Content: t.Content,
		Meta:    m.ToMetadata(t),
	}
}
