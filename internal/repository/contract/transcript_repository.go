package contract

import (
	"context"

	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/repository/specification"
)

// ScoredTranscript wraps a transcript with its cosine distance to the query
// embedding. Distance is ascending, 0.0 = identical.
type ScoredTranscript struct {
	Transcript *entity.Transcript
	Distance   float64
}

type TranscriptRepository interface {
	Create(ctx context.Context, transcript *entity.Transcript) error
	CreateBulk(ctx context.Context, transcripts []*entity.Transcript) error
	// CreateIfAbsent inserts only when no row with the same content and
	// session/turn key exists. Returns true when a row was inserted.
	CreateIfAbsent(ctx context.Context, transcript *entity.Transcript) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transcript, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transcript, error)
	// FindBySessionTurn resolves the (session, turn) join key. Missing rows
	// return nil, nil.
	FindBySessionTurn(ctx context.Context, sessionID string, turnIndex int) (*entity.Transcript, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// ScanAll streams the whole corpus in insertion order for index builds.
	ScanAll(ctx context.Context) ([]*entity.Transcript, error)
	// Advanced
	SearchSimilarWithDistance(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*ScoredTranscript, error)
	// DistanceToQuery computes the distance between the query embedding and
	// one specific (session, turn) row. Missing rows return nil, nil.
	DistanceToQuery(ctx context.Context, embedding []float32, sessionID string, turnIndex int) (*ScoredTranscript, error)
}
