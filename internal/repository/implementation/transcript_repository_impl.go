package implementation

import (
	"context"
	"errors"

	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/mapper"
	"counseling-rag-be/internal/model"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TranscriptRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TranscriptMapper
}

func NewTranscriptRepository(db *gorm.DB) contract.TranscriptRepository {
	return &TranscriptRepositoryImpl{
		db:     db,
		mapper: mapper.NewTranscriptMapper(),
	}
}

func (r *TranscriptRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranscriptRepositoryImpl) Create(ctx context.Context, transcript *entity.Transcript) error {
	m := r.mapper.ToModel(transcript)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*transcript = *r.mapper.ToEntity(m)
	return nil
}

func (r *TranscriptRepositoryImpl) CreateBulk(ctx context.Context, transcripts []*entity.Transcript) error {
	models := make([]*model.TranscriptEmbedding, len(transcripts))
	for i, t := range transcripts {
		models[i] = r.mapper.ToModel(t)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, 200).Error; err != nil {
		return err
	}

	for i, m := range models {
		*transcripts[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// CreateIfAbsent keeps ingestion idempotent: re-running the loader over the
// same corpus never duplicates a turn.
func (r *TranscriptRepositoryImpl) CreateIfAbsent(ctx context.Context, transcript *entity.Transcript) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.TranscriptEmbedding{}).Where("content = ?", transcript.Content)
	if transcript.HasTurn {
		query = query.Where("session_id = ? AND turn_index = ?", transcript.SessionID, transcript.TurnIndex)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := r.Create(ctx, transcript); err != nil {
		return false, err
	}
	return true, nil
}

func (r *TranscriptRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transcript, error) {
	var m model.TranscriptEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TranscriptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transcript, error) {
	var models []*model.TranscriptEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TranscriptRepositoryImpl) FindBySessionTurn(ctx context.Context, sessionID string, turnIndex int) (*entity.Transcript, error) {
	return r.FindOne(ctx, specification.BySessionTurn{SessionID: sessionID, TurnIndex: turnIndex})
}

func (r *TranscriptRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TranscriptEmbedding{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ScanAll loads the whole corpus in insertion order. The lexical indexers
// assign document ordinals from this order, so it must be stable.
func (r *TranscriptRepositoryImpl) ScanAll(ctx context.Context) ([]*entity.Transcript, error) {
	var models []*model.TranscriptEmbedding
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

// SearchSimilarWithDistance runs a cosine nearest-neighbour query.
// pgvector's <=> operator yields cosine distance directly, so no conversion
// is needed to match the ascending-distance convention.
func (r *TranscriptRepositoryImpl) SearchSimilarWithDistance(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredTranscript, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.TranscriptEmbedding
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("transcript_embeddings").
		Select("transcript_embeddings.*, embedding_value <=> ? as distance", queryVector)
	query = r.applySpecifications(query, specs...)

	err := query.
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTranscript, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTranscript{
			Transcript: r.mapper.ToEntity(&res.TranscriptEmbedding),
			Distance:   res.Distance,
		}
	}
	return scored, nil
}

// DistanceToQuery scores one specific (session, turn) row against the query
// embedding. Missing rows return nil, nil.
func (r *TranscriptRepositoryImpl) DistanceToQuery(ctx context.Context, embedding []float32, sessionID string, turnIndex int) (*contract.ScoredTranscript, error) {
	type result struct {
		model.TranscriptEmbedding
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("transcript_embeddings").
		Select("transcript_embeddings.*, embedding_value <=> ? as distance", queryVector).
		Where("session_id = ? AND turn_index = ? AND has_turn = true", sessionID, turnIndex).
		Limit(1).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	return &contract.ScoredTranscript{
		Transcript: r.mapper.ToEntity(&results[0].TranscriptEmbedding),
		Distance:   results[0].Distance,
	}, nil
}
