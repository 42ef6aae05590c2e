package implementation

import (
	"context"

	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/mapper"
	"counseling-rag-be/internal/model"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ExpertReferralRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ExpertReferralMapper
}

func NewExpertReferralRepository(db *gorm.DB) contract.ExpertReferralRepository {
	return &ExpertReferralRepositoryImpl{
		db:     db,
		mapper: mapper.NewExpertReferralMapper(),
	}
}

func (r *ExpertReferralRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ExpertReferralRepositoryImpl) Create(ctx context.Context, referral *entity.ExpertReferral) error {
	m := r.mapper.ToModel(referral)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*referral = *r.mapper.ToEntity(m)
	return nil
}

func (r *ExpertReferralRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExpertReferral, error) {
	var models []*model.ExpertReferral
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ExpertReferral, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ExpertReferralRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ExpertReferral{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
