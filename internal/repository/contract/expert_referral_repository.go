package contract

import (
	"context"

	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/repository/specification"
)

type ExpertReferralRepository interface {
	Create(ctx context.Context, referral *entity.ExpertReferral) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExpertReferral, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
