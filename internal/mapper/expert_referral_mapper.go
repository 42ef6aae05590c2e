package mapper

import (
	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/model"
)

type ExpertReferralMapper struct{}

func NewExpertReferralMapper() *ExpertReferralMapper {
	return &ExpertReferralMapper{}
}

func (m *ExpertReferralMapper) ToEntity(r *model.ExpertReferral) *entity.ExpertReferral {
	if r == nil {
		return nil
	}

	return &entity.ExpertReferral{
		Id:            r.Id,
		ChatSessionId: r.ChatSessionId,
		Query:         r.Query,
		Reason:        r.Reason,
		Severity:      r.Severity,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *ExpertReferralMapper) ToModel(r *entity.ExpertReferral) *model.ExpertReferral {
	if r == nil {
		return nil
	}

	return &model.ExpertReferral{
		Id:            r.Id,
		ChatSessionId: r.ChatSessionId,
		Query:         r.Query,
		Reason:        r.Reason,
		Severity:      r.Severity,
		CreatedAt:     r.CreatedAt,
	}
}
