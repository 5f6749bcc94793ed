package httpadapter

import (
	"context"

	"github.com/kirillkom/procura/internal/core/domain"
)

type fakePipeline struct{}

func (fakePipeline) Validate(domain.ApplicantInput) (domain.NormalizedRecord, error) {
	return domain.NormalizedRecord{}, nil
}

func (fakePipeline) Resolve(string) (domain.Resolution, error) {
	return domain.Resolution{}, &domain.ResolutionError{Kind: domain.ErrJurisdictionNotFound, Message: domain.MsgJurisdictionNotFound}
}

func (fakePipeline) ListJurisdictions() []domain.RegionGroup {
	return nil
}

func (fakePipeline) RenderOnly(context.Context, domain.ApplicantInput) (*domain.Outcome, error) {
	return nil, &domain.RenderError{Err: context.Canceled}
}

func (fakePipeline) Email(context.Context, domain.ApplicantInput) (*domain.Outcome, error) {
	return &domain.Outcome{}, nil
}

func (fakePipeline) GenerateAll(context.Context, domain.ApplicantInput) (*domain.Outcome, error) {
	return &domain.Outcome{}, nil
}
