package ports

import (
	"context"

	"github.com/kirillkom/procura/internal/core/domain"
)

// ApplicantValidator turns raw form input into a normalized record.
type ApplicantValidator interface {
	Validate(raw domain.ApplicantInput) (domain.NormalizedRecord, error)
}

// JurisdictionResolver maps a jurisdiction id to its PEC address and authority.
type JurisdictionResolver interface {
	Resolve(id string) (domain.Resolution, error)
	Exists(id string) bool
	List() []domain.RegionGroup
}

// EmailComposer builds the PEC subject and body.
type EmailComposer interface {
	Compose(rec domain.NormalizedRecord, authority string) domain.GeneratedEmail
}

// ProcuraRenderer produces the power-of-attorney artifact.
type ProcuraRenderer interface {
	Render(ctx context.Context, rec domain.NormalizedRecord) (*domain.RenderedDocument, error)
}

// ProcuraPipeline is the caller contract used by every presentation surface.
type ProcuraPipeline interface {
	Validate(raw domain.ApplicantInput) (domain.NormalizedRecord, error)
	Resolve(id string) (domain.Resolution, error)
	ListJurisdictions() []domain.RegionGroup
	RenderOnly(ctx context.Context, raw domain.ApplicantInput) (*domain.Outcome, error)
	Email(ctx context.Context, raw domain.ApplicantInput) (*domain.Outcome, error)
	GenerateAll(ctx context.Context, raw domain.ApplicantInput) (*domain.Outcome, error)
}
