package usecase

import (
	"strings"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

// JurisdictionResolver looks jurisdiction ids up by exact key only.
type JurisdictionResolver struct {
	catalog ports.JurisdictionCatalog
}

func NewJurisdictionResolver(catalog ports.JurisdictionCatalog) *JurisdictionResolver {
	return &JurisdictionResolver{catalog: catalog}
}

func (r *JurisdictionResolver) Resolve(id string) (domain.Resolution, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Resolution{}, &domain.ResolutionError{
			Kind:    domain.ErrJurisdictionNotSelected,
			Message: domain.MsgNoJurisdictionSelected,
		}
	}

	rec, ok := r.catalog.Lookup(id)
	if !ok {
		return domain.Resolution{}, &domain.ResolutionError{
			Kind:    domain.ErrJurisdictionNotFound,
			Message: domain.MsgJurisdictionNotFound,
		}
	}

	return domain.Resolution{
		ContactAddress:     rec.ContactAddress,
		CompetentAuthority: rec.CompetentAuthority,
		Reason:             selectionReasonText(rec),
		Jurisdiction:       rec,
	}, nil
}

func (r *JurisdictionResolver) Exists(id string) bool {
	_, ok := r.catalog.Lookup(id)
	return ok
}

func (r *JurisdictionResolver) List() []domain.RegionGroup {
	return r.catalog.ListAll()
}

func selectionReasonText(rec domain.JurisdictionRecord) string {
	if rec.SelectionReason == domain.ReasonCoincidence {
		return "PEC selezionata perché la sede coincide con la città indicata."
	}
	return "PEC selezionata perché la sede indicata è di competenza della Commissione territoriale di " + rec.CompetentAuthority + "."
}
