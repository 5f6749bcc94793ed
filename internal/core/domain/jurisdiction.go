package domain

type SelectionReason string

const (
	// ReasonCoincidence marks a location that is itself the authority seat.
	ReasonCoincidence SelectionReason = "coincidenza"
	// ReasonDelegation marks a location served by another seat.
	ReasonDelegation SelectionReason = "delega"
)

func (r SelectionReason) Valid() bool {
	return r == ReasonCoincidence || r == ReasonDelegation
}

// DefaultRegion groups records that carry no region; it is listed last.
const DefaultRegion = "Altro"

type JurisdictionRecord struct {
	ID                 string          `json:"id" yaml:"id"`
	DisplayName        string          `json:"sede" yaml:"sede"`
	Region             string          `json:"regione" yaml:"regione"`
	ContactAddress     string          `json:"pec" yaml:"pec"`
	CompetentAuthority string          `json:"commissioneCompetente" yaml:"commissioneCompetente"`
	SelectionReason    SelectionReason `json:"motivoSelezione" yaml:"motivoSelezione"`
}

type RegionGroup struct {
	Region        string               `json:"regione"`
	Jurisdictions []JurisdictionRecord `json:"sedi"`
}

type Resolution struct {
	ContactAddress     string             `json:"pec"`
	CompetentAuthority string             `json:"commissione"`
	Reason             string             `json:"motivoSelezione"`
	Jurisdiction       JurisdictionRecord `json:"sede"`
}
