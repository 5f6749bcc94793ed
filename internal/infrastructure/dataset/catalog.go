package dataset

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kirillkom/procura/internal/core/domain"
)

// Catalog is an immutable, in-memory jurisdiction table.
type Catalog struct {
	byID   map[string]domain.JurisdictionRecord
	groups []domain.RegionGroup
}

// NewCatalog checks the dataset invariants and precomputes the grouped listing.
func NewCatalog(records []domain.JurisdictionRecord) (*Catalog, error) {
	byID := make(map[string]domain.JurisdictionRecord, len(records))
	for i, rec := range records {
		if err := checkRecord(rec); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build catalog", fmt.Errorf("entry %d: %w", i, err))
		}
		if _, dup := byID[rec.ID]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build catalog", fmt.Errorf("entry %d: duplicate id %q", i, rec.ID))
		}
		if strings.TrimSpace(rec.Region) == "" {
			rec.Region = domain.DefaultRegion
		}
		byID[rec.ID] = rec
	}

	return &Catalog{
		byID:   byID,
		groups: groupByRegion(byID),
	}, nil
}

func checkRecord(rec domain.JurisdictionRecord) error {
	switch {
	case strings.TrimSpace(rec.ID) == "":
		return fmt.Errorf("empty id")
	case strings.TrimSpace(rec.ContactAddress) == "":
		return fmt.Errorf("id %q: empty pec", rec.ID)
	case strings.TrimSpace(rec.CompetentAuthority) == "":
		return fmt.Errorf("id %q: empty commissioneCompetente", rec.ID)
	case !rec.SelectionReason.Valid():
		return fmt.Errorf("id %q: unknown motivoSelezione %q", rec.ID, rec.SelectionReason)
	}
	return nil
}

// Lookup is an exact key match.
func (c *Catalog) Lookup(id string) (domain.JurisdictionRecord, bool) {
	rec, ok := c.byID[id]
	return rec, ok
}

// ListAll returns a copy of the grouped listing.
func (c *Catalog) ListAll() []domain.RegionGroup {
	out := make([]domain.RegionGroup, len(c.groups))
	for i, g := range c.groups {
		out[i] = domain.RegionGroup{
			Region:        g.Region,
			Jurisdictions: append([]domain.JurisdictionRecord(nil), g.Jurisdictions...),
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.byID)
}

// groupByRegion orders regions and names with Italian collation, "Altro" last.
func groupByRegion(byID map[string]domain.JurisdictionRecord) []domain.RegionGroup {
	col := collate.New(language.Italian, collate.Loose)

	buckets := make(map[string][]domain.JurisdictionRecord)
	for _, rec := range byID {
		buckets[rec.Region] = append(buckets[rec.Region], rec)
	}

	regions := make([]string, 0, len(buckets))
	for region := range buckets {
		regions = append(regions, region)
	}
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if (a == domain.DefaultRegion) != (b == domain.DefaultRegion) {
			return b == domain.DefaultRegion
		}
		if cmp := col.CompareString(a, b); cmp != 0 {
			return cmp < 0
		}
		return a < b
	})

	groups := make([]domain.RegionGroup, 0, len(regions))
	for _, region := range regions {
		recs := buckets[region]
		sort.SliceStable(recs, func(i, j int) bool {
			if cmp := col.CompareString(recs[i].DisplayName, recs[j].DisplayName); cmp != 0 {
				return cmp < 0
			}
			return recs[i].ID < recs[j].ID
		})
		groups = append(groups, domain.RegionGroup{Region: region, Jurisdictions: recs})
	}
	return groups
}
