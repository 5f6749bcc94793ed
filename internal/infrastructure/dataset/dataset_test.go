package dataset

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/procura/internal/core/domain"
)

func TestDefaultCatalogInvariants(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Greater(t, c.Len(), 50)

	seen := map[string]bool{}
	for _, g := range c.ListAll() {
		for _, rec := range g.Jurisdictions {
			assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
			seen[rec.ID] = true
			assert.NotEmpty(t, rec.ContactAddress, rec.ID)
			assert.NotEmpty(t, rec.CompetentAuthority, rec.ID)
			if rec.SelectionReason == domain.ReasonCoincidence {
				assert.Equal(t, rec.DisplayName, rec.CompetentAuthority, rec.ID)
			}
		}
	}
	assert.Len(t, seen, c.Len())
}

func TestLookupIsExact(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	rec, ok := c.Lookup("milano")
	require.True(t, ok)
	assert.Equal(t, domain.ReasonCoincidence, rec.SelectionReason)

	rec, ok = c.Lookup("monza")
	require.True(t, ok)
	assert.Equal(t, domain.ReasonDelegation, rec.SelectionReason)
	assert.Equal(t, "Milano", rec.CompetentAuthority)

	_, ok = c.Lookup("Milano")
	assert.False(t, ok)
	_, ok = c.Lookup(" milano")
	assert.False(t, ok)
}

func TestListAllOrdering(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	groups := c.ListAll()
	require.NotEmpty(t, groups)
	assert.Equal(t, "Abruzzo", groups[0].Region)
	assert.Equal(t, "Veneto", groups[len(groups)-1].Region)

	var emilia []string
	for _, g := range groups {
		if g.Region == "Emilia-Romagna" {
			for _, rec := range g.Jurisdictions {
				emilia = append(emilia, rec.DisplayName)
			}
		}
	}
	assert.Equal(t, []string{"Bologna", "Forlì", "Modena", "Parma", "Reggio Emilia"}, emilia)

	if diff := cmp.Diff(groups, c.ListAll()); diff != "" {
		t.Fatalf("listing is not stable (-first +second):\n%s", diff)
	}
}

func TestListAllReturnsCopies(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	groups := c.ListAll()
	groups[0].Jurisdictions[0].ContactAddress = "tampered@example.it"
	groups[0].Region = "tampered"

	fresh := c.ListAll()
	assert.NotEqual(t, "tampered", fresh[0].Region)
	assert.NotEqual(t, "tampered@example.it", fresh[0].Jurisdictions[0].ContactAddress)
}

func TestNewCatalogPutsMissingRegionLast(t *testing.T) {
	c, err := NewCatalog([]domain.JurisdictionRecord{
		{ID: "z", DisplayName: "Zeta", Region: "Zona", ContactAddress: "z@pec.it", CompetentAuthority: "Zeta", SelectionReason: domain.ReasonCoincidence},
		{ID: "x", DisplayName: "Ics", ContactAddress: "x@pec.it", CompetentAuthority: "Zeta", SelectionReason: domain.ReasonDelegation},
		{ID: "a", DisplayName: "Alfa", Region: "Abruzzo", ContactAddress: "a@pec.it", CompetentAuthority: "Alfa", SelectionReason: domain.ReasonCoincidence},
	})
	require.NoError(t, err)

	var regions []string
	for _, g := range c.ListAll() {
		regions = append(regions, g.Region)
	}
	assert.Equal(t, []string{"Abruzzo", "Zona", domain.DefaultRegion}, regions)

	rec, ok := c.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultRegion, rec.Region)
}

func TestNewCatalogRejectsBrokenRecords(t *testing.T) {
	good := domain.JurisdictionRecord{ID: "a", DisplayName: "A", ContactAddress: "a@pec.it", CompetentAuthority: "A", SelectionReason: domain.ReasonCoincidence}

	tests := map[string][]domain.JurisdictionRecord{
		"duplicate id":     {good, good},
		"empty pec":        {{ID: "b", CompetentAuthority: "B", SelectionReason: domain.ReasonDelegation}},
		"empty authority":  {{ID: "b", ContactAddress: "b@pec.it", SelectionReason: domain.ReasonDelegation}},
		"unknown reason":   {{ID: "b", ContactAddress: "b@pec.it", CompetentAuthority: "B", SelectionReason: "caso"}},
		"blank identifier": {{ID: " ", ContactAddress: "b@pec.it", CompetentAuthority: "B", SelectionReason: domain.ReasonDelegation}},
	}
	for name, records := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(records)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
		})
	}
}

func TestDecodeYAMLRejectsSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing pec": `
sedi:
  - id: a
    sede: A
    commissioneCompetente: A
    motivoSelezione: coincidenza
`,
		"bad reason": `
sedi:
  - id: a
    sede: A
    pec: a@pec.it
    commissioneCompetente: A
    motivoSelezione: boh
`,
		"unknown key": `
sedi:
  - id: a
    sede: A
    pec: a@pec.it
    commissioneCompetente: A
    motivoSelezione: delega
    note: extra
`,
		"empty list": `sedi: []`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(doc))
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
		})
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, c.ListAll()))

	loaded, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, c.Len(), loaded.Len())
	if diff := cmp.Diff(c.ListAll(), loaded.ListAll()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadXLSXRequiresHeaders(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ID", "Sede", "PEC"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"a", "A", "a@pec.it"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Commissione competente")
}

func TestDefaultProfile(t *testing.T) {
	p, err := DefaultProfile()
	require.NoError(t, err)
	assert.Equal(t, "Avv. Francesca Guicciardini", p.DisplayName())
	assert.Equal(t, "Milano", p.Bar)
	assert.Equal(t, []string{
		"Via Mario Pieri n. 2 – 20127 Milano – Tel. 02/49424384",
		"C.F. GCCFNC92H43A662W – P. IVA 10860930154",
		"francesca.guicciardini@gmail.com – francesca.guicciardini@pec.it",
	}, p.FooterLines())
}

func TestDecodeProfileRejectsUnknownAndMissingFields(t *testing.T) {
	_, err := DecodeProfile([]byte("nome: Anna\nsoprannome: Annina\n"))
	require.Error(t, err)

	_, err = DecodeProfile([]byte("nome: Anna\ncognome: Verdi\n"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}
