package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirillkom/procura/internal/core/domain"
)

func TestSubjectIncludesCaseReferenceOnlyWhenPresent(t *testing.T) {
	c := NewEmailComposer(testProfile())
	rec := validRecord()

	assert.Equal(t,
		"aggiornamento sullo stato del procedimento di protezione internazionale e Richiesta accesso agli atti – Mario Rossi – pratica VESTANET n. AB123",
		c.Subject(rec),
	)

	rec.CaseReference = ""
	rec.RequestType = domain.RequestRecordsAccess
	assert.Equal(t, "Richiesta accesso agli atti – Mario Rossi", c.Subject(rec))

	rec.CaseReference = "  "
	assert.NotContains(t, c.Subject(rec), "VESTANET")
}

func TestBodyRecordsAccessWithoutCaseReference(t *testing.T) {
	c := NewEmailComposer(testProfile())
	rec := validRecord()
	rec.CaseReference = ""
	rec.RequestType = domain.RequestRecordsAccess

	want := strings.Join([]string{
		"Alla cortese attenzione della Commissione Territoriale di Torino",
		"",
		"Il sottoscritto Mario Rossi, nato a Roma il 10/5/1990, C.F. RSSMRA90E10H501Z, rappresentato e difeso dall'Avv. Laura Bianchi del Foro di Torino, come da procura alle liti allegata,",
		"",
		"ai sensi della normativa vigente in materia di accesso agli atti amministrativi,",
		"",
		"chiede di poter prendere visione ed estrarre copia della documentazione relativa al proprio procedimento amministrativo.",
		"",
		"Si chiede, inoltre, che la trasmissione della documentazione e ogni eventuale comunicazione",
		"avvengano a mezzo PEC e, ove previsto, anche tramite raccomandata A/R",
		"presso lo studio legale indicato nella procura alle liti allegata.",
		"",
		"Si prega di voler comunicare le modalità e gli eventuali termini per l’accesso richiesto.",
		"",
		"Si allegano alla presente, quali documenti essenziali ai fini dell’istruttoria:",
		"- Procura alle liti",
		"- Documento di identità del/la richiedente",
		"",
		"Con osservanza.",
		"",
		"Avv. Laura Bianchi",
		"Foro di Torino",
		"PEC: laura.bianchi@pec.example.it",
	}, "\n")

	assert.Equal(t, want, c.Body(rec, "Torino"))
}

func TestBodyAsylumWithCaseReference(t *testing.T) {
	c := NewEmailComposer(testProfile())
	body := c.Body(validRecord(), "Milano")

	assert.True(t, strings.HasPrefix(body, "Alla cortese attenzione della Commissione Territoriale di Milano\n"))
	assert.Contains(t, body, "nato a Roma il 10/5/1990")
	assert.Contains(t, body, "come da procura alle liti allegata,\ncon riferimento alla pratica VESTANET n. AB123,\n")
	assert.Contains(t, body, "ai sensi della normativa vigente in materia di protezione internazionale,")
	assert.Contains(t, body, "se il richiedente risulta già convocato innanzi alla Commissione Territoriale")
	assert.NotContains(t, body, "prendere visione")
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewEmailComposer(testProfile())
	rec := validRecord()

	first := c.Compose(rec, "Torino")
	second := c.Compose(rec, "Torino")
	assert.Equal(t, first, second)
	assert.Equal(t, c.Subject(rec), first.Subject)
}

func TestBodyKeepsBirthPlaceAsSupplied(t *testing.T) {
	c := NewEmailComposer(testProfile())
	rec := validRecord()
	rec.BirthPlace = "reggio emilia"

	body := c.Body(rec, "Bologna")
	assert.Contains(t, body, "nato a reggio emilia il")
	assert.Contains(t, body, "C.F. RSSMRA90E10H501Z")
}
