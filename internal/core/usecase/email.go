package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/procura/internal/core/domain"
)

type emailTemplate struct {
	label      string
	legalBasis string
	request    []string
}

var emailTemplates = map[domain.RequestType]emailTemplate{
	domain.RequestAsylum: {
		label:      "aggiornamento sullo stato del procedimento di protezione internazionale e Richiesta accesso agli atti",
		legalBasis: "ai sensi della normativa vigente in materia di protezione internazionale",
		request: []string{
			"chiede cortesemente di conoscere, con riferimento alla fase attuale della procedura,",
			"se il richiedente risulta già convocato innanzi alla Commissione Territoriale",
			"ovvero, qualora l’audizione sia già stata svolta, se risulta adottato il provvedimento conclusivo.",
			"",
			"Si chiede, inoltre, che ogni eventuale comunicazione relativa alla fissazione della convocazione",
			"e/o alla trasmissione di documentazione e provvedimenti",
			"venga inviata allo scrivente difensore sia a mezzo PEC,",
			"sia tramite raccomandata A/R presso lo studio legale indicato in procura.",
		},
	},
	domain.RequestRecordsAccess: {
		label:      "Richiesta accesso agli atti",
		legalBasis: "ai sensi della normativa vigente in materia di accesso agli atti amministrativi",
		request: []string{
			"chiede di poter prendere visione ed estrarre copia della documentazione relativa al proprio procedimento amministrativo.",
			"",
			"Si chiede, inoltre, che la trasmissione della documentazione e ogni eventuale comunicazione",
			"avvengano a mezzo PEC e, ove previsto, anche tramite raccomandata A/R",
			"presso lo studio legale indicato nella procura alle liti allegata.",
			"",
			"Si prega di voler comunicare le modalità e gli eventuali termini per l’accesso richiesto.",
		},
	},
}

// templateFor falls back to the records-access variant for anything that is not asylum.
func templateFor(t domain.RequestType) emailTemplate {
	if tpl, ok := emailTemplates[t]; ok {
		return tpl
	}
	return emailTemplates[domain.RequestRecordsAccess]
}

// EmailComposer renders the PEC subject and body. Output depends only on its inputs.
type EmailComposer struct {
	profile domain.RepresentativeProfile
}

func NewEmailComposer(profile domain.RepresentativeProfile) *EmailComposer {
	return &EmailComposer{profile: profile}
}

func (c *EmailComposer) Compose(rec domain.NormalizedRecord, authority string) domain.GeneratedEmail {
	return domain.GeneratedEmail{
		Subject: c.Subject(rec),
		Body:    c.Body(rec, authority),
	}
}

func (c *EmailComposer) Subject(rec domain.NormalizedRecord) string {
	subject := templateFor(rec.RequestType).label + " – " + rec.FullName()
	if rec.HasCaseReference() {
		subject += " – pratica VESTANET n. " + rec.CaseReference
	}
	return subject
}

func (c *EmailComposer) Body(rec domain.NormalizedRecord, authority string) string {
	tpl := templateFor(rec.RequestType)

	lines := []string{
		"Alla cortese attenzione della Commissione Territoriale di " + authority,
		"",
		fmt.Sprintf(
			"Il sottoscritto %s, nato a %s il %s, C.F. %s, rappresentato e difeso dall'%s del Foro di %s, come da procura alle liti allegata,",
			rec.FullName(),
			rec.BirthPlace,
			rec.BirthDate.Short(),
			strings.ToUpper(rec.FiscalCode),
			c.profile.DisplayName(),
			c.profile.Bar,
		),
	}
	if rec.HasCaseReference() {
		lines = append(lines, "con riferimento alla pratica VESTANET n. "+rec.CaseReference+",")
	}

	lines = append(lines, "", tpl.legalBasis+",", "")
	lines = append(lines, tpl.request...)

	lines = append(lines,
		"",
		"Si allegano alla presente, quali documenti essenziali ai fini dell’istruttoria:",
		"- Procura alle liti",
		"- Documento di identità del/la richiedente",
		"",
		"Con osservanza.",
		"",
		c.profile.DisplayName(),
		"Foro di "+c.profile.Bar,
		"PEC: "+c.profile.PEC,
	)
	return strings.Join(lines, "\n")
}
