package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

const procuraTitle = "PROCURA AD LITEM"

var procuraPowers = []string{
	"proporre domande, anche riconvenzionali, e relative eccezioni;",
	"chiamare in causa terzi;",
	"proporre e accettare transazioni e conciliazioni;",
	"incassare somme e rilasciare quietanze;",
	"rinunciare agli atti ed accettare la rinuncia;",
	"farsi rappresentare e sostituire;",
	"e compiere ogni altro atto ritenuto utile per la tutela dei miei diritti.",
}

// ProcuraRenderer turns a normalized record into a verified PDF artifact.
type ProcuraRenderer struct {
	engine   ports.DocumentEngine
	verifier ports.DocumentVerifier
	profile  domain.RepresentativeProfile
	clock    ports.Clock
	logger   *zap.Logger
}

func NewProcuraRenderer(
	engine ports.DocumentEngine,
	verifier ports.DocumentVerifier,
	profile domain.RepresentativeProfile,
	clock ports.Clock,
	logger *zap.Logger,
) *ProcuraRenderer {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcuraRenderer{
		engine:   engine,
		verifier: verifier,
		profile:  profile,
		clock:    clock,
		logger:   logger,
	}
}

// Render never returns a partial artifact: any failure yields a *domain.RenderError.
func (r *ProcuraRenderer) Render(ctx context.Context, rec domain.NormalizedRecord) (*domain.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.RenderError{Err: err}
	}

	issued := domain.DateOf(r.clock.Now())
	doc := BuildProcura(rec, r.profile, issued)

	content, err := r.engine.Render(ctx, doc)
	if err != nil {
		r.logger.Error("procura_render_failed", zap.Error(err))
		return nil, &domain.RenderError{Err: fmt.Errorf("layout: %w", err)}
	}
	if r.verifier != nil {
		if err := r.verifier.Verify(content, doc); err != nil {
			r.logger.Error("procura_verify_failed", zap.Error(err), zap.Int("bytes", len(content)))
			return nil, &domain.RenderError{Err: fmt.Errorf("verify: %w", err)}
		}
	}

	r.logger.Debug("procura_rendered", zap.Int("bytes", len(content)), zap.String("issued_on", issued.String()))
	return &domain.RenderedDocument{
		Filename:    ProcuraFilename(rec, issued),
		ContentType: domain.ContentTypePDF,
		Content:     content,
		IssuedOn:    issued,
	}, nil
}

// BuildProcura assembles the document content. Only the applicant identity
// fields and the issue date vary between calls.
func BuildProcura(rec domain.NormalizedRecord, profile domain.RepresentativeProfile, issued domain.Date) domain.ProcuraDocument {
	representative := profile.DisplayName()

	identity := []domain.Span{
		domain.Text("Io sottoscritto/a "),
		domain.Bold(rec.FullName()),
		domain.Text(", nato/a a "),
		domain.Bold(rec.BirthPlace),
		domain.Text(" il "),
		domain.Bold(rec.BirthDate.Long()),
	}
	if profile.DomicileLabel != "" {
		identity = append(identity, domain.Text(", residente "), domain.Bold(profile.DomicileLabel))
	}
	identity = append(identity, domain.Text(", codice fiscale "), domain.Bold(strings.ToUpper(rec.FiscalCode)))
	if rec.HasCaseReference() {
		identity = append(identity, domain.Text(", "), domain.Bold("pratica VESTANET n. "+rec.CaseReference))
	}
	identity = append(identity, domain.Text("."))

	plain := func(s string) domain.Paragraph {
		return domain.Paragraph{Spans: []domain.Span{domain.Text(s)}}
	}

	return domain.ProcuraDocument{
		Studio:         profile.StudioName,
		Representative: representative,
		Title:          procuraTitle,
		IssueLine:      profile.IssueCity + ", " + issued.Long(),
		Narrative: []domain.Paragraph{
			{Spans: identity},
			plain(fmt.Sprintf(
				"nomino quale mio difensore e procuratore speciale in ogni fase e grado del giudizio, anche nelle fasi dell’esecuzione, opposizione, incidentale, cautelare ed in sede di gravame, l’%s, del Foro di %s, C.F. %s, con studio in %s, conferendogli ogni più ampia facoltà di legge.",
				representative, profile.Bar, profile.FiscalCode, profile.Office,
			)),
			plain("Nominandolo/a affinché mi rappresenti e difenda in ogni fase e grado del giudizio, ivi compresi l’esecuzione forzata, l’azione esecutiva e cautelare, e in ogni altro procedimento connesso e/o conseguente, nonché in sede di conciliazione e mediazione."),
		},
		Powers: append([]string(nil), procuraPowers...),
		Sections: []domain.Paragraph{
			plain(fmt.Sprintf("Eleggo domicilio presso lo studio dell’%s, sito in %s.", representative, profile.Office)),
			plain(fmt.Sprintf("Il sottoscritto dichiara di voler ricevere le comunicazioni a mezzo PEC: %s.", profile.PEC)),
			plain("Dichiaro, ai sensi e per gli effetti del Regolamento UE 2016/679 (GDPR) e del D.Lgs. 196/2003 e s.m.i., di essere stato informato che i miei dati personali, anche sensibili, verranno trattati per le finalità inerenti al presente mandato."),
			plain("Dichiaro di revocare ogni precedente mandato conferito."),
		},
		Attestation: "Vera ed autentica firma",
		Signatures: []domain.SignatureBlock{
			{Lines: []string{"Il/La Mandante", rec.FullName()}},
			{Lines: []string{representative}},
		},
		Footer:   profile.FooterLines(),
		IssuedOn: issued,
		Subject:  "Procura alle liti – " + rec.FullName(),
	}
}

// ProcuraFilename follows Procura_<cognome>_<nome>_<YYYY-MM-DD>.pdf.
func ProcuraFilename(rec domain.NormalizedRecord, issued domain.Date) string {
	return fmt.Sprintf("Procura_%s_%s_%s.pdf",
		sanitizeFilename(rec.LastName),
		sanitizeFilename(rec.FirstName),
		issued.String(),
	)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "_"
	}
	return base
}
