package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kirillkom/procura/internal/core/domain"
)

func TestBuildProcuraIdentityParagraph(t *testing.T) {
	issued := domain.Date{Year: 2025, Month: time.March, Day: 14}
	doc := BuildProcura(validRecord(), testProfile(), issued)

	require.Len(t, doc.Narrative, 3)
	assert.Equal(t,
		"Io sottoscritto/a Mario Rossi, nato/a a Roma il 10 maggio 1990, residente ELET.DOM PRESSO STUDIO LEGALE BIANCHI, codice fiscale RSSMRA90E10H501Z, pratica VESTANET n. AB123.",
		doc.Narrative[0].Plain(),
	)

	var bold []string
	for _, s := range doc.Narrative[0].Spans {
		if s.Bold {
			bold = append(bold, s.Text)
		}
	}
	assert.Equal(t, []string{
		"Mario Rossi", "Roma", "10 maggio 1990", "ELET.DOM PRESSO STUDIO LEGALE BIANCHI",
		"RSSMRA90E10H501Z", "pratica VESTANET n. AB123",
	}, bold)
}

func TestBuildProcuraLayoutConstants(t *testing.T) {
	issued := domain.Date{Year: 2025, Month: time.March, Day: 14}
	rec := validRecord()
	rec.CaseReference = ""
	doc := BuildProcura(rec, testProfile(), issued)

	assert.Equal(t, "Studio Legale", doc.Studio)
	assert.Equal(t, "Avv. Laura Bianchi", doc.Representative)
	assert.Equal(t, "PROCURA AD LITEM", doc.Title)
	assert.Equal(t, "Torino, 14 marzo 2025", doc.IssueLine)
	assert.NotContains(t, doc.Narrative[0].Plain(), "VESTANET")
	assert.Contains(t, doc.Narrative[1].Plain(), "l’Avv. Laura Bianchi, del Foro di Torino, C.F. BNCLRA80A41L219K, con studio in Corso Vittorio Emanuele II 10 – Torino")
	assert.Len(t, doc.Powers, 7)
	assert.Equal(t, "farsi rappresentare e sostituire;", doc.Powers[5])
	require.Len(t, doc.Sections, 4)
	assert.Equal(t, "Il sottoscritto dichiara di voler ricevere le comunicazioni a mezzo PEC: laura.bianchi@pec.example.it.", doc.Sections[1].Plain())
	assert.Contains(t, doc.Sections[2].Plain(), "Regolamento UE 2016/679 (GDPR)")
	assert.Equal(t, "Vera ed autentica firma", doc.Attestation)
	assert.Equal(t, []domain.SignatureBlock{
		{Lines: []string{"Il/La Mandante", "Mario Rossi"}},
		{Lines: []string{"Avv. Laura Bianchi"}},
	}, doc.Signatures)
	assert.Equal(t, []string{
		"Corso Vittorio Emanuele II n. 10 – 10123 Torino – Tel. 011/5550000",
		"C.F. BNCLRA80A41L219K – P. IVA 01234567890",
		"laura.bianchi@example.it – laura.bianchi@pec.example.it",
	}, doc.Footer)
}

func TestBuildProcuraOnlyIssueDateVariesAcrossDays(t *testing.T) {
	rec := validRecord()
	monday := BuildProcura(rec, testProfile(), domain.Date{Year: 2025, Month: time.March, Day: 10})
	tuesday := BuildProcura(rec, testProfile(), domain.Date{Year: 2025, Month: time.March, Day: 11})

	assert.NotEqual(t, monday.IssueLine, tuesday.IssueLine)
	if diff := cmp.Diff(monday, tuesday, cmpopts.IgnoreFields(domain.ProcuraDocument{}, "IssueLine", "IssuedOn")); diff != "" {
		t.Fatalf("unexpected differences (-monday +tuesday):\n%s", diff)
	}
}

func TestProcuraFilename(t *testing.T) {
	rec := validRecord()
	issued := domain.Date{Year: 2025, Month: time.March, Day: 4}
	assert.Equal(t, "Procura_Rossi_Mario_2025-03-04.pdf", ProcuraFilename(rec, issued))

	rec.FirstName = "Anna Maria"
	rec.LastName = "D'Amico"
	assert.Equal(t, "Procura_D_Amico_Anna_Maria_2025-03-04.pdf", ProcuraFilename(rec, issued))
}

func TestProcuraRendererRender(t *testing.T) {
	engine := &engineFake{}
	verifier := &verifierFake{}
	r := NewProcuraRenderer(engine, verifier, testProfile(), fixedClock{now: testNow}, zaptest.NewLogger(t))

	doc, err := r.Render(context.Background(), validRecord())
	require.NoError(t, err)
	assert.Equal(t, "Procura_Rossi_Mario_2025-03-14.pdf", doc.Filename)
	assert.Equal(t, domain.ContentTypePDF, doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.3 Torino, 14 marzo 2025"), doc.Content)
	assert.Equal(t, domain.Date{Year: 2025, Month: time.March, Day: 14}, doc.IssuedOn)
	assert.Equal(t, 1, engine.Calls())
	assert.Equal(t, 1, verifier.calls)
}

func TestProcuraRendererSameDayIsIdentical(t *testing.T) {
	engine := &engineFake{}
	r := NewProcuraRenderer(engine, nil, testProfile(), fixedClock{now: testNow}, nil)

	first, err := r.Render(context.Background(), validRecord())
	require.NoError(t, err)
	second, err := r.Render(context.Background(), validRecord())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, engine.docs, 2)
	assert.Equal(t, engine.docs[0], engine.docs[1])
}

func TestProcuraRendererEngineFailure(t *testing.T) {
	engine := &engineFake{err: errors.New("font table corrupted")}
	r := NewProcuraRenderer(engine, &verifierFake{}, testProfile(), fixedClock{now: testNow}, zaptest.NewLogger(t))

	doc, err := r.Render(context.Background(), validRecord())
	assert.Nil(t, doc)

	var renderErr *domain.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.True(t, errors.Is(err, domain.ErrRenderFailed))
	assert.Equal(t, domain.MsgRenderFailed, renderErr.Message())
}

func TestProcuraRendererVerifyFailureExposesNothing(t *testing.T) {
	engine := &engineFake{content: []byte("not a pdf")}
	r := NewProcuraRenderer(engine, &verifierFake{err: errors.New("no pages")}, testProfile(), fixedClock{now: testNow}, nil)

	doc, err := r.Render(context.Background(), validRecord())
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, domain.ErrRenderFailed))
}

func TestProcuraRendererHonoursCancelledContext(t *testing.T) {
	engine := &engineFake{}
	r := NewProcuraRenderer(engine, nil, testProfile(), fixedClock{now: testNow}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, validRecord())
	assert.True(t, errors.Is(err, domain.ErrRenderFailed))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, engine.Calls())
}
