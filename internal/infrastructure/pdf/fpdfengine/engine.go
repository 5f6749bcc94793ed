package fpdfengine

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/kirillkom/procura/internal/core/domain"
)

// unicodeFamily replaces the core fonts when a document carries text that
// cp1252 cannot encode, such as a birth place like Łódź or İstanbul.
const unicodeFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	unicodeRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	unicodeBold []byte
)

// Layout holds the page geometry in points.
type Layout struct {
	FontFamily  string
	FontSize    float64
	LineSpacing float64
	MarginX     float64
	MarginY     float64
	FooterInset float64
}

func DefaultLayout() Layout {
	return Layout{
		FontFamily:  "Times",
		FontSize:    11,
		LineSpacing: 1.4,
		MarginX:     50,
		MarginY:     25,
		FooterInset: 60,
	}
}

func (l Layout) normalize() Layout {
	out := l
	def := DefaultLayout()
	if out.FontFamily == "" {
		out.FontFamily = def.FontFamily
	}
	if out.FontSize <= 0 {
		out.FontSize = def.FontSize
	}
	if out.LineSpacing < 1 {
		out.LineSpacing = def.LineSpacing
	}
	if out.MarginX <= 0 {
		out.MarginX = def.MarginX
	}
	if out.MarginY <= 0 {
		out.MarginY = def.MarginY
	}
	if out.FooterInset <= 0 {
		out.FooterInset = def.FooterInset
	}
	return out
}

// Engine draws a procura on a single A4 page. Text that fits cp1252 uses the
// layout's core font and renders byte-identical for equal documents; anything
// else switches the whole page to an embedded DejaVu face.
type Engine struct {
	layout Layout
}

func New(layout Layout) *Engine {
	return &Engine{layout: layout.normalize()}
}

func (e *Engine) Render(ctx context.Context, doc domain.ProcuraDocument) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("fpdf panic: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	w := &writer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: e.layout.FontFamily,
		layout: e.layout,
	}
	if !winAnsi(doc) {
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", unicodeRegular)
		pdf.AddUTF8FontFromBytes(unicodeFamily, "B", unicodeBold)
		w.family = unicodeFamily
		w.tr = func(s string) string { return s }
	}
	w.setup(doc)
	w.masthead(doc)
	w.issueLine(doc.IssueLine)
	w.narrative(doc.Narrative)
	w.powers(doc.Powers)
	for _, p := range doc.Sections {
		w.paragraph(p)
	}
	w.attestation(doc.Attestation)
	w.signatures(doc.Signatures)
	w.footer(doc.Footer)

	if pdf.Err() {
		return nil, fmt.Errorf("layout procura: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode procura: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
	layout Layout
}

func (w *writer) lineHeight(size float64) float64 {
	return size * w.layout.LineSpacing
}

func (w *writer) font(style string, size float64) {
	w.pdf.SetFont(w.family, style, size)
}

func (w *writer) gap(h float64) {
	w.pdf.SetY(w.pdf.GetY() + h)
}

func (w *writer) setup(doc domain.ProcuraDocument) {
	stamp := doc.IssuedOn.Time(time.UTC)
	w.pdf.SetCreationDate(stamp)
	w.pdf.SetModificationDate(stamp)
	w.pdf.SetCatalogSort(true)
	w.pdf.SetTitle(doc.Title, true)
	w.pdf.SetSubject(doc.Subject, true)
	w.pdf.SetAuthor(doc.Representative, true)
	w.pdf.SetCreator("procura", false)

	w.pdf.SetMargins(w.layout.MarginX, w.layout.MarginY, w.layout.MarginX)
	w.pdf.SetAutoPageBreak(false, w.layout.MarginY)
	w.pdf.AddPage()
}

func (w *writer) centered(style string, size float64, text string) {
	w.font(style, size)
	w.pdf.CellFormat(0, w.lineHeight(size), w.tr(text), "", 1, "C", false, 0, "")
}

func (w *writer) masthead(doc domain.ProcuraDocument) {
	w.centered("B", 12, doc.Studio)
	w.centered("B", 12, doc.Representative)
	w.gap(10)
	w.centered("B", 13, doc.Title)
	w.gap(16)
}

func (w *writer) issueLine(text string) {
	w.font("", w.layout.FontSize)
	w.pdf.CellFormat(0, w.lineHeight(w.layout.FontSize), w.tr(text), "", 1, "L", false, 0, "")
	w.gap(14)
}

func (w *writer) narrative(paragraphs []domain.Paragraph) {
	for _, p := range paragraphs {
		w.paragraph(p)
	}
}

// paragraph justifies single-style text; mixed runs flow left-aligned.
func (w *writer) paragraph(p domain.Paragraph) {
	size := w.layout.FontSize
	h := w.lineHeight(size)

	if !mixed(p) {
		style := ""
		if len(p.Spans) > 0 && p.Spans[0].Bold {
			style = "B"
		}
		w.font(style, size)
		w.pdf.MultiCell(0, h, w.tr(p.Plain()), "", "J", false)
		w.gap(8)
		return
	}

	for _, s := range p.Spans {
		style := ""
		if s.Bold {
			style = "B"
		}
		w.font(style, size)
		w.pdf.Write(h, w.tr(s.Text))
	}
	w.pdf.Ln(h)
	w.gap(8)
}

func mixed(p domain.Paragraph) bool {
	for i := 1; i < len(p.Spans); i++ {
		if p.Spans[i].Bold != p.Spans[0].Bold {
			return true
		}
	}
	return false
}

func (w *writer) powers(items []string) {
	size := w.layout.FontSize
	h := w.lineHeight(size)
	w.font("", size)
	for _, item := range items {
		w.pdf.SetX(w.layout.MarginX)
		w.pdf.CellFormat(10, h, w.tr("–"), "", 0, "L", false, 0, "")
		w.pdf.MultiCell(0, h, w.tr(item), "", "J", false)
		w.gap(4)
	}
	w.gap(4)
}

func (w *writer) attestation(text string) {
	if text == "" {
		return
	}
	w.gap(20)
	w.font("B", 10)
	w.pdf.CellFormat(0, w.lineHeight(10), w.tr(text), "", 1, "R", false, 0, "")
	w.gap(10)
}

// signatures lays the blocks out side by side, each under a blank signing line.
// Long labels wrap inside their column.
func (w *writer) signatures(blocks []domain.SignatureBlock) {
	if len(blocks) == 0 {
		return
	}
	pageW, _ := w.pdf.GetPageSize()
	contentW := pageW - 2*w.layout.MarginX
	blockW := contentW * 0.4
	h := w.lineHeight(10)

	top := w.pdf.GetY() + 40
	lineY := top + 25
	w.pdf.SetLineWidth(1)
	w.font("", 10)

	for i, b := range blocks {
		x := w.layout.MarginX
		if i > 0 {
			x = pageW - w.layout.MarginX - blockW
			if len(blocks) > 2 {
				x = w.layout.MarginX + float64(i)*(contentW-blockW)/float64(len(blocks)-1)
			}
		}
		w.pdf.Line(x, lineY, x+blockW, lineY)
		y := lineY + 6
		for _, line := range b.Lines {
			w.pdf.SetXY(x, y)
			w.pdf.MultiCell(blockW, h, w.tr(line), "", "C", false)
			y = w.pdf.GetY()
		}
	}
}

func (w *writer) footer(lines []string) {
	if len(lines) == 0 {
		return
	}
	pageW, pageH := w.pdf.GetPageSize()
	h := w.lineHeight(9)
	width := pageW - 2*w.layout.FooterInset
	y := pageH - w.layout.MarginY - float64(len(lines))*h

	w.font("", 9)
	for _, line := range lines {
		w.pdf.SetXY(w.layout.FooterInset, y)
		w.pdf.CellFormat(width, h, w.tr(line), "", 0, "C", false, 0, "")
		y += h
	}
}

// winAnsi reports whether every drawn string of doc has a cp1252 encoding.
func winAnsi(doc domain.ProcuraDocument) bool {
	texts := []string{doc.Studio, doc.Representative, doc.Title, doc.IssueLine, doc.Attestation}
	for _, group := range [][]domain.Paragraph{doc.Narrative, doc.Sections} {
		for _, p := range group {
			for _, s := range p.Spans {
				texts = append(texts, s.Text)
			}
		}
	}
	texts = append(texts, doc.Powers...)
	texts = append(texts, doc.Footer...)
	for _, b := range doc.Signatures {
		texts = append(texts, b.Lines...)
	}

	enc := charmap.Windows1252.NewEncoder()
	for _, t := range texts {
		if _, err := enc.String(t); err != nil {
			return false
		}
	}
	return true
}
