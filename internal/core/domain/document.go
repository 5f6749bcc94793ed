package domain

const ContentTypePDF = "application/pdf"

// Span is a run of text inside a paragraph.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

type Paragraph struct {
	Spans []Span `json:"spans"`
}

// Plain returns the paragraph text without styling.
func (p Paragraph) Plain() string {
	var out string
	for _, s := range p.Spans {
		out += s.Text
	}
	return out
}

func Text(s string) Span { return Span{Text: s} }

func Bold(s string) Span { return Span{Text: s, Bold: true} }

type SignatureBlock struct {
	Lines []string `json:"lines"`
}

// ProcuraDocument is the layout-agnostic content of a power of attorney.
type ProcuraDocument struct {
	Studio         string           `json:"studio"`
	Representative string           `json:"representative"`
	Title          string           `json:"title"`
	IssueLine      string           `json:"issueLine"`
	Narrative      []Paragraph      `json:"narrative"`
	Powers         []string         `json:"powers"`
	Sections       []Paragraph      `json:"sections"`
	Attestation    string           `json:"attestation"`
	Signatures     []SignatureBlock `json:"signatures"`
	Footer         []string         `json:"footer"`
	IssuedOn       Date             `json:"issuedOn"`
	Subject        string           `json:"subject"`
}

type RenderedDocument struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
	IssuedOn    Date   `json:"issuedOn"`
}

type GeneratedEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type PipelineMode string

const (
	ModeDocumentOnly PipelineMode = "pdf"
	ModeEmail        PipelineMode = "email"
	ModeGenerateAll  PipelineMode = "all"
)

// Outcome collects whatever a pipeline run produced before it stopped.
type Outcome struct {
	Record     NormalizedRecord  `json:"record"`
	Resolution *Resolution       `json:"resolution,omitempty"`
	Email      *GeneratedEmail   `json:"email,omitempty"`
	Document   *RenderedDocument `json:"document,omitempty"`
}
