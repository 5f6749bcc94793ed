package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

// clipboardWriteAll is swapped out in tests.
var clipboardWriteAll = clipboard.WriteAll

const (
	msgInvalidFields = "Alcuni campi non sono validi."
	maxHints         = 6
)

// DocumentStore persists rendered PDFs and reports where they landed.
type DocumentStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Path(key string) (string, error)
}

type field struct {
	key   string
	label string
	hint  string
}

var textFields = []field{
	{key: domain.FieldFirstName, label: "Nome", hint: "Mario"},
	{key: domain.FieldLastName, label: "Cognome", hint: "Rossi"},
	{key: domain.FieldBirthDate, label: "Data di nascita", hint: "AAAA-MM-GG"},
	{key: domain.FieldBirthPlace, label: "Luogo di nascita", hint: "Roma"},
	{key: domain.FieldFiscalCode, label: "Codice fiscale", hint: "RSSMRA90E10H501Z"},
	{key: domain.FieldCaseReference, label: "Numero VESTANET", hint: "facoltativo"},
	{key: domain.FieldJurisdictionID, label: "Sede", hint: "es. milano"},
}

// requestTypeIndex is the focus slot of the request-type toggle, after the text inputs.
var requestTypeIndex = len(textFields)

type resultMsg struct {
	mode    domain.PipelineMode
	outcome *domain.Outcome
	err     error
	saved   string
}

type Model struct {
	pipeline ports.ProcuraPipeline
	store    DocumentStore
	logger   *zap.Logger
	ctx      context.Context

	inputs      []textinput.Model
	focus       int
	requestType domain.RequestType
	sedi        []domain.JurisdictionRecord

	fieldErrors map[string]string
	resolution  *domain.Resolution
	email       *domain.GeneratedEmail
	savedPath   string

	status    string
	statusErr bool
	busy      bool

	width  int
	styles styles
}

func NewModel(ctx context.Context, pipeline ports.ProcuraPipeline, store DocumentStore, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	inputs := make([]textinput.Model, len(textFields))
	for i, f := range textFields {
		ti := textinput.New()
		ti.Placeholder = f.hint
		ti.CharLimit = 120
		ti.Width = 40
		ti.Prompt = ""
		inputs[i] = ti
	}
	inputs[0].Focus()

	var sedi []domain.JurisdictionRecord
	for _, g := range pipeline.ListJurisdictions() {
		sedi = append(sedi, g.Jurisdictions...)
	}

	return Model{
		pipeline:    pipeline,
		store:       store,
		logger:      logger,
		ctx:         ctx,
		inputs:      inputs,
		requestType: domain.RequestAsylum,
		sedi:        sedi,
		fieldErrors: map[string]string{},
		styles:      defaultStyles(),
	}
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, pipeline ports.ProcuraPipeline, store DocumentStore, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(ctx, pipeline, store, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case resultMsg:
		m.busy = false
		m.applyResult(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down", "enter":
			return m, m.moveFocus(1)
		case "shift+tab", "up":
			return m, m.moveFocus(-1)
		case "ctrl+p":
			return m.submit(domain.ModeDocumentOnly)
		case "ctrl+g":
			return m.submit(domain.ModeGenerateAll)
		case "ctrl+s":
			if m.email != nil {
				m.copy("Oggetto", m.email.Subject)
			}
			return m, nil
		case "ctrl+b":
			if m.email != nil {
				m.copy("Testo", m.email.Body)
			}
			return m, nil
		}
		if m.focus == requestTypeIndex {
			switch msg.String() {
			case "left", "right", " ":
				m.toggleRequestType()
			}
			return m, nil
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	slots := len(m.inputs) + 1
	if m.focus < len(m.inputs) {
		m.inputs[m.focus].Blur()
	}
	m.focus = (m.focus + delta + slots) % slots
	if m.focus < len(m.inputs) {
		return m.inputs[m.focus].Focus()
	}
	return nil
}

func (m *Model) toggleRequestType() {
	if m.requestType == domain.RequestAsylum {
		m.requestType = domain.RequestRecordsAccess
	} else {
		m.requestType = domain.RequestAsylum
	}
}

func (m Model) input() domain.ApplicantInput {
	value := func(key string) string {
		for i, f := range textFields {
			if f.key == key {
				return m.inputs[i].Value()
			}
		}
		return ""
	}
	return domain.ApplicantInput{
		FirstName:      value(domain.FieldFirstName),
		LastName:       value(domain.FieldLastName),
		BirthDate:      value(domain.FieldBirthDate),
		BirthPlace:     value(domain.FieldBirthPlace),
		FiscalCode:     value(domain.FieldFiscalCode),
		CaseReference:  value(domain.FieldCaseReference),
		JurisdictionID: value(domain.FieldJurisdictionID),
		RequestType:    string(m.requestType),
	}
}

func (m Model) submit(mode domain.PipelineMode) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status = "Generazione in corso..."
	m.statusErr = false
	return m, m.runPipeline(mode, m.input())
}

func (m Model) runPipeline(mode domain.PipelineMode, raw domain.ApplicantInput) tea.Cmd {
	ctx, pipeline, store, logger := m.ctx, m.pipeline, m.store, m.logger
	return func() tea.Msg {
		var (
			outcome *domain.Outcome
			err     error
		)
		switch mode {
		case domain.ModeDocumentOnly:
			outcome, err = pipeline.RenderOnly(ctx, raw)
		default:
			outcome, err = pipeline.GenerateAll(ctx, raw)
		}
		msg := resultMsg{mode: mode, outcome: outcome, err: err}
		if err != nil || outcome == nil || outcome.Document == nil || store == nil {
			return msg
		}

		doc := outcome.Document
		if saveErr := store.Save(ctx, doc.Filename, bytes.NewReader(doc.Content)); saveErr != nil {
			logger.Error("tui_save_failed", zap.String("filename", doc.Filename), zap.Error(saveErr))
			msg.err = &domain.RenderError{Err: saveErr}
			return msg
		}
		msg.saved, _ = store.Path(doc.Filename)
		return msg
	}
}

func (m *Model) applyResult(msg resultMsg) {
	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
		renderErr     *domain.RenderError
	)
	switch {
	case msg.err == nil:
		m.fieldErrors = map[string]string{}
		m.takeOutcome(msg.outcome)
		m.savedPath = msg.saved
		m.setStatus(successStatus(msg), false)

	case errors.As(msg.err, &validationErr):
		m.fieldErrors = validationErr.Fields
		m.setStatus(msgInvalidFields, true)

	case errors.As(msg.err, &resolutionErr):
		m.fieldErrors = map[string]string{}
		m.resolution = nil
		m.email = nil
		m.setStatus(resolutionErr.Message, true)

	case errors.As(msg.err, &renderErr):
		m.fieldErrors = map[string]string{}
		if msg.mode == domain.ModeGenerateAll {
			m.takeOutcome(msg.outcome)
		}
		m.setStatus(renderErr.Message(), true)

	default:
		m.logger.Error("tui_generation_failed", zap.Error(msg.err))
		m.setStatus(domain.MsgGenerationFailed, true)
	}
}

func (m *Model) takeOutcome(outcome *domain.Outcome) {
	if outcome == nil {
		return
	}
	if outcome.Resolution != nil {
		m.resolution = outcome.Resolution
	}
	if outcome.Email != nil {
		m.email = outcome.Email
	}
}

func successStatus(msg resultMsg) string {
	if msg.saved != "" {
		return "PDF salvato in " + msg.saved
	}
	if msg.outcome != nil && msg.outcome.Document != nil {
		return "PDF generato: " + msg.outcome.Document.Filename
	}
	return "Fatto."
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) copy(what, text string) {
	if err := clipboardWriteAll(text); err != nil {
		m.logger.Warn("tui_clipboard_failed", zap.Error(err))
		m.setStatus("Impossibile copiare negli appunti.", true)
		return
	}
	m.setStatus(what+" copiato negli appunti.", false)
}

// hints lists the sedi whose id or name contains the typed text.
func (m Model) hints() []domain.JurisdictionRecord {
	idx := -1
	for i, f := range textFields {
		if f.key == domain.FieldJurisdictionID {
			idx = i
		}
	}
	if idx < 0 || m.focus != idx {
		return nil
	}
	query := strings.ToLower(strings.TrimSpace(m.inputs[idx].Value()))
	if query == "" {
		return nil
	}
	var out []domain.JurisdictionRecord
	for _, s := range m.sedi {
		if strings.Contains(strings.ToLower(s.ID), query) || strings.Contains(strings.ToLower(s.DisplayName), query) {
			out = append(out, s)
			if len(out) == maxHints {
				break
			}
		}
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Procura alle liti e PEC"))
	b.WriteString("\n\n")

	for i, f := range textFields {
		b.WriteString(m.row(i, f.label, m.inputs[i].View(), m.fieldErrors[f.key]))
		if f.key == domain.FieldJurisdictionID {
			for _, h := range m.hints() {
				b.WriteString(m.styles.hint.Render(fmt.Sprintf("    %s  %s (%s)", h.ID, h.DisplayName, h.Region)))
				b.WriteString("\n")
			}
		}
	}
	toggle := fmt.Sprintf("< %s >", requestTypeLabel(m.requestType))
	b.WriteString(m.row(requestTypeIndex, "Tipo richiesta", toggle, m.fieldErrors[domain.FieldRequestType]))

	if m.resolution != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.section.Render("Destinatario"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "PEC: %s\nCommissione: %s\n%s\n", m.resolution.ContactAddress, m.resolution.CompetentAuthority, m.resolution.Reason)
	}
	if m.email != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.section.Render("Oggetto"))
		b.WriteString("\n" + m.email.Subject + "\n\n")
		b.WriteString(m.styles.section.Render("Testo"))
		b.WriteString("\n" + m.email.Body + "\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(m.styles.errorText.Render(m.status))
		} else {
			b.WriteString(m.styles.success.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("tab/shift+tab campi • ←/→ tipo • ctrl+p solo PDF • ctrl+g genera tutto • ctrl+s copia oggetto • ctrl+b copia testo • esc esci"))
	return b.String()
}

func (m Model) row(i int, label, value, errText string) string {
	labelStyle := m.styles.label
	if m.focus == i {
		labelStyle = m.styles.focused
	}
	line := labelStyle.Render(label) + " " + value
	if errText != "" {
		line += "  " + m.styles.errorText.Render(errText)
	}
	return line + "\n"
}

func requestTypeLabel(t domain.RequestType) string {
	if t == domain.RequestRecordsAccess {
		return "Accesso agli atti"
	}
	return "Richiesta asilo"
}
