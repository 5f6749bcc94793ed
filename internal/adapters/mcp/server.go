package mcpadapter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

const (
	serverName = "procura"

	ToolListSedi      = "list_sedi"
	ToolResolveSede   = "resolve_sede"
	ToolGenerateEmail = "generate_email"
	ToolRenderProcura = "render_procura"
)

const msgInvalidFields = "Alcuni campi non sono validi."

type Server struct {
	pipeline ports.ProcuraPipeline
	logger   *zap.Logger
	mcp      *server.MCPServer
}

// NewServer registers the procura tools on a fresh MCP server.
func NewServer(pipeline ports.ProcuraPipeline, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline: pipeline,
		logger:   logger,
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions("Genera la procura alle liti e la PEC per le Commissioni territoriali. "+
				"Usa list_sedi per trovare l'identificativo della sede."),
		),
	}

	s.mcp.AddTool(mcp.NewTool(ToolListSedi,
		mcp.WithDescription("Elenca le sedi disponibili raggruppate per regione."),
		mcp.WithString("regione", mcp.Description("Filtra per regione.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.listSedi)

	s.mcp.AddTool(mcp.NewTool(ToolResolveSede,
		mcp.WithDescription("Restituisce l'indirizzo PEC e la Commissione competente per una sede."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Identificativo della sede, es. monza.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	), s.resolveSede)

	s.mcp.AddTool(mcp.NewTool(ToolGenerateEmail, applicantOptions(
		mcp.WithDescription("Valida i dati del richiedente e compone oggetto e testo della PEC."),
		mcp.WithReadOnlyHintAnnotation(true),
	)...), s.generateEmail)

	s.mcp.AddTool(mcp.NewTool(ToolRenderProcura, applicantOptions(
		mcp.WithDescription("Valida i dati del richiedente e genera la procura in PDF."),
		mcp.WithIdempotentHintAnnotation(true),
	)...), s.renderProcura)

	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks until stdin is closed or the process is signalled.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func applicantOptions(extra ...mcp.ToolOption) []mcp.ToolOption {
	opts := append([]mcp.ToolOption{}, extra...)
	return append(opts,
		mcp.WithString(domain.FieldFirstName, mcp.Required(), mcp.Description("Nome del richiedente.")),
		mcp.WithString(domain.FieldLastName, mcp.Required(), mcp.Description("Cognome del richiedente.")),
		mcp.WithString(domain.FieldBirthDate, mcp.Required(), mcp.Description("Data di nascita, AAAA-MM-GG.")),
		mcp.WithString(domain.FieldBirthPlace, mcp.Required(), mcp.Description("Luogo di nascita.")),
		mcp.WithString(domain.FieldFiscalCode, mcp.Required(), mcp.Description("Codice fiscale.")),
		mcp.WithString(domain.FieldCaseReference, mcp.Description("Numero VESTANET, facoltativo.")),
		mcp.WithString(domain.FieldJurisdictionID, mcp.Required(), mcp.Description("Identificativo della sede.")),
		mcp.WithString(domain.FieldRequestType, mcp.Required(),
			mcp.Enum(string(domain.RequestAsylum), string(domain.RequestRecordsAccess)),
			mcp.Description("Tipo di richiesta.")),
	)
}

func (s *Server) listSedi(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups := s.pipeline.ListJurisdictions()
	if region := strings.TrimSpace(req.GetString("regione", "")); region != "" {
		filtered := make([]domain.RegionGroup, 0, 1)
		for _, g := range groups {
			if strings.EqualFold(g.Region, region) {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	return mcp.NewToolResultJSON(map[string]any{"regioni": groups})
}

func (s *Server) resolveSede(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.pipeline.Resolve(id)
	if err != nil {
		return s.toolError(ToolResolveSede, err), nil
	}
	return mcp.NewToolResultJSON(res)
}

type emailResult struct {
	Resolution *domain.Resolution     `json:"resolution"`
	Email      *domain.GeneratedEmail `json:"email"`
}

func (s *Server) generateEmail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcome, err := s.pipeline.Email(ctx, applicantFromRequest(req))
	if err != nil {
		return s.toolError(ToolGenerateEmail, err), nil
	}
	return mcp.NewToolResultJSON(emailResult{Resolution: outcome.Resolution, Email: outcome.Email})
}

func (s *Server) renderProcura(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcome, err := s.pipeline.RenderOnly(ctx, applicantFromRequest(req))
	if err != nil {
		return s.toolError(ToolRenderProcura, err), nil
	}

	doc := outcome.Document
	return mcp.NewToolResultResource(
		fmt.Sprintf("Procura generata: %s (%d byte).", doc.Filename, len(doc.Content)),
		mcp.BlobResourceContents{
			URI:      "procura://" + doc.Filename,
			MIMEType: doc.ContentType,
			Blob:     base64.StdEncoding.EncodeToString(doc.Content),
		},
	), nil
}

func applicantFromRequest(req mcp.CallToolRequest) domain.ApplicantInput {
	return domain.ApplicantInput{
		FirstName:      req.GetString(domain.FieldFirstName, ""),
		LastName:       req.GetString(domain.FieldLastName, ""),
		BirthDate:      req.GetString(domain.FieldBirthDate, ""),
		BirthPlace:     req.GetString(domain.FieldBirthPlace, ""),
		FiscalCode:     req.GetString(domain.FieldFiscalCode, ""),
		CaseReference:  req.GetString(domain.FieldCaseReference, ""),
		JurisdictionID: req.GetString(domain.FieldJurisdictionID, ""),
		RequestType:    req.GetString(domain.FieldRequestType, ""),
	}
}

// toolError turns a pipeline failure into an IsError result with the
// user-facing message.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
		renderErr     *domain.RenderError
	)
	switch {
	case errors.As(err, &validationErr):
		var b strings.Builder
		b.WriteString(msgInvalidFields)
		for _, key := range validationErr.Keys() {
			fmt.Fprintf(&b, "\n%s: %s", key, validationErr.Fields[key])
		}
		return mcp.NewToolResultError(b.String())
	case errors.As(err, &resolutionErr):
		return mcp.NewToolResultError(resolutionErr.Message)
	case errors.As(err, &renderErr):
		s.logger.Warn("tool_render_failed", zap.String("tool", tool), zap.Error(err))
		return mcp.NewToolResultError(renderErr.Message())
	default:
		s.logger.Error("tool_failed", zap.String("tool", tool), zap.Error(err))
		return mcp.NewToolResultError(domain.MsgGenerationFailed)
	}
}
