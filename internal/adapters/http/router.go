package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kirillkom/procura/internal/config"
	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
	"github.com/kirillkom/procura/internal/observability/metrics"
)

const (
	serviceName     = "procura-api"
	maxRequestBytes = 64 << 10
)

type Router struct {
	pipeline ports.ProcuraPipeline
	metrics  *metrics.HTTPServerMetrics
	logger   *zap.Logger

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	queueWait      time.Duration

	breakerStates func() map[string]string
	shape         func(http.Handler) http.Handler
}

type Option func(*Router)

// WithBreakerStates reports circuit breaker states on /healthz.
func WithBreakerStates(fn func() map[string]string) Option {
	return func(rt *Router) { rt.breakerStates = fn }
}

func NewRouter(
	cfg config.Config,
	pipeline ports.ProcuraPipeline,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *zap.Logger,
	opts ...Option,
) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	_, apiRouter, err := loadOpenAPI()
	if err != nil {
		return nil, err
	}

	rt := &Router{
		pipeline:       pipeline,
		metrics:        httpMetrics,
		logger:         logger,
		rateLimitRPS:   cfg.RateLimitRPS,
		rateLimitBurst: cfg.RateLimitBurst,
		maxInFlight:    cfg.MaxInFlight,
		queueWait:      cfg.QueueWait,
		shape:          requestShapeMiddleware(apiRouter),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt, nil
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(rt.logger))
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	r.Get("/healthz", rt.healthz)
	r.Get("/openapi.yaml", rt.openAPI)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, rt.rateLimitRPS, rt.rateLimitBurst)
		})
		r.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.maxInFlight, rt.queueWait)
		})
		r.Use(bodyLimitMiddleware(maxRequestBytes))
		r.Use(rt.shape)

		r.Get("/sedi", rt.listSedi)
		r.Get("/sedi/{id}", rt.resolveSede)
		r.Post("/validate", rt.validate)
		r.Post("/email", rt.email)
		r.Post("/procura", rt.renderProcura)
		r.Post("/generate", rt.generate)
	})
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	count := 0
	for _, g := range rt.pipeline.ListJurisdictions() {
		count += len(g.Jurisdictions)
	}
	payload := map[string]any{"status": "ok", "sedi": count}
	if rt.breakerStates != nil {
		payload["breakers"] = rt.breakerStates()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) listSedi(w http.ResponseWriter, r *http.Request) {
	groups := rt.pipeline.ListJurisdictions()
	if region := strings.TrimSpace(r.URL.Query().Get("regione")); region != "" {
		filtered := groups[:0]
		for _, g := range groups {
			if strings.EqualFold(g.Region, region) {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"regioni": groups})
}

func (rt *Router) resolveSede(w http.ResponseWriter, r *http.Request) {
	res, err := rt.pipeline.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) validate(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeApplicant(w, r)
	if !ok {
		return
	}
	rec, err := rt.pipeline.Validate(input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) email(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeApplicant(w, r)
	if !ok {
		return
	}
	outcome, err := rt.pipeline.Email(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) renderProcura(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeApplicant(w, r)
	if !ok {
		return
	}
	outcome, err := rt.pipeline.RenderOnly(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	doc := outcome.Document
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

type generateResponse struct {
	*domain.Outcome
	Error string `json:"error,omitempty"`
}

func (rt *Router) generate(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeApplicant(w, r)
	if !ok {
		return
	}
	outcome, err := rt.pipeline.GenerateAll(r.Context(), input)
	if err == nil {
		writeJSON(w, http.StatusOK, generateResponse{Outcome: outcome})
		return
	}

	var renderErr *domain.RenderError
	if outcome != nil && errors.As(err, &renderErr) {
		status := mapErrorToHTTPStatus(err)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "1")
		}
		writeJSON(w, status, generateResponse{Outcome: outcome, Error: renderErr.Message()})
		return
	}
	writeError(w, err)
}

func decodeApplicant(w http.ResponseWriter, r *http.Request) (domain.ApplicantInput, bool) {
	var input domain.ApplicantInput

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return domain.ApplicantInput{}, false
	}
	return input, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
