package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/procura/internal/core/domain"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewHTTPServerMetrics("procura-api", registry)

	r := chi.NewRouter()
	r.Get("/v1/sedi/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"x"}`))
	})
	handler := m.Middleware("procura-api", r)

	for _, id := range []string{"milano", "roma", "torino"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sedi/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("procura-api", http.MethodGet, "/v1/sedi/{id}", "404"))
	assert.Equal(t, 3.0, got)
}

func TestHandlerExposesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewHTTPServerMetrics("procura-api", registry)
	p := NewPipelineMetrics("procura-api", registry)
	p.StartRun(domain.ModeEmail)
	p.FinishRun(domain.ModeEmail, 5*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `procura_pipeline_runs_total{mode="email",outcome="success",service="procura-api"} 1`))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/v1/sedi/{id}", normalizePath("/v1/sedi/milano"))
	assert.Equal(t, "/v1/sedi", normalizePath("/v1/sedi"))
}

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"success":       nil,
		"invalid":       &domain.ValidationError{Fields: map[string]string{"nome": "x"}},
		"unresolved":    &domain.ResolutionError{Kind: domain.ErrJurisdictionNotFound, Message: domain.MsgJurisdictionNotFound},
		"render_failed": &domain.RenderError{Err: errors.New("boom")},
		"unavailable":   &domain.RenderError{Err: domain.WrapError(domain.ErrTemporary, "render", errors.New("open"))},
		"error":         errors.New("other"),
	}
	for want, err := range tests {
		assert.Equal(t, want, Outcome(err), want)
	}
}

func TestPipelineMetricsTracksInFlight(t *testing.T) {
	p := NewPipelineMetrics("procura-cli", nil)
	p.StartRun(domain.ModeGenerateAll)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.runInFlight))
	p.FinishRun(domain.ModeGenerateAll, time.Millisecond, &domain.RenderError{Err: errors.New("boom")})
	assert.Equal(t, 0.0, testutil.ToFloat64(p.runInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.runTotal.WithLabelValues("procura-cli", "all", "render_failed")))
}
