package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/procura/internal/core/domain"
)

const msgInvalidFields = "Alcuni campi non sono validi."

func mapErrorToHTTPStatus(err error) int {
	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &resolutionErr) && domain.IsKind(err, domain.ErrJurisdictionNotFound):
		return http.StatusNotFound
	case errors.As(err, &resolutionErr):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrRenderFailed):
		return http.StatusInternalServerError
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders the user-facing message for err; internal detail stays in the logs.
func errorBody(err error) any {
	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
		renderErr     *domain.RenderError
	)
	switch {
	case errors.As(err, &validationErr):
		return map[string]any{"error": msgInvalidFields, "errors": validationErr.Fields}
	case errors.As(err, &resolutionErr):
		return map[string]string{"error": resolutionErr.Message}
	case errors.As(err, &renderErr):
		return map[string]string{"error": renderErr.Message()}
	case domain.IsKind(err, domain.ErrInvalidInput):
		return map[string]string{"error": err.Error()}
	default:
		return map[string]string{"error": domain.MsgGenerationFailed}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody(err))
}
