package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrJurisdictionNotSelected = errors.New("jurisdiction not selected")
	ErrJurisdictionNotFound    = errors.New("jurisdiction not found")
	ErrRenderFailed            = errors.New("render failed")
	ErrTemporary               = errors.New("temporary failure")
)

// User-facing messages returned by the pipeline.
const (
	MsgNoJurisdictionSelected = "Nessuna sede selezionata."
	MsgJurisdictionNotFound   = "Non è disponibile un indirizzo PEC per questo luogo. Verifica manualmente."
	MsgRenderFailed           = "Errore durante la generazione del PDF. Riprova."
	MsgGenerationFailed       = "Errore durante la generazione. Riprova."
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Keys(), ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Keys returns the offending field keys in lexical order.
func (e *ValidationError) Keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolutionError is terminal for the submission that produced it.
type ResolutionError struct {
	Kind    error
	Message string
}

func (e *ResolutionError) Error() string {
	return e.Message
}

func (e *ResolutionError) Unwrap() error {
	return e.Kind
}

type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRenderFailed, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRenderFailed, e.Err}
}

// Message is the generic retry prompt shown instead of the cause.
func (e *RenderError) Message() string {
	return MsgRenderFailed
}
