package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

// PipelineUseCase sequences validate → resolve → email → render.
// Identical submissions that overlap in time share a single run.
type PipelineUseCase struct {
	validator ports.ApplicantValidator
	resolver  ports.JurisdictionResolver
	composer  ports.EmailComposer
	renderer  ports.ProcuraRenderer
	observer  ports.PipelineObserver
	logger    *zap.Logger

	inflight singleflight.Group
}

func NewPipelineUseCase(
	validator ports.ApplicantValidator,
	resolver ports.JurisdictionResolver,
	composer ports.EmailComposer,
	renderer ports.ProcuraRenderer,
	observer ports.PipelineObserver,
	logger *zap.Logger,
) *PipelineUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineUseCase{
		validator: validator,
		resolver:  resolver,
		composer:  composer,
		renderer:  renderer,
		observer:  observer,
		logger:    logger,
	}
}

func (uc *PipelineUseCase) Validate(raw domain.ApplicantInput) (domain.NormalizedRecord, error) {
	return uc.validator.Validate(raw)
}

func (uc *PipelineUseCase) Resolve(id string) (domain.Resolution, error) {
	return uc.resolver.Resolve(id)
}

func (uc *PipelineUseCase) ListJurisdictions() []domain.RegionGroup {
	return uc.resolver.List()
}

// RenderOnly validates and renders; the jurisdiction is not resolved.
func (uc *PipelineUseCase) RenderOnly(ctx context.Context, raw domain.ApplicantInput) (*domain.Outcome, error) {
	return uc.run(ctx, domain.ModeDocumentOnly, raw, func(ctx context.Context) (*domain.Outcome, error) {
		rec, err := uc.validator.Validate(raw)
		if err != nil {
			return nil, err
		}
		doc, err := uc.render(ctx, rec)
		if err != nil {
			return nil, err
		}
		return &domain.Outcome{Record: rec, Document: doc}, nil
	})
}

// Email validates, resolves and composes the PEC text without rendering.
func (uc *PipelineUseCase) Email(ctx context.Context, raw domain.ApplicantInput) (*domain.Outcome, error) {
	return uc.run(ctx, domain.ModeEmail, raw, func(context.Context) (*domain.Outcome, error) {
		return uc.compose(raw)
	})
}

// GenerateAll runs every step. A resolution failure stops the run before any
// text is produced; a render failure still returns the resolution and email.
func (uc *PipelineUseCase) GenerateAll(ctx context.Context, raw domain.ApplicantInput) (*domain.Outcome, error) {
	return uc.run(ctx, domain.ModeGenerateAll, raw, func(ctx context.Context) (*domain.Outcome, error) {
		outcome, err := uc.compose(raw)
		if err != nil {
			return nil, err
		}
		doc, err := uc.render(ctx, outcome.Record)
		if err != nil {
			return outcome, err
		}
		outcome.Document = doc
		return outcome, nil
	})
}

func (uc *PipelineUseCase) compose(raw domain.ApplicantInput) (*domain.Outcome, error) {
	rec, err := uc.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	res, err := uc.resolver.Resolve(rec.JurisdictionID)
	if err != nil {
		return nil, err
	}
	email := uc.composer.Compose(rec, res.CompetentAuthority)
	return &domain.Outcome{Record: rec, Resolution: &res, Email: &email}, nil
}

func (uc *PipelineUseCase) render(ctx context.Context, rec domain.NormalizedRecord) (*domain.RenderedDocument, error) {
	doc, err := uc.renderer.Render(ctx, rec)
	if err != nil {
		var renderErr *domain.RenderError
		if !errors.As(err, &renderErr) {
			err = &domain.RenderError{Err: err}
		}
		return nil, err
	}
	return doc, nil
}

// run merges identical in-flight submissions. The shared run is detached from
// every caller's cancellation; each caller stops waiting on its own ctx.
func (uc *PipelineUseCase) run(
	ctx context.Context,
	mode domain.PipelineMode,
	raw domain.ApplicantInput,
	fn func(context.Context) (*domain.Outcome, error),
) (*domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	ch := uc.inflight.DoChan(submissionKey(mode, raw), func() (any, error) {
		start := time.Now()
		uc.observer.StartRun(mode)
		outcome, err := fn(detached)
		duration := time.Since(start)
		uc.observer.FinishRun(mode, duration, err)
		uc.logRun(mode, duration, err)
		return outcome, err
	})

	select {
	case <-ctx.Done():
		uc.logger.Debug("pipeline_caller_gone", zap.String("mode", string(mode)), zap.Error(ctx.Err()))
		return nil, ctx.Err()
	case res := <-ch:
		outcome, _ := res.Val.(*domain.Outcome)
		if res.Shared && outcome != nil {
			uc.logger.Debug("pipeline_submission_collapsed", zap.String("mode", string(mode)))
			cp := *outcome
			outcome = &cp
		}
		return outcome, res.Err
	}
}

func (uc *PipelineUseCase) logRun(mode domain.PipelineMode, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("mode", string(mode)),
		zap.Float64("duration_ms", float64(duration.Microseconds())/1000.0),
	}

	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
		renderErr     *domain.RenderError
	)
	switch {
	case err == nil:
		uc.logger.Info("pipeline_completed", fields...)
	case errors.As(err, &validationErr):
		uc.logger.Info("pipeline_rejected", append(fields, zap.Strings("fields", validationErr.Keys()))...)
	case errors.As(err, &resolutionErr):
		uc.logger.Warn("pipeline_unresolved", append(fields, zap.String("reason", resolutionErr.Message))...)
	case errors.As(err, &renderErr):
		uc.logger.Error("pipeline_render_failed", append(fields, zap.Error(renderErr.Err))...)
	default:
		uc.logger.Error("pipeline_failed", append(fields, zap.Error(err))...)
	}
}

func submissionKey(mode domain.PipelineMode, raw domain.ApplicantInput) string {
	return strings.Join([]string{
		string(mode),
		raw.FirstName,
		raw.LastName,
		raw.BirthDate,
		raw.BirthPlace,
		raw.FiscalCode,
		raw.CaseReference,
		raw.JurisdictionID,
		raw.RequestType,
	}, "\x1f")
}

type noopObserver struct{}

func (noopObserver) StartRun(domain.PipelineMode) {}

func (noopObserver) FinishRun(domain.PipelineMode, time.Duration, error) {}
