package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kirillkom/procura/internal/config"
	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
	"github.com/kirillkom/procura/internal/core/usecase"
	"github.com/kirillkom/procura/internal/infrastructure/dataset"
	"github.com/kirillkom/procura/internal/infrastructure/pdf/fpdfengine"
	"github.com/kirillkom/procura/internal/infrastructure/pdf/inspect"
	"github.com/kirillkom/procura/internal/infrastructure/resilience"
	"github.com/kirillkom/procura/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/procura/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *zap.Logger

	Registry *prometheus.Registry
	Catalog  *dataset.Catalog
	Profile  domain.RepresentativeProfile
	Executor *resilience.Executor
	Storage  *localfs.Storage
	Pipeline ports.ProcuraPipeline

	closeFn func()
}

type options struct {
	clock   ports.Clock
	service string
}

type Option func(*options)

// WithClock overrides the clock used for validation and the issue date.
func WithClock(clock ports.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithService sets the service label attached to metrics.
func WithService(name string) Option {
	return func(o *options) { o.service = name }
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{
		clock:   usecase.SystemClock{Location: cfg.Location()},
		service: "procura",
	}
	for _, opt := range opts {
		opt(&o)
	}

	catalog, err := dataset.LoadFile(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	profile, err := dataset.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load representative profile: %w", err)
	}
	storage, err := localfs.New(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	validator, err := usecase.NewApplicantValidator(o.clock, cfg.CaseReferenceRule)
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}

	policy := resilience.RenderConfig()
	policy.Retry.MaxAttempts = cfg.RenderRetryAttempts
	policy.Breaker.Enabled = cfg.BreakerEnabled
	policy.Breaker.MinRequests = uint32(max(cfg.BreakerMinRequests, 0))
	policy.Breaker.FailureRatio = cfg.BreakerFailureRatio
	policy.Breaker.OpenTimeout = cfg.BreakerOpenTimeout
	executor := resilience.NewExecutor(policy, logger.Named("resilience"))
	engine := resilience.NewGuardedEngine(fpdfengine.New(fpdfengine.DefaultLayout()), executor)

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(o.service, registry)

	renderer := usecase.NewProcuraRenderer(engine, inspect.NewVerifier(), profile, o.clock, logger.Named("renderer"))
	pipeline := usecase.NewPipelineUseCase(
		validator,
		usecase.NewJurisdictionResolver(catalog),
		usecase.NewEmailComposer(profile),
		renderer,
		pipelineMetrics,
		logger.Named("pipeline"),
	)

	logger.Info("bootstrap_ready",
		zap.Int("sedi", catalog.Len()),
		zap.String("representative", profile.DisplayName()),
		zap.String("case_reference_rule", string(cfg.CaseReferenceRule)),
		zap.String("output_dir", cfg.OutputDir),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Catalog:  catalog,
		Profile:  profile,
		Executor: executor,
		Storage:  storage,
		Pipeline: pipeline,
		closeFn: func() {
			_ = logger.Sync()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
