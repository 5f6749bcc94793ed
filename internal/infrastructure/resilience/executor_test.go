package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap/zaptest"

	"github.com/kirillkom/procura/internal/core/domain"
)

func fastConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 1 * time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(), zaptest.NewLogger(t))

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteReturnsLastErrorWhenRetriesExhausted(t *testing.T) {
	exec := NewExecutor(fastConfig(), zaptest.NewLogger(t))

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("operation must not run after cancellation")
	}
}

func breakerConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    1,
			InitialBackoff: 1 * time.Millisecond,
			MaxBackoff:     1 * time.Millisecond,
			Multiplier:     2,
		},
		Breaker: BreakerPolicy{
			Enabled:      true,
			MinRequests:  2,
			FailureRatio: 0.5,
			OpenTimeout:  time.Minute,
			HalfOpenMax:  1,
		},
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(breakerConfig(), zaptest.NewLogger(t))

	errTemp := errors.New("temporary")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, nil)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if got := exec.States()["op"]; got != "open" {
		t.Fatalf("expected open breaker, got %q", got)
	}
}

type stubEngine struct {
	calls int
	err   error
}

func (s *stubEngine) Render(context.Context, domain.ProcuraDocument) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.3"), nil
}

func TestGuardedEngineReportsOpenCircuitAsTemporary(t *testing.T) {
	stub := &stubEngine{err: domain.WrapError(domain.ErrTemporary, "render", errors.New("renderer busy"))}
	engine := NewGuardedEngine(stub, NewExecutor(breakerConfig(), zaptest.NewLogger(t)))

	for i := 0; i < 2; i++ {
		if _, err := engine.Render(context.Background(), domain.ProcuraDocument{}); err == nil {
			t.Fatalf("expected failure on iteration %d", i)
		}
	}

	_, err := engine.Render(context.Background(), domain.ProcuraDocument{})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 engine calls, got %d", stub.calls)
	}
}

func TestGuardedEngineKeepsBreakerClosedOnLayoutErrors(t *testing.T) {
	errLayout := errors.New("layout exploded")
	stub := &stubEngine{err: errLayout}
	exec := NewExecutor(breakerConfig(), zaptest.NewLogger(t))
	engine := NewGuardedEngine(stub, exec)

	for i := 0; i < 5; i++ {
		if _, err := engine.Render(context.Background(), domain.ProcuraDocument{}); !errors.Is(err, errLayout) {
			t.Fatalf("expected layout error on iteration %d, got %v", i, err)
		}
	}
	if stub.calls != 5 {
		t.Fatalf("expected every render to reach the engine, got %d calls", stub.calls)
	}
	if got := exec.States()[renderOperation]; got != "closed" {
		t.Fatalf("expected closed breaker, got %q", got)
	}
}

func TestRetryPolicyDelayGrowsToCap(t *testing.T) {
	p := RetryPolicy{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 35 * time.Millisecond, Multiplier: 2}

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 35 * time.Millisecond, 35 * time.Millisecond}
	for i, w := range want {
		if got := p.delay(i + 1); got != w {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
}

func TestConfigNormalizeFillsRenderDefaults(t *testing.T) {
	got := Config{Retry: RetryPolicy{MaxAttempts: 4}}.normalize()
	def := RenderConfig()

	if got.Retry.MaxAttempts != 4 {
		t.Fatalf("expected explicit attempts to survive, got %d", got.Retry.MaxAttempts)
	}
	if got.Retry.InitialBackoff != def.Retry.InitialBackoff || got.Breaker.MinRequests != def.Breaker.MinRequests {
		t.Fatalf("expected render defaults, got %+v", got)
	}
	if got.Breaker.Enabled {
		t.Fatalf("breaker must stay disabled unless enabled explicitly")
	}
}

func TestGuardedEngineIgnoresCancellationForBreaker(t *testing.T) {
	stub := &stubEngine{err: context.Canceled}
	exec := NewExecutor(breakerConfig(), nil)
	engine := NewGuardedEngine(stub, exec)

	for i := 0; i < 4; i++ {
		if _, err := engine.Render(context.Background(), domain.ProcuraDocument{}); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled on iteration %d, got %v", i, err)
		}
	}
	if got := exec.States()[renderOperation]; got != "closed" {
		t.Fatalf("expected closed breaker, got %q", got)
	}

	stub.err = nil
	out, err := engine.Render(context.Background(), domain.ProcuraDocument{})
	if err != nil || string(out) != "%PDF-1.3" {
		t.Fatalf("expected rendered content, got %q, %v", out, err)
	}
}
