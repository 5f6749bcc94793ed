package resilience

import (
	"context"
	"errors"

	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/core/ports"
)

const renderOperation = "procura.render"

// GuardedEngine runs a document engine through the executor. While the
// breaker is open, renders fail fast with domain.ErrTemporary.
type GuardedEngine struct {
	next ports.DocumentEngine
	exec *Executor
}

func NewGuardedEngine(next ports.DocumentEngine, exec *Executor) *GuardedEngine {
	return &GuardedEngine{next: next, exec: exec}
}

func (g *GuardedEngine) Render(ctx context.Context, doc domain.ProcuraDocument) ([]byte, error) {
	var out []byte
	err := g.exec.Execute(ctx, renderOperation, func(ctx context.Context) error {
		content, err := g.next.Render(ctx, doc)
		if err != nil {
			return err
		}
		out = content
		return nil
	}, classifyRenderError)
	if err != nil {
		if IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "render procura", err)
		}
		return nil, err
	}
	return out, nil
}

// classifyRenderError retries and counts only temporary failures. A layout
// error repeats for the same document, so it must not open the breaker for
// every other caller.
func classifyRenderError(err error) ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{}
	}
	temporary := errors.Is(err, domain.ErrTemporary)
	return ErrorClassification{Retryable: temporary, RecordFailure: temporary}
}
