package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/procura/internal/core/domain"
)

// JurisdictionCatalog is the read-only reference dataset.
type JurisdictionCatalog interface {
	Lookup(id string) (domain.JurisdictionRecord, bool)
	ListAll() []domain.RegionGroup
}

// DocumentEngine lays out a procura and returns the encoded artifact.
type DocumentEngine interface {
	Render(ctx context.Context, doc domain.ProcuraDocument) ([]byte, error)
}

// DocumentVerifier reads a rendered artifact back before it is exposed.
type DocumentVerifier interface {
	Verify(content []byte, doc domain.ProcuraDocument) error
}

// ObjectStorage stores rendered artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type Clock interface {
	Now() time.Time
}

// PipelineObserver receives one notification per pipeline run.
type PipelineObserver interface {
	StartRun(mode domain.PipelineMode)
	FinishRun(mode domain.PipelineMode, duration time.Duration, err error)
}
