package localfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/procura/internal/core/domain"
)

func TestSaveAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "Procura_Rossi_Mario_2025-03-14.pdf", bytes.NewReader([]byte("%PDF-1.3"))))

	rc, err := s.Open(context.Background(), "Procura_Rossi_Mario_2025-03-14.pdf")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestSaveOverwrites(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "a.pdf", bytes.NewReader([]byte("first"))))
	require.NoError(t, s.Save(context.Background(), "a.pdf", bytes.NewReader([]byte("second"))))

	path, err := s.Path("a.pdf")
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestRejectsPathKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape.pdf", "nested/file.pdf", `win\file.pdf`} {
		err := s.Save(context.Background(), key, bytes.NewReader(nil))
		assert.True(t, domain.IsKind(err, domain.ErrInvalidInput), key)
	}
}

func TestSaveHonorsCancelledContext(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Save(ctx, "a.pdf", bytes.NewReader(nil)), context.Canceled)
}
