package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
)

func TestLocalStorage_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "a.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.pdf", url)

	data, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = store.Save(ctx, "a.pdf", "application/pdf", strings.NewReader("again"))
	assert.Error(t, err, "existing files are never overwritten")

	_, err = store.Save(ctx, "../escape.pdf", "application/pdf", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestUniqueName(t *testing.T) {
	tests := []struct {
		original string
		wantExt  string
	}{
		{"photo.JPG", ".jpg"},
		{"notes", ""},
		{`C:\docs\report.pdf`, ".pdf"},
		{"x.averyveryverylongext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name := UniqueName(tt.original)
			assert.True(t, strings.HasSuffix(name, tt.wantExt))
			assert.Len(t, name, 36+len(tt.wantExt))
		})
	}
	assert.NotEqual(t, UniqueName("a.png"), UniqueName("a.png"))
}

func TestNew(t *testing.T) {
	store, err := New(context.Background(), core.StorageConfig{LocalDir: t.TempDir(), PublicBaseURL: "/uploads"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, err = New(context.Background(), core.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
