package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/internal/adapters/file"
	"github.com/aretw0/lattice/pkg/codec"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements DocumentStore
var _ ports.DocumentStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		ports.RunDocumentStoreContract(t, file.New(t.TempDir()))
	})
	t.Run("yaml", func(t *testing.T) {
		ports.RunDocumentStoreContract(t, file.New(t.TempDir(), file.WithFormat(codec.FormatYAML)))
	})
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewDocument("home", domain.VariantPage)))
	_, err := os.Stat(filepath.Join(dir, "home.json"))
	require.NoError(t, err, "document should be written as <id>.json")

	// Garbage and leftover temp files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.txt"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-home-123.json"), []byte("{}"), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, ids)
}

func TestFileStore_LoadsLegacyFile(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"elements":[{"id":"h","type":"heading","props":{"text":"Hi"}},{"type":"carousel"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(legacy), 0644))

	doc, err := file.New(dir).Load(context.Background(), "old")
	require.NoError(t, err)

	assert.Equal(t, "old", doc.ID, "id falls back to the file name")
	require.Len(t, doc.Roots, 1)
	assert.Equal(t, domain.KindHeading, doc.Roots[0].Kind)
	assert.Equal(t, "Hi", doc.Roots[0].Attributes.String("text"))
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	err := store.Save(ctx, domain.NewDocument("../escape", domain.VariantPage))
	require.Error(t, err)

	_, err = store.Load(ctx, "")
	require.Error(t, err)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "not-yet"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
