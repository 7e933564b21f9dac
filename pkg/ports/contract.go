package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	sample := func(id string) *domain.Document {
		doc := domain.NewDocument(id, domain.VariantPage)
		doc.Title = "Contract"
		doc.Roots = []domain.Node{
			{ID: "hero", Kind: domain.KindSection, Children: []domain.Node{
				{ID: "cta", Kind: domain.KindButton, Attributes: domain.Attributes{"label": "Go"}},
			}},
		}
		doc.SelectedID = "cta"
		return doc
	}

	t.Run("Save and Load", func(t *testing.T) {
		doc := sample(docID)

		err := store.Save(ctx, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc.ID, loaded.ID)
		assert.Equal(t, doc.Title, loaded.Title)
		assert.Equal(t, doc.Variant, loaded.Variant)
		assert.Equal(t, doc.SelectedID, loaded.SelectedID)
		assert.Equal(t, doc.Roots, loaded.Roots)
	})

	t.Run("Stored Copy Is Isolated", func(t *testing.T) {
		doc := sample(docID)
		require.NoError(t, store.Save(ctx, doc))

		doc.Roots[0].Children[0].Attributes["label"] = "changed"
		doc.Title = "changed"

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "Contract", loaded.Title)
		assert.Equal(t, "Go", loaded.Roots[0].Children[0].Attributes["label"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		doc := sample(docID)
		doc.Roots = doc.Roots[:0]
		require.NoError(t, store.Save(ctx, doc))

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Roots)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sample(docID)))

		err := store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		require.NoError(t, store.Save(ctx, sample(id1)))
		require.NoError(t, store.Save(ctx, sample(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
