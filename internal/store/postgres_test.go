//go:build integration

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/testutil"
)

const testDims = 384

func unitVector(hot int) []float32 {
	v := make([]float32, testDims)
	v[hot] = 1
	return v
}

// blendVector mixes two axes so queries get graded similarities.
func blendVector(hot int, w float32, other int, ow float32) []float32 {
	v := make([]float32, testDims)
	v[hot] = w
	v[other] = ow
	return v
}

func newIntegrationStore(t *testing.T) (*PostgresStore, func()) {
	t.Helper()
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pc, filepath.Join("..", "..", "migrations"))

	st := NewPostgresStore(pool, testDims)
	cleanup := func() {
		st.Close()
		_ = pc.Terminate(ctx)
	}
	return st, cleanup
}

func seedItem(t *testing.T, st *PostgresStore, content string, category domain.Category, emb []float32, createdAt time.Time) *domain.KnowledgeItem {
	t.Helper()
	item := domain.NewKnowledgeItem(content, category, domain.SourceText, createdAt)
	item.Embedding = emb
	require.NoError(t, st.Upsert(context.Background(), item))
	return item
}

func TestPostgresStore_Integration(t *testing.T) {
	st, cleanup := newIntegrationStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("upsert and query", func(t *testing.T) {
		item := seedItem(t, st, "come funziona la lavatrice programma eco", domain.CategoryUtenze, unitVector(0), now)

		hits, err := st.Query(ctx, unitVector(0), 5, "")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, item.ID, hits[0].Item.ID)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-4)

		ok, err := st.Delete(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("upsert is idempotent and preserves created_at", func(t *testing.T) {
		first := seedItem(t, st, "il contatore della luce si trova in garage", domain.CategoryCasa, unitVector(1), now.Add(-time.Hour))

		// Same content and category produce the same ID.
		second := domain.NewKnowledgeItem("il contatore della luce si trova in garage", domain.CategoryCasa, domain.SourceText, now)
		second.Embedding = unitVector(1)
		require.Equal(t, first.ID, second.ID)
		require.NoError(t, st.Upsert(ctx, second))

		count, err := st.Count(ctx, domain.CategoryCasa)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		hits, err := st.Query(ctx, unitVector(1), 1, domain.CategoryCasa)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.WithinDuration(t, now.Add(-time.Hour), hits[0].Item.CreatedAt, time.Second)

		_, err = st.Delete(ctx, first.ID)
		require.NoError(t, err)
	})

	t.Run("category filter isolates results", func(t *testing.T) {
		a := seedItem(t, st, "prodotti per pulire il forno senza aggressivi", domain.CategoryPulizia, unitVector(2), now)
		b := seedItem(t, st, "manutenzione annuale della caldaia a gas", domain.CategoryManutenzione, unitVector(2), now)

		hits, err := st.Query(ctx, unitVector(2), 10, domain.CategoryPulizia)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, a.ID, hits[0].Item.ID)

		hits, err = st.Query(ctx, unitVector(2), 10, "")
		require.NoError(t, err)
		assert.Len(t, hits, 2)

		_, err = st.Delete(ctx, a.ID)
		require.NoError(t, err)
		_, err = st.Delete(ctx, b.ID)
		require.NoError(t, err)
	})

	t.Run("equal similarity breaks ties by recency", func(t *testing.T) {
		older := seedItem(t, st, "istruzioni vecchie per la raccolta differenziata", domain.CategoryGenerale, unitVector(3), now.Add(-2*time.Hour))
		newer := seedItem(t, st, "istruzioni nuove per la raccolta differenziata", domain.CategoryGenerale, unitVector(3), now)

		hits, err := st.Query(ctx, unitVector(3), 2, "")
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, newer.ID, hits[0].Item.ID)
		assert.Equal(t, older.ID, hits[1].Item.ID)

		_, err = st.Delete(ctx, older.ID)
		require.NoError(t, err)
		_, err = st.Delete(ctx, newer.ID)
		require.NoError(t, err)
	})

	t.Run("delete missing returns false", func(t *testing.T) {
		ok, err := st.Delete(ctx, "generale_deadbeef00000000")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("count by category", func(t *testing.T) {
		a := seedItem(t, st, "la bolletta della luce arriva ogni due mesi", domain.CategoryUtenze, unitVector(4), now)
		b := seedItem(t, st, "la bolletta del gas arriva ogni mese in inverno", domain.CategoryUtenze, unitVector(5), now)
		c := seedItem(t, st, "cambiare il filtro della cappa ogni sei mesi", domain.CategoryManutenzione, unitVector(6), now)

		counts, err := st.CountByCategory(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[domain.CategoryUtenze])
		assert.Equal(t, 1, counts[domain.CategoryManutenzione])

		for _, item := range []*domain.KnowledgeItem{a, b, c} {
			_, err = st.Delete(ctx, item.ID)
			require.NoError(t, err)
		}
	})

	t.Run("dimension mismatch is rejected", func(t *testing.T) {
		item := domain.NewKnowledgeItem("contenuto con dimensione errata del vettore", domain.CategoryGenerale, domain.SourceText, now)
		item.Embedding = make([]float32, 8)
		err := st.Upsert(ctx, item)
		require.Error(t, err)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeEmbedding))
	})
}

// TestBackendParity seeds identical fixtures into both backends and checks
// the ranked result order matches and similarities agree within 1e-4.
func TestBackendParity(t *testing.T) {
	pg, cleanup := newIntegrationStore(t)
	defer cleanup()

	local, err := NewBoltStore(filepath.Join(t.TempDir(), "parity.db"), testDims)
	require.NoError(t, err)
	defer local.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	fixtures := []struct {
		content  string
		category domain.Category
		emb      []float32
	}{
		{"spegnere la caldaia prima di partire per le vacanze", domain.CategoryManutenzione, blendVector(0, 1, 1, 0)},
		{"il rubinetto generale dell'acqua sta sotto il lavello", domain.CategoryCasa, blendVector(0, 0.9, 1, 0.4359)},
		{"la lavastoviglie va caricata senza incastrare i piatti", domain.CategoryUtenze, blendVector(0, 0.6, 1, 0.8)},
		{"aceto e bicarbonato per pulire i vetri di casa", domain.CategoryPulizia, blendVector(0, 0.2, 1, 0.9798)},
	}

	for i, f := range fixtures {
		item := domain.NewKnowledgeItem(f.content, f.category, domain.SourceText, now.Add(-time.Duration(i)*time.Minute))
		item.Embedding = f.emb
		require.NoError(t, pg.Upsert(ctx, item))
		require.NoError(t, local.Upsert(ctx, item))
	}

	query := unitVector(0)

	pgHits, err := pg.Query(ctx, query, len(fixtures), "")
	require.NoError(t, err)
	localHits, err := local.Query(ctx, query, len(fixtures), "")
	require.NoError(t, err)

	require.Len(t, pgHits, len(fixtures))
	require.Len(t, localHits, len(fixtures))

	for i := range pgHits {
		assert.Equal(t, localHits[i].Item.ID, pgHits[i].Item.ID, "rank %d diverges", i)
		assert.InDelta(t, localHits[i].Similarity, pgHits[i].Similarity, 1e-4, "rank %d similarity diverges", i)
	}
}
