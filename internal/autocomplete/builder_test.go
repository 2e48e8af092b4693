package autocomplete

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/internal/tokenizer"
)

type sliceSource []*models.Lemma

func (s sliceSource) ForEachLemma(_ context.Context, fn func(*models.Lemma) error) error {
	for _, l := range s {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func TestBuilder_Rebuild(t *testing.T) {
	store := newMemStore(t)
	src := sliceSource{
		{ID: "1", TopicFilename: "lessen.les-01", Native: "voor", Foreign: "أَمَامَ"},
		{ID: "2", TopicFilename: "lessen.les-02", Native: "voor (het) huis", Foreign: "بَيْت"},
		{ID: "3", TopicFilename: "lessen.les-02", Native: "kapot (stuk", Foreign: "مَكْسُور"},
	}
	b := NewBuilder(src, store, tokenizer.New(), WithLogger(zap.NewNop()))
	ctx := context.Background()

	n, err := b.Rebuild(ctx)
	require.NoError(t, err)
	// voor, huis, het | أمام, امام, بيت; lemma 3 is skipped.
	assert.Equal(t, 6, n)

	count, err := store.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 6, count)

	got, err := store.Prefix(ctx, "voor", 10)
	require.NoError(t, err)
	assert.Equal(t, []models.AutoCompleteEntry{{Word: "voor", Lang: models.LanguageNative}}, got, "shared word collapses to one entry")

	got, _ = store.Prefix(ctx, "kapot", 10)
	assert.Empty(t, got)

	again, err := b.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, again, "rebuild is idempotent")
}

func TestBuilder_RebuildEmpty(t *testing.T) {
	store := newMemStore(t)
	ctx := context.Background()
	require.NoError(t, store.Replace(ctx, []models.AutoCompleteEntry{{Word: "oud", Lang: models.LanguageNative}}))

	n, err := NewBuilder(sliceSource{}, store, tokenizer.New()).Rebuild(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	count, _ := store.Count()
	assert.Zero(t, count)
}
