package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/lexicon/internal/autocomplete"
	"github.com/hyperjump/lexicon/internal/fileid"
	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/internal/parser"
	"github.com/hyperjump/lexicon/internal/storage"
	"github.com/hyperjump/lexicon/internal/tokenizer"
)

const lesson1 = `---
title: Les 1
restricted: false
---
## Woorden

native | foreign | roman
--- | --- | ---
voor | أَمَامَ | ʾamāma
het huis | بَيْت | bayt
`

const lesson2 = `---
title: Les 2
restricted: false
---
native | foreign
--- | ---
voor | قَبْلَ
`

type countingRebuilder struct {
	triggers atomic.Int32
	flushes  atomic.Int32
}

func (r *countingRebuilder) Trigger()    { r.triggers.Add(1) }
func (r *countingRebuilder) Flush() bool { r.flushes.Add(1); return true }

func newTestPipeline(t *testing.T, rebuild Rebuilder) (*Pipeline, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "lexicon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewPipeline(store, tokenizer.New(), rebuild, WithLogger(zap.NewNop()), WithConcurrency(2)), store
}

func key(article string) fileid.Key {
	return fileid.Key{Publication: "lessen", Article: article}
}

func TestPipeline_AddOrReplace(t *testing.T) {
	t.Parallel()

	rb := &countingRebuilder{}
	p, store := newTestPipeline(t, rb)
	ctx := context.Background()

	d, err := p.AddOrReplace(ctx, key("les-01"), []byte(lesson1))
	require.NoError(t, err)
	assert.Equal(t, DispositionSuccess, d)
	assert.EqualValues(t, 1, rb.triggers.Load())

	topic, err := store.GetTopic(ctx, "lessen.les-01")
	require.NoError(t, err)
	assert.Equal(t, Fingerprint([]byte(lesson1)), topic.Fingerprint)
	assert.Equal(t, models.KindLemmas, topic.Kind)

	lemmas, err := store.GetLemmasByTopic(ctx, "lessen.les-01")
	require.NoError(t, err)
	require.Len(t, lemmas, 2)
	assert.NotEmpty(t, lemmas[0].ID)
	assert.NotEqual(t, lemmas[0].ID, lemmas[1].ID)

	hits, err := store.FindLemmasByWord(ctx, "huis")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "het huis", hits[0].Native)

	d, err = p.AddOrReplace(ctx, key("les-01"), []byte(lesson1))
	require.NoError(t, err)
	assert.Equal(t, DispositionUnchanged, d)
	assert.EqualValues(t, 1, rb.triggers.Load(), "unchanged content triggers nothing")

	words, err := store.CountWords(ctx)
	require.NoError(t, err)
	assert.Positive(t, words)
}

func TestPipeline_ReplaceDropsOldRows(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, &countingRebuilder{})
	ctx := context.Background()

	_, err := p.AddOrReplace(ctx, key("les-01"), []byte(lesson1))
	require.NoError(t, err)
	_, err = p.AddOrReplace(ctx, key("les-01"), []byte(lesson2))
	require.NoError(t, err)

	lemmas, err := store.GetLemmasByTopic(ctx, "lessen.les-01")
	require.NoError(t, err)
	require.Len(t, lemmas, 1)
	assert.Equal(t, "voor", lemmas[0].Native)

	hits, err := store.FindLemmasByWord(ctx, "huis")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPipeline_MalformedKeepsPreviousVersion(t *testing.T) {
	t.Parallel()

	rb := &countingRebuilder{}
	p, store := newTestPipeline(t, rb)
	ctx := context.Background()

	_, err := p.AddOrReplace(ctx, key("les-01"), []byte(lesson1))
	require.NoError(t, err)

	_, err = p.AddOrReplace(ctx, key("les-01"), []byte("---\nsubtitle: geen titel\n---\n"))
	var missing *parser.MissingAttribute
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "title", missing.Field)

	broken := "---\ntitle: Kapot\n---\nnative | foreign\n--- | ---\nkapot (stuk | مَكْسُور\n"
	_, err = p.AddOrReplace(ctx, key("les-01"), []byte(broken))
	var unbalanced *tokenizer.UnbalancedParentheses
	require.ErrorAs(t, err, &unbalanced)

	_, err = p.AddOrReplace(ctx, key("les-01"), []byte{0xff, 0xfe})
	require.ErrorIs(t, err, ErrInvalidEncoding)

	topic, err := store.GetTopic(ctx, "lessen.les-01")
	require.NoError(t, err)
	assert.Equal(t, "Les 1", topic.Title)
	lemmas, err := store.GetLemmasByTopic(ctx, "lessen.les-01")
	require.NoError(t, err)
	assert.Len(t, lemmas, 2)
	assert.EqualValues(t, 1, rb.triggers.Load())
}

func TestPipeline_IndexAndTextDocuments(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, &countingRebuilder{})
	ctx := context.Background()

	_, err := p.AddOrReplace(ctx, fileid.Key{Publication: "lessen", Article: fileid.IndexArticle},
		[]byte("---\ntitle: Lessen\n---\nnative | foreign\n--- | ---\nniet | مش\n"))
	require.NoError(t, err)
	_, err = p.AddOrReplace(ctx, key("inleiding"), []byte("---\ntitle: Inleiding\n---\nAlleen tekst.\n"))
	require.NoError(t, err)

	idx, err := store.ListIndexTopics(ctx)
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, models.KindIndex, idx[0].Kind)

	text, err := store.GetTopic(ctx, "lessen.inleiding")
	require.NoError(t, err)
	assert.Equal(t, models.KindText, text.Kind)

	lemmas, err := store.CountLemmas(ctx)
	require.NoError(t, err)
	assert.Zero(t, lemmas, "index bodies are never scanned for tables")
}

func TestPipeline_DeleteCascade(t *testing.T) {
	t.Parallel()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "lexicon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	completions, err := autocomplete.NewBleveStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = completions.Close() })

	tok := tokenizer.New()
	rebuild := autocomplete.NewBuilder(store, completions, tok).Debounced(time.Hour)
	t.Cleanup(rebuild.Stop)
	p := NewPipeline(store, tok, rebuild)
	ctx := context.Background()

	_, err = p.AddOrReplace(ctx, key("les-01"), []byte(lesson1))
	require.NoError(t, err)
	_, err = p.AddOrReplace(ctx, key("les-02"), []byte(lesson2))
	require.NoError(t, err)
	require.True(t, rebuild.Flush())

	deleted, err := p.DeleteByKey(ctx, key("les-01"))
	require.NoError(t, err)
	assert.True(t, deleted)
	require.True(t, rebuild.Flush())

	_, err = store.GetTopic(ctx, "lessen.les-01")
	require.ErrorIs(t, err, storage.ErrNotFound)
	hits, err := store.FindLemmasByWord(ctx, "voor")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "lessen.les-02", hits[0].TopicFilename)

	got, err := completions.Prefix(ctx, "voor", 10)
	require.NoError(t, err)
	assert.Equal(t, []models.AutoCompleteEntry{{Word: "voor", Lang: models.LanguageNative}}, got, "shared word survives")
	got, err = completions.Prefix(ctx, "huis", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	deleted, err = p.DeleteByKey(ctx, key("les-01"))
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.False(t, rebuild.Pending(), "deleting nothing schedules nothing")
}

func TestPipeline_SyncAll(t *testing.T) {
	t.Parallel()

	rb := &countingRebuilder{}
	p, store := newTestPipeline(t, rb)
	ctx := context.Background()

	_, err := p.AddOrReplace(ctx, key("weg"), []byte(lesson2))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessen.les-01.md"), []byte(lesson1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessen.les-02.md"), []byte(lesson2), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notities.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geen-punt.md"), []byte(lesson2), 0o644))

	n, err := p.SyncAll(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "two loads and one stale delete")

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, p.Scheduler().Wait(waitCtx))

	names, err := store.ListTopicFilenames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lessen.les-01", "lessen.les-02"}, names)
	assert.EqualValues(t, 1, rb.flushes.Load(), "drain flushes the rebuild once")

	_, err = p.SyncAll(ctx, filepath.Join(dir, "missing"))
	require.Error(t, err)
	names, err = store.ListTopicFilenames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2, "missing directory deletes nothing")
}
