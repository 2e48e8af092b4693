// Package autocomplete maintains the prefix-search index of (word, language)
// pairs and rebuilds it from the stored lemmas.
package autocomplete

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hyperjump/lexicon/internal/models"
)

// Store holds the current autocomplete snapshot.
type Store interface {
	// Replace swaps the whole collection for entries.
	Replace(ctx context.Context, entries []models.AutoCompleteEntry) error
	// Prefix returns entries whose word starts with prefix (case-sensitive),
	// ordered by word then language, at most limit.
	Prefix(ctx context.Context, prefix string, limit int) ([]models.AutoCompleteEntry, error)
	Count() (uint64, error)
	Close() error
}

// BleveStore implements Store with a Bleve index of keyword fields, so words
// are matched byte for byte without analysis.
type BleveStore struct {
	mu    sync.Mutex
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt("word", bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt("lang", bleve.NewKeywordFieldMapping())
	im.DefaultMapping = doc
	return im
}

// NewBleveStore creates or opens the index at path. An empty path keeps the
// index in memory.
func NewBleveStore(path string) (*BleveStore, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory autocomplete index: %w", err)
		}
		return &BleveStore{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open autocomplete index: %w", openErr)
		}
		return &BleveStore{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create autocomplete index: %w", err)
	}
	return &BleveStore{index: index}, nil
}

// Replace indexes entries and deletes every existing entry not among them,
// in a single batch.
func (b *BleveStore) Replace(ctx context.Context, entries []models.AutoCompleteEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.allIDs(ctx)
	if err != nil {
		return err
	}

	batch := b.index.NewBatch()
	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := e.Key()
		keep[id] = struct{}{}
		if err := batch.Index(id, map[string]interface{}{"word": e.Word, "lang": string(e.Lang)}); err != nil {
			return fmt.Errorf("failed to add %q to batch: %w", id, err)
		}
	}
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to write autocomplete batch: %w", err)
	}
	return nil
}

func (b *BleveStore) allIDs(ctx context.Context) ([]string, error) {
	count, err := b.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list autocomplete entries: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Prefix implements Store.
func (b *BleveStore) Prefix(ctx context.Context, prefix string, limit int) ([]models.AutoCompleteEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := bleve.NewPrefixQuery(prefix)
	q.SetField("word")
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{"word", "lang"})
	req.Fields = []string{"word", "lang"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete prefix search failed: %w", err)
	}
	out := make([]models.AutoCompleteEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		word, _ := hit.Fields["word"].(string)
		lang, _ := hit.Fields["lang"].(string)
		out = append(out, models.AutoCompleteEntry{Word: word, Lang: models.Language(lang)})
	}
	return out, nil
}

// Count returns the number of entries.
func (b *BleveStore) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveStore) Close() error {
	return b.index.Close()
}
