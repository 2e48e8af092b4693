package autocomplete

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/internal/tokenizer"
)

// LemmaSource streams every stored lemma.
type LemmaSource interface {
	ForEachLemma(ctx context.Context, fn func(*models.Lemma) error) error
}

// Builder rebuilds the autocomplete store from all stored lemmas.
type Builder struct {
	source    LemmaSource
	store     Store
	tokenizer *tokenizer.Tokenizer
	logger    *zap.Logger
	mu        sync.Mutex
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for rebuild progress and skipped lemmas.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder.
func NewBuilder(source LemmaSource, store Store, tok *tokenizer.Tokenizer, opts ...BuilderOption) *Builder {
	b := &Builder{source: source, store: store, tokenizer: tok}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Rebuild collects the distinct (word, language) pairs of every lemma and
// replaces the store contents with them. Lemmas that fail to tokenize are
// skipped. It returns the number of entries written.
func (b *Builder) Rebuild(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	set := make(map[string]models.AutoCompleteEntry)
	var lemmas, skipped int
	err := b.source.ForEachLemma(ctx, func(l *models.Lemma) error {
		lemmas++
		words, err := b.tokenizer.LemmaWords(l)
		if err != nil {
			skipped++
			if b.logger != nil {
				b.logger.Warn("autocomplete: skipping lemma", zap.String("lemma_id", l.ID), zap.String("topic", l.TopicFilename), zap.Error(err))
			}
			return nil
		}
		for _, w := range words {
			e := models.AutoCompleteEntry{Word: w.Word, Lang: w.Lang}
			set[e.Key()] = e
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read lemmas: %w", err)
	}

	entries := make([]models.AutoCompleteEntry, 0, len(set))
	for _, e := range set {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Word != entries[j].Word {
			return entries[i].Word < entries[j].Word
		}
		return entries[i].Lang < entries[j].Lang
	})

	if err := b.store.Replace(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to replace autocomplete entries: %w", err)
	}
	if b.logger != nil {
		b.logger.Info("autocomplete rebuilt",
			zap.Int("lemmas", lemmas),
			zap.Int("skipped", skipped),
			zap.Int("entries", len(entries)),
			zap.Duration("took", time.Since(start)))
	}
	return len(entries), nil
}

// Debounced returns a Debouncer that runs Rebuild once delay has passed
// without further triggers. Rebuild errors are logged.
func (b *Builder) Debounced(delay time.Duration) *Debouncer {
	return NewDebouncer(delay, func() {
		if _, err := b.Rebuild(context.Background()); err != nil && b.logger != nil {
			b.logger.Error("autocomplete rebuild failed", zap.Error(err))
		}
	})
}
