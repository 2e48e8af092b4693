// Package tokenizer turns vocabulary text into normalized word sets, one
// extractor per language role.
package tokenizer

import (
	"fmt"

	"github.com/hyperjump/lexicon/internal/models"
)

// Extractor splits text into distinct normalized words.
// The result has no duplicates and keeps first-occurrence order.
type Extractor interface {
	ExtractWords(text string) ([]string, error)
}

// UnbalancedParentheses is returned when text has an unmatched "(" or ")".
type UnbalancedParentheses struct {
	Text string
}

func (e *UnbalancedParentheses) Error() string {
	return fmt.Sprintf("unbalanced parentheses in %q", e.Text)
}

// Tokenizer pairs a native and a foreign extractor.
type Tokenizer struct {
	Native  Extractor
	Foreign Extractor
}

// New returns a Tokenizer with the default native and foreign extractors.
func New() *Tokenizer {
	return &Tokenizer{Native: NewNativeExtractor(), Foreign: NewForeignExtractor()}
}

// LemmaWords tokenizes both fields of a lemma into word entries that carry
// the lemma's back-references.
func (t *Tokenizer) LemmaWords(l *models.Lemma) ([]*models.WordEntry, error) {
	native, err := t.Native.ExtractWords(l.Native)
	if err != nil {
		return nil, err
	}
	foreign, err := t.Foreign.ExtractWords(l.Foreign)
	if err != nil {
		return nil, err
	}
	words := make([]*models.WordEntry, 0, len(native)+len(foreign))
	for _, w := range native {
		words = append(words, newEntry(l, w, models.LanguageNative))
	}
	for _, w := range foreign {
		words = append(words, newEntry(l, w, models.LanguageForeign))
	}
	return words, nil
}

func newEntry(l *models.Lemma, word string, lang models.Language) *models.WordEntry {
	return &models.WordEntry{
		Word:     word,
		Lang:     lang,
		Filename: l.TopicFilename,
		Position: l.Position,
		LemmaID:  l.ID,
	}
}

// collect appends regex matches of every variant, skipping stop words and
// anything already seen.
func collect(stop map[string]struct{}, groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, words := range groups {
		for _, w := range words {
			if _, ok := stop[w]; ok {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
