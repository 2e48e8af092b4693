// Package search answers exact word searches against storage and prefix
// lookups against the autocomplete index.
package search

import (
	"context"
	"fmt"

	"github.com/hyperjump/lexicon/internal/autocomplete"
	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/internal/storage"
)

// ErrEmptyTerm is returned for a blank word or an empty prefix.
var ErrEmptyTerm = models.ErrEmptyTerm

const (
	defaultLookupLimit = 10
	maxLookupLimit     = 100
)

// Service is the read side of the lexicon.
type Service struct {
	store        storage.Storage
	completions  autocomplete.Store
	defaultLimit int
	maxLimit     int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLookupLimits sets the default and maximum prefix lookup limits.
// Non-positive values keep the built-in defaults.
func WithLookupLimits(defaultLimit, maxLimit int) ServiceOption {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// NewService creates a search service.
func NewService(store storage.Storage, completions autocomplete.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		completions:  completions,
		defaultLimit: defaultLookupLimit,
		maxLimit:     maxLookupLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchExact returns the lemmas containing word, ordered by topic filename
// and position. Lemmas of restricted topics are dropped unless authorized.
func (s *Service) SearchExact(ctx context.Context, word string, authorized bool) ([]*models.LemmaHit, error) {
	q := models.SearchQuery{Word: word, Authorized: authorized}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	hits, err := s.store.FindLemmasByWord(ctx, q.Word)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", q.Word, err)
	}
	if q.Authorized {
		return hits, nil
	}
	visible := hits[:0]
	for _, h := range hits {
		if !h.Restricted {
			visible = append(visible, h)
		}
	}
	return visible, nil
}

// LookupPrefix returns autocomplete entries starting with prefix. The match
// is case sensitive and not filtered by restriction.
func (s *Service) LookupPrefix(ctx context.Context, prefix string, limit int) ([]models.AutoCompleteEntry, error) {
	q := models.LookupQuery{Prefix: prefix, Limit: limit}
	if err := q.Validate(s.defaultLimit, s.maxLimit); err != nil {
		return nil, err
	}
	entries, err := s.completions.Prefix(ctx, q.Prefix, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", q.Prefix, err)
	}
	return entries, nil
}

// GetTopic returns a topic with its lemmas. A restricted topic is reported
// as storage.ErrNotFound to unauthorized callers.
func (s *Service) GetTopic(ctx context.Context, filename string, authorized bool) (*models.TopicDetail, error) {
	topic, err := s.store.GetTopic(ctx, filename)
	if err != nil {
		return nil, err
	}
	if topic.Restricted && !authorized {
		return nil, storage.ErrNotFound
	}
	lemmas, err := s.store.GetLemmasByTopic(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load lemmas of %s: %w", filename, err)
	}
	return &models.TopicDetail{Topic: topic, Lemmas: lemmas}, nil
}

// ListPublications returns the index topic of every publication.
func (s *Service) ListPublications(ctx context.Context, authorized bool) ([]*models.Topic, error) {
	topics, err := s.store.ListIndexTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	return visibleTopics(topics, authorized), nil
}

// ListPublication returns the non-index topics of a publication, ordered by article.
func (s *Service) ListPublication(ctx context.Context, publication string, authorized bool) ([]*models.Topic, error) {
	topics, err := s.store.ListPublicationTopics(ctx, publication)
	if err != nil {
		return nil, fmt.Errorf("failed to list publication %s: %w", publication, err)
	}
	return visibleTopics(topics, authorized), nil
}

func visibleTopics(topics []*models.Topic, authorized bool) []*models.Topic {
	if authorized {
		return topics
	}
	out := make([]*models.Topic, 0, len(topics))
	for _, t := range topics {
		if !t.Restricted {
			out = append(out, t)
		}
	}
	return out
}
